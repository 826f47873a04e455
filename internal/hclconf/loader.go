// Package hclconf loads pipeline definitions written in HCL and translates
// them into the format-agnostic config model.
package hclconf

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/fsutil"
	"github.com/loopylangur/PsyNeuLink/internal/runenv"
	"github.com/loopylangur/PsyNeuLink/internal/schema"
)

// Loader implements config.Loader for HCL pipeline files.
type Loader struct {
	fsys afero.Fs
	env  *runenv.Environment
}

// NewLoader returns an HCL loader. Pipeline expressions may reference the
// captured environment snapshot as the `env` object.
func NewLoader(fsys afero.Fs, env *runenv.Environment) *Loader {
	return &Loader{fsys: fsys, env: env}
}

// Load discovers every .hcl file under the given paths, parses them, and
// returns the translated pipeline models.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, p := range paths {
		found, err := fsutil.FindFilesByExtension(l.fsys, p, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to discover pipeline files under %q: %w", p, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl pipeline files found under %v", paths)
	}
	logger.Debug("Pipeline files discovered.", "count", len(files))

	evalCtx := l.evalContext()
	parser := hclparse.NewParser()

	var pipelines []*config.Pipeline
	for _, path := range files {
		src, err := afero.ReadFile(l.fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, err)
		}
		file, diags := parser.ParseHCL(src, path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %q: %w", path, diags)
		}

		var root schema.Root
		if diags := gohcl.DecodeBody(file.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %q: %w", path, diags)
		}

		for _, p := range root.Pipelines {
			model := translatePipeline(p)
			if err := model.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			pipelines = append(pipelines, model)
		}
	}

	if len(pipelines) == 0 {
		return nil, fmt.Errorf("no pipeline blocks defined in %v", paths)
	}
	logger.Debug("Pipelines loaded and translated into unified model.", "count", len(pipelines))
	return pipelines, nil
}

// evalContext exposes the environment snapshot to HCL expressions as the
// `env` object, so a pipeline can write e.g. results_url = env.RESULTS_URL.
func (l *Loader) evalContext() *hcl.EvalContext {
	vars := l.env.Vars()
	attrs := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		attrs[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(attrs),
		},
	}
}
