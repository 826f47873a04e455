// Package install implements the second pipeline stage: rewriting the
// dependency list for the job's platform, then installing the project in
// editable mode together with its pinned source-control dependencies.
package install

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/execcmd"
	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/platform"
	"github.com/loopylangur/PsyNeuLink/internal/runenv"
)

// Stage installs the project and its dependencies for one job.
type Stage struct {
	pipeline *config.Pipeline
	env      *runenv.Environment
	runner   execcmd.Runner
	fsys     afero.Fs
}

// New returns the install stage. The filesystem is injected so the
// requirements rewrite is testable against an in-memory tree.
func New(p *config.Pipeline, env *runenv.Environment, runner execcmd.Runner, fsys afero.Fs) *Stage {
	return &Stage{pipeline: p, env: env, runner: runner, fsys: fsys}
}

// Name identifies the stage in logs and stage records.
func (s *Stage) Name() string { return "install" }

// Run performs the edit-before-install sequence. Ordering is load-bearing:
// the requirements rewrite must complete before any install command reads
// the file.
func (s *Stage) Run(ctx context.Context, j *job.Job) error {
	logger := ctxlog.FromContext(ctx).With("stage", s.Name(), "job", j.Desc.ID)

	spec := s.pipeline.Install
	if spec == nil {
		logger.Debug("No install block configured, nothing to install.")
		return nil
	}

	plat, err := platform.For(j.Desc.OS)
	if err != nil {
		return err
	}

	if spec.Requirements != "" && len(spec.Drops) > 0 {
		path := filepath.Join(s.pipeline.ProjectDir, spec.Requirements)
		dropped, err := RewriteRequirements(s.fsys, path, spec.Drops, j.Desc.OS, j.Desc.Interpreter)
		if err != nil {
			return err
		}
		if len(dropped) > 0 {
			logger.Info("Dropped unavailable dependency rows.", "packages", dropped)
		}
	}

	for _, src := range spec.Sources {
		logger.Info("Installing source-control dependency.", "package", src.Package, "url", src.URL)
		if err := s.pip(ctx, plat, j, "install", src.URL); err != nil {
			return fmt.Errorf("failed to install %s: %w", src.Package, err)
		}
	}

	if spec.Requirements != "" {
		args := []string{"install", "-r", spec.Requirements}
		if b := s.pipeline.Bootstrap; b != nil && b.WheelIndex != "" {
			args = append(args, "-f", b.WheelIndex)
		}
		logger.Info("Installing requirements.", "file", spec.Requirements)
		if err := s.pip(ctx, plat, j, args...); err != nil {
			return fmt.Errorf("failed to install requirements: %w", err)
		}
	}

	if spec.Editable {
		logger.Info("Installing project in editable mode.")
		if err := s.pip(ctx, plat, j, "install", "-e", "."); err != nil {
			return fmt.Errorf("failed to install project in editable mode: %w", err)
		}
	}
	return nil
}

func (s *Stage) pip(ctx context.Context, plat *platform.Platform, j *job.Job, args ...string) error {
	cmd := plat.PipCommand(args...)
	cmd.Dir = s.pipeline.ProjectDir
	cmd.Env = s.env.CommandEnv(j.Desc.Env)
	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("pip exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}
