// Package matrix expands a pipeline's declared matrix into concrete job
// descriptors: the cross product of the axes, minus excluded cells, plus any
// explicit one-off job blocks.
package matrix

import (
	"context"
	"fmt"

	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/job"
)

// Expand builds the job plan for one pipeline. Descriptors are returned in
// deterministic axis order (os, then interpreter, then arch) with explicit
// jobs appended last.
func Expand(ctx context.Context, p *config.Pipeline) ([]*job.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	var descs []*job.Descriptor
	seen := make(map[string]bool)

	if p.Matrix != nil {
		for _, osName := range p.Matrix.OS {
			for _, interp := range p.Matrix.Interpreters {
				for _, arch := range p.Matrix.Arch {
					if excluded(p.Matrix.Excludes, osName, interp, arch) {
						logger.Debug("Matrix cell excluded.", "os", osName, "interpreter", interp, "arch", arch)
						continue
					}
					d := &job.Descriptor{
						ID:          cellID(osName, interp, arch),
						Pipeline:    p.Name,
						OS:          osName,
						Interpreter: interp,
						Arch:        arch,
					}
					if seen[d.ID] {
						return nil, fmt.Errorf("duplicate matrix cell %q", d.ID)
					}
					seen[d.ID] = true
					descs = append(descs, d)
				}
			}
		}
	}

	for _, spec := range p.ExtraJobs {
		arch := spec.Arch
		if arch == "" {
			arch = "x64"
		}
		id := spec.Name
		if id == "" {
			id = cellID(spec.OS, spec.Interpreter, arch)
		}
		if seen[id] {
			return nil, fmt.Errorf("job %q collides with an existing matrix cell", id)
		}
		seen[id] = true
		descs = append(descs, &job.Descriptor{
			ID:          id,
			Pipeline:    p.Name,
			OS:          spec.OS,
			Interpreter: spec.Interpreter,
			Arch:        arch,
			ExtraArgs:   spec.ExtraArgs,
			Env:         spec.Env,
		})
	}

	if len(descs) == 0 {
		return nil, fmt.Errorf("pipeline %q: matrix expansion produced no jobs", p.Name)
	}
	logger.Debug("Matrix expanded.", "pipeline", p.Name, "jobs", len(descs))
	return descs, nil
}

func excluded(rules []*config.Exclude, os, interpreter, arch string) bool {
	for _, r := range rules {
		if r.Matches(os, interpreter, arch) {
			return true
		}
	}
	return false
}

func cellID(os, interpreter, arch string) string {
	return fmt.Sprintf("%s/%s/%s", os, interpreter, arch)
}
