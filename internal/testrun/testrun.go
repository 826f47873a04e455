// Package testrun implements the third pipeline stage: invoking the test
// runner. A non-zero runner exit is a test failure, not an infrastructure
// error, and is never retried.
package testrun

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/execcmd"
	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/runenv"
)

// FailureError reports that the suite ran and failed. It is distinct from
// infrastructure errors: the job is marked failed but the reporter still
// runs.
type FailureError struct {
	ExitCode int
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	return fmt.Sprintf("test runner exited with code %d", e.ExitCode)
}

// Stage runs the suite for one job.
type Stage struct {
	pipeline *config.Pipeline
	env      *runenv.Environment
	runner   execcmd.Runner
}

// New returns the test stage.
func New(p *config.Pipeline, env *runenv.Environment, runner execcmd.Runner) *Stage {
	return &Stage{pipeline: p, env: env, runner: runner}
}

// Name identifies the stage in logs and stage records.
func (s *Stage) Name() string { return "test" }

// Run invokes the runner with the job's argv. Exit code 0 returns nil; any
// other exit code returns *FailureError.
func (s *Stage) Run(ctx context.Context, j *job.Job) error {
	logger := ctxlog.FromContext(ctx).With("stage", s.Name(), "job", j.Desc.ID)

	spec := s.pipeline.Test
	if spec == nil || spec.Runner == "" {
		logger.Warn("No test runner configured, treating job as passed.")
		return nil
	}

	args := BuildArgs(spec, j.Desc, s.env.Coverage)
	cmd := execcmd.Command{
		Name: spec.Runner,
		Args: args,
		Dir:  s.pipeline.ProjectDir,
		Env:  s.env.CommandEnv(j.Desc.Env),
	}
	logger.Info("Invoking test runner.", "runner", spec.Runner, "args", strings.Join(args, " "))

	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("test runner did not start: %w", err)
	}
	if res.ExitCode != 0 {
		logger.Info("Test runner reported failures.", "exit_code", res.ExitCode)
		return &FailureError{ExitCode: res.ExitCode}
	}
	logger.Info("Test runner passed.", "duration", res.Duration)
	return nil
}

// BuildArgs assembles the runner argv for one cell. Coverage mode appends
// the coverage target only when enabled; the JUnit flag is added whenever a
// report path is configured.
func BuildArgs(spec *config.TestSpec, d *job.Descriptor, coverage bool) []string {
	args := append([]string{}, spec.Args...)
	if spec.Parallel {
		args = append(args, "-n", "auto")
	}
	if coverage && spec.CoverageTarget != "" {
		args = append(args, "--cov="+spec.CoverageTarget)
	}
	if spec.JUnitPath != "" {
		args = append(args, "--junit-xml="+JUnitFile(spec, d))
	}
	args = append(args, d.ExtraArgs...)
	return args
}

// JUnitFile returns the per-job report path: the configured path with the
// cell identity folded into the file name so concurrent jobs never collide.
func JUnitFile(spec *config.TestSpec, d *job.Descriptor) string {
	dir, file := filepath.Split(spec.JUnitPath)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	cell := strings.NewReplacer("/", "-", ".", "_").Replace(d.ID)
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, cell, ext))
}
