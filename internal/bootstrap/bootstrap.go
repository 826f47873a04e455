// Package bootstrap implements the first pipeline stage: provisioning the
// interpreter environment and native libraries for one job. Any failure
// here is fatal to the job.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/execcmd"
	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/platform"
	"github.com/loopylangur/PsyNeuLink/internal/runenv"
)

// Stage provisions the host for one job descriptor.
type Stage struct {
	pipeline *config.Pipeline
	env      *runenv.Environment
	runner   execcmd.Runner
	client   *retryablehttp.Client
}

// New returns the bootstrap stage. The retrying client wraps the one network
// fetch this stage performs.
func New(p *config.Pipeline, env *runenv.Environment, runner execcmd.Runner, client *retryablehttp.Client) *Stage {
	return &Stage{pipeline: p, env: env, runner: runner, client: client}
}

// Name identifies the stage in logs and stage records.
func (s *Stage) Name() string { return "bootstrap" }

// Run verifies the interpreter, installs native packages, and probes the
// prebuilt-wheel index when one is configured for this cell.
func (s *Stage) Run(ctx context.Context, j *job.Job) error {
	logger := ctxlog.FromContext(ctx).With("stage", s.Name(), "job", j.Desc.ID)

	plat, err := platform.For(j.Desc.OS)
	if err != nil {
		return err
	}

	if err := s.verifyInterpreter(ctx, plat, j); err != nil {
		return err
	}

	spec := s.pipeline.Bootstrap
	if spec == nil {
		logger.Debug("No bootstrap block configured, nothing to provision.")
		return nil
	}

	if len(spec.Packages) > 0 {
		cmd := plat.InstallNativePackages(spec.Packages)
		cmd.Env = s.env.CommandEnv(j.Desc.Env)
		logger.Info("Installing native packages.", "packages", spec.Packages, "manager", cmd.Name)
		res, err := s.runner.Run(ctx, cmd)
		if err != nil {
			return fmt.Errorf("native package install did not start: %w", err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("native package install failed with exit code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		}
	}

	if spec.WheelIndex != "" && s.wheelWanted(j.Desc) {
		if err := s.probeWheelIndex(ctx, spec.WheelIndex); err != nil {
			return err
		}
	}
	return nil
}

// verifyInterpreter checks the launcher exists and reports the version the
// descriptor demands.
func (s *Stage) verifyInterpreter(ctx context.Context, plat *platform.Platform, j *job.Job) error {
	cmd := execcmd.Command{Name: plat.Python(), Args: []string{"--version"}}
	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("interpreter %q not available: %w", plat.Python(), err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("interpreter version check failed with exit code %d", res.ExitCode)
	}
	version := strings.TrimSpace(res.Stdout + res.Stderr)
	if !versionMatches(version, j.Desc.Interpreter) {
		return fmt.Errorf("interpreter reports %q, job requires %s", version, j.Desc.Interpreter)
	}
	return nil
}

// versionMatches compares on component boundaries: a cell requiring 3.1
// must reject an interpreter reporting 3.10.2.
func versionMatches(reported, want string) bool {
	for _, field := range strings.Fields(reported) {
		if field == want || strings.HasPrefix(field, want+".") {
			return true
		}
	}
	return false
}

// wheelWanted reports whether this cell still installs the wheel package,
// i.e. no drop rule removes it before install.
func (s *Stage) wheelWanted(d *job.Descriptor) bool {
	spec := s.pipeline.Bootstrap
	if spec.WheelPackage == "" {
		return true
	}
	if s.pipeline.Install == nil {
		return true
	}
	for _, rule := range s.pipeline.Install.Drops {
		if rule.Package == spec.WheelPackage && rule.Applies(d.OS, d.Interpreter) {
			return false
		}
	}
	return true
}

// probeWheelIndex fetches the wheel index through the retrying client so a
// flaky mirror does not abort the whole matrix cell on the first hiccup.
func (s *Stage) probeWheelIndex(ctx context.Context, indexURL string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return fmt.Errorf("invalid wheel index url %q: %w", indexURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("wheel index %q unreachable: %w", indexURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wheel index %q returned status %d", indexURL, resp.StatusCode)
	}
	return nil
}
