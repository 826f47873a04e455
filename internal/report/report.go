// Package report implements the final pipeline stage: uploading coverage
// data and the JUnit report to their dashboards. Every upload is
// best-effort — failures are surfaced to the caller for logging but never
// change the already-determined job outcome.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/afero"

	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/junit"
	"github.com/loopylangur/PsyNeuLink/internal/runenv"
	"github.com/loopylangur/PsyNeuLink/internal/testrun"
)

// coverageFile is the payload the coverage tool leaves in the project dir.
const coverageFile = ".coverage"

// Stage uploads one job's artifacts.
type Stage struct {
	pipeline *config.Pipeline
	env      *runenv.Environment
	client   *retryablehttp.Client
	fsys     afero.Fs
}

// New returns the report stage.
func New(p *config.Pipeline, env *runenv.Environment, client *retryablehttp.Client, fsys afero.Fs) *Stage {
	return &Stage{pipeline: p, env: env, client: client, fsys: fsys}
}

// Name identifies the stage in logs and stage records.
func (s *Stage) Name() string { return "report" }

// Run performs the uploads. The returned error aggregates upload problems;
// callers log it and move on.
func (s *Stage) Run(ctx context.Context, j *job.Job) error {
	logger := ctxlog.FromContext(ctx).With("stage", s.Name(), "job", j.Desc.ID)

	spec := s.pipeline.Report
	if spec == nil {
		logger.Debug("No report block configured, skipping uploads.")
		return nil
	}

	var errs []error
	if spec.CoverageURL != "" {
		if s.env.Coverage {
			if err := s.uploadCoverage(ctx, spec, j); err != nil {
				errs = append(errs, err)
			} else {
				logger.Info("Coverage payload uploaded.", "build", s.env.ParallelBuildID)
			}
		} else {
			logger.Debug("Coverage mode disabled, upload skipped.")
		}
	}

	if spec.ResultsURL != "" && s.pipeline.Test != nil && s.pipeline.Test.JUnitPath != "" {
		if err := s.uploadResults(ctx, spec, j); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("Test results uploaded.")
		}
	}
	return errors.Join(errs...)
}

// uploadCoverage posts the coverage payload to the aggregation webhook,
// keyed by the shared parallel build marker so shards merge.
func (s *Stage) uploadCoverage(ctx context.Context, spec *config.ReportSpec, j *job.Job) error {
	path := filepath.Join(s.pipeline.ProjectDir, coverageFile)
	payload, err := afero.ReadFile(s.fsys, path)
	if err != nil {
		return fmt.Errorf("coverage payload missing at %q: %w", path, err)
	}

	target, err := url.Parse(spec.CoverageURL)
	if err != nil {
		return fmt.Errorf("invalid coverage url: %w", err)
	}
	q := target.Query()
	q.Set("build", s.env.ParallelBuildID)
	q.Set("job", j.Desc.ID)
	target.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("coverage upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("coverage endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// uploadResults posts the per-job JUnit XML to the results endpoint with the
// configured bearer token.
func (s *Stage) uploadResults(ctx context.Context, spec *config.ReportSpec, j *job.Job) error {
	logger := ctxlog.FromContext(ctx)

	path := filepath.Join(s.pipeline.ProjectDir, testrun.JUnitFile(s.pipeline.Test, j.Desc))
	data, err := afero.ReadFile(s.fsys, path)
	if err != nil {
		return fmt.Errorf("junit report missing at %q: %w", path, err)
	}

	if suites, err := junit.Parse(data); err == nil {
		tests, failures, skipped := suites.Summary()
		logger.Info("Parsed junit report.", "tests", tests, "failures", failures, "skipped", skipped)
	} else {
		logger.Warn("Uploading junit report that failed local parsing.", "error", err)
	}

	endpoint := spec.ResultsURL + "/" + url.PathEscape(j.Desc.ID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/xml")
	if token := s.env.Lookup(spec.TokenEnv); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("results upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("results endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
