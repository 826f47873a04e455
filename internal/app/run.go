package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/afero"

	"github.com/loopylangur/PsyNeuLink/internal/bootstrap"
	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/execcmd"
	"github.com/loopylangur/PsyNeuLink/internal/executor"
	"github.com/loopylangur/PsyNeuLink/internal/install"
	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/matrix"
	"github.com/loopylangur/PsyNeuLink/internal/pipeline"
	"github.com/loopylangur/PsyNeuLink/internal/report"
	"github.com/loopylangur/PsyNeuLink/internal/testrun"
)

// Run executes every loaded pipeline based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.StatusPort > 0 {
		if err := a.startStatusServer(appConfig.StatusPort); err != nil {
			return err
		}
		defer a.closeStatusServer()
	}

	runner := &execcmd.Local{}
	fsys := afero.NewOsFs()
	client := newRetryingClient()

	var errs []error
	for _, p := range a.pipelines {
		if err := a.runPipeline(ctx, appConfig, p, runner, fsys, client); err != nil {
			errs = append(errs, fmt.Errorf("pipeline %q: %w", p.Name, err))
		}
	}

	a.logger.Debug("App.Run method finished.")
	return errors.Join(errs...)
}

func (a *App) runPipeline(ctx context.Context, appConfig *Config, p *config.Pipeline, runner execcmd.Runner, fsys afero.Fs, client *retryablehttp.Client) error {
	a.logger.Debug("Expanding job matrix...", "pipeline", p.Name)
	descs, err := matrix.Expand(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to expand matrix: %w", err)
	}

	jobs := make([]*job.Job, 0, len(descs))
	for _, d := range descs {
		jobs = append(jobs, job.New(d))
	}
	a.setJobs(jobs)
	a.logger.Info("Job plan built.", "pipeline", p.Name, "jobs", len(jobs), "build", a.env.ParallelBuildID)

	if appConfig.DryRun {
		for _, j := range jobs {
			fmt.Fprintf(a.outW, "%s\n", j.Desc.ID)
		}
		return nil
	}

	pr := &pipeline.Runner{
		Bootstrap: bootstrap.New(p, a.env, runner, client),
		Install:   install.New(p, a.env, runner, fsys),
		Test:      testrun.New(p, a.env, runner),
		Report:    report.New(p, a.env, client, fsys),
	}

	a.logger.Info("🚀 Starting concurrent execution...", "workers", appConfig.WorkerCount)
	exec := executor.New(jobs, appConfig.WorkerCount, pr)
	if err := exec.Run(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")
	return nil
}

// newRetryingClient builds the shared HTTP client used for wheel-index
// fetches and result uploads. Retries cover only these network calls; the
// test runner itself is never retried.
func newRetryingClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil
	return client
}
