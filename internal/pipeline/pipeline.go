// Package pipeline sequences the four stages of one job: bootstrap, install,
// test, report. There is no retry or partial-failure recovery — the only
// policy is the failure taxonomy: bootstrap and install errors abort the job
// as infrastructure failures, a test failure still reaches the reporter, and
// reporter errors are logged without touching the job outcome.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/testrun"
)

// Stage is one step of the fixed pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, j *job.Job) error
}

// Runner walks the fixed stage sequence for a single job.
type Runner struct {
	Bootstrap Stage
	Install   Stage
	Test      Stage
	Report    Stage
}

// Run executes the job end to end and leaves its terminal state on the job.
func (r *Runner) Run(ctx context.Context, j *job.Job) {
	logger := ctxlog.FromContext(ctx).With("job", j.Desc.ID)
	j.SetState(job.Running)
	logger.Info("▶️ Job started.", "os", j.Desc.OS, "interpreter", j.Desc.Interpreter, "arch", j.Desc.Arch)

	for _, stage := range []Stage{r.Bootstrap, r.Install} {
		if err := r.runStage(ctx, stage, j); err != nil {
			logger.Error("Job aborted by infrastructure failure.", "stage", stage.Name(), "error", err)
			j.Fail(job.InfraFailed, err)
			return
		}
	}

	testErr := r.runStage(ctx, r.Test, j)
	var failure *testrun.FailureError
	switch {
	case testErr == nil:
		// fall through to report
	case errors.As(testErr, &failure):
		logger.Info("Job has test failures.", "exit_code", failure.ExitCode)
	default:
		logger.Error("Job aborted: test runner could not run.", "error", testErr)
		j.Fail(job.InfraFailed, testErr)
		return
	}

	// Best-effort: a reporter error never flips the outcome decided above.
	if err := r.runStage(ctx, r.Report, j); err != nil {
		logger.Warn("Result upload failed, job outcome unchanged.", "error", err)
	}

	if testErr != nil {
		j.Fail(job.TestsFailed, testErr)
		logger.Info("❌ Job finished with test failures.")
		return
	}
	j.SetState(job.Passed)
	logger.Info("✅ Job passed.")
}

func (r *Runner) runStage(ctx context.Context, stage Stage, j *job.Job) error {
	logger := ctxlog.FromContext(ctx).With("job", j.Desc.ID, "stage", stage.Name())
	logger.Debug("Stage started.")

	start := time.Now()
	err := stage.Run(ctx, j)
	j.RecordStage(job.StageRecord{
		Name:     stage.Name(),
		Err:      err,
		Duration: time.Since(start),
	})

	if err != nil {
		logger.Debug("Stage finished with error.", "error", err)
	} else {
		logger.Debug("Stage finished.")
	}
	return err
}
