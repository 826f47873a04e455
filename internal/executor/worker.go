package executor

import (
	"context"

	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/job"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, jobChan chan *job.Job, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for j := range jobChan {
		workerLogger := logger.With("workerID", workerID, "job", j.Desc.ID)

		if ctx.Err() != nil {
			workerLogger.Warn("Run canceled, skipping job.", "error", ctx.Err())
			j.Fail(job.Skipped, ctx.Err())
			continue
		}

		workerLogger.Debug("Worker picked up job for execution.")
		e.pipeline.Run(ctx, j)
		workerLogger.Debug("Worker finished job.", "state", j.State().String())
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
