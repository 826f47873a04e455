// Package executor fans independent jobs out across a worker pool. Jobs
// share no mutable state and never communicate; within one job the stages
// run strictly sequentially via the pipeline runner.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/loopylangur/PsyNeuLink/internal/ctxlog"
	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/pipeline"
)

// Executor drains a flat job plan with a fixed number of workers.
type Executor struct {
	jobs     []*job.Job
	workers  int
	pipeline *pipeline.Runner
}

// New returns an executor over the given plan.
func New(jobs []*job.Job, workers int, pr *pipeline.Runner) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{jobs: jobs, workers: workers, pipeline: pr}
}

// Run executes every job and returns an error when any job failed. A
// canceled context leaves undrained jobs in the skipped state.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executor starting.", "jobs", len(e.jobs), "workers", e.workers)

	jobChan := make(chan *job.Job)
	var wg sync.WaitGroup
	wg.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, jobChan, workerID)
		}(i)
	}

	for _, j := range e.jobs {
		jobChan <- j
	}
	close(jobChan)
	wg.Wait()

	var failed, skipped int
	for _, j := range e.jobs {
		switch {
		case j.State().Failed():
			failed++
		case j.State() == job.Skipped:
			skipped++
		}
	}
	logger.Debug("Executor finished.", "failed", failed, "skipped", skipped)

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(e.jobs))
	}
	if skipped > 0 {
		return fmt.Errorf("%d of %d jobs skipped: %w", skipped, len(e.jobs), ctx.Err())
	}
	return nil
}
