package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/pipeline"
	"github.com/loopylangur/PsyNeuLink/internal/testrun"
)

// scriptedStage drives whole-job outcomes per cell id.
type scriptedStage struct {
	name string
	errs map[string]error

	mu  sync.Mutex
	ran []string
}

func (s *scriptedStage) Name() string { return s.name }

func (s *scriptedStage) Run(ctx context.Context, j *job.Job) error {
	s.mu.Lock()
	s.ran = append(s.ran, j.Desc.ID)
	s.mu.Unlock()
	if s.errs != nil {
		return s.errs[j.Desc.ID]
	}
	return nil
}

func noopRunner(testErrs map[string]error) (*pipeline.Runner, *scriptedStage) {
	test := &scriptedStage{name: "test", errs: testErrs}
	return &pipeline.Runner{
		Bootstrap: &scriptedStage{name: "bootstrap"},
		Install:   &scriptedStage{name: "install"},
		Test:      test,
		Report:    &scriptedStage{name: "report"},
	}, test
}

func makeJobs(n int) []*job.Job {
	jobs := make([]*job.Job, 0, n)
	for i := 0; i < n; i++ {
		jobs = append(jobs, job.New(&job.Descriptor{ID: fmt.Sprintf("linux/3.%d/x64", i)}))
	}
	return jobs
}

func TestRun_AllJobsExecuted(t *testing.T) {
	t.Parallel()

	jobs := makeJobs(6)
	pr, test := noopRunner(nil)
	exec := New(jobs, 3, pr)

	require.NoError(t, exec.Run(context.Background()))
	assert.Len(t, test.ran, 6, "every job must reach the test stage")
	for _, j := range jobs {
		assert.Equal(t, job.Passed, j.State())
	}
}

func TestRun_FailureAggregation(t *testing.T) {
	t.Parallel()

	jobs := makeJobs(4)
	pr, _ := noopRunner(map[string]error{
		jobs[1].Desc.ID: &testrun.FailureError{ExitCode: 1},
		jobs[3].Desc.ID: &testrun.FailureError{ExitCode: 2},
	})
	exec := New(jobs, 2, pr)

	err := exec.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "2 of 4 jobs failed")

	assert.Equal(t, job.Passed, jobs[0].State())
	assert.Equal(t, job.TestsFailed, jobs[1].State())
	assert.Equal(t, job.Passed, jobs[2].State())
	assert.Equal(t, job.TestsFailed, jobs[3].State())
}

func TestRun_OneFailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	jobs := makeJobs(5)
	pr, test := noopRunner(map[string]error{
		jobs[0].Desc.ID: &testrun.FailureError{ExitCode: 1},
	})
	exec := New(jobs, 1, pr)

	err := exec.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, test.ran, 5, "jobs are independent; one failure must not cancel the rest")
}

func TestRun_CanceledContextSkipsJobs(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := makeJobs(3)
	pr, test := noopRunner(nil)
	exec := New(jobs, 2, pr)

	err := exec.Run(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "skipped")
	assert.Empty(t, test.ran)
	for _, j := range jobs {
		assert.Equal(t, job.Skipped, j.State())
	}
}

func TestNew_ClampsWorkerCount(t *testing.T) {
	t.Parallel()

	exec := New(makeJobs(1), 0, nil)
	assert.Equal(t, 1, exec.workers)
}
