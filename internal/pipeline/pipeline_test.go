package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopylangur/PsyNeuLink/internal/job"
	"github.com/loopylangur/PsyNeuLink/internal/testrun"
)

// fakeStage records its invocation order and replies with a scripted error.
type fakeStage struct {
	name string
	err  error

	mu    sync.Mutex
	order *[]string
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) Run(ctx context.Context, j *job.Job) error {
	f.mu.Lock()
	*f.order = append(*f.order, f.name)
	f.mu.Unlock()
	return f.err
}

func newRunner(order *[]string, errs map[string]error) *Runner {
	stage := func(name string) *fakeStage {
		return &fakeStage{name: name, err: errs[name], order: order}
	}
	return &Runner{
		Bootstrap: stage("bootstrap"),
		Install:   stage("install"),
		Test:      stage("test"),
		Report:    stage("report"),
	}
}

func testJob() *job.Job {
	return job.New(&job.Descriptor{ID: "linux/3.8/x64", OS: "linux", Interpreter: "3.8", Arch: "x64"})
}

func TestRun_StageOrdering(t *testing.T) {
	t.Parallel()

	var order []string
	r := newRunner(&order, nil)
	j := testJob()
	r.Run(context.Background(), j)

	assert.Equal(t, []string{"bootstrap", "install", "test", "report"}, order)
	assert.Equal(t, job.Passed, j.State())

	stages := j.Stages()
	require.Len(t, stages, 4)
	for i, name := range []string{"bootstrap", "install", "test", "report"} {
		assert.Equal(t, name, stages[i].Name)
	}
}

func TestRun_BootstrapFailureAborts(t *testing.T) {
	t.Parallel()

	var order []string
	r := newRunner(&order, map[string]error{"bootstrap": errors.New("no interpreter")})
	j := testJob()
	r.Run(context.Background(), j)

	assert.Equal(t, []string{"bootstrap"}, order, "nothing may run after a fatal bootstrap failure")
	assert.Equal(t, job.InfraFailed, j.State())
	assert.ErrorContains(t, j.Err(), "no interpreter")
}

func TestRun_InstallFailureAborts(t *testing.T) {
	t.Parallel()

	var order []string
	r := newRunner(&order, map[string]error{"install": errors.New("fetch failed")})
	j := testJob()
	r.Run(context.Background(), j)

	assert.Equal(t, []string{"bootstrap", "install"}, order)
	assert.Equal(t, job.InfraFailed, j.State())
}

func TestRun_TestFailureStillReports(t *testing.T) {
	t.Parallel()

	var order []string
	r := newRunner(&order, map[string]error{"test": &testrun.FailureError{ExitCode: 1}})
	j := testJob()
	r.Run(context.Background(), j)

	assert.Equal(t, []string{"bootstrap", "install", "test", "report"}, order,
		"the reporter must run even when tests failed")
	assert.Equal(t, job.TestsFailed, j.State())

	var failure *testrun.FailureError
	require.ErrorAs(t, j.Err(), &failure)
	assert.Equal(t, 1, failure.ExitCode)
}

func TestRun_TestInfraErrorAborts(t *testing.T) {
	t.Parallel()

	var order []string
	r := newRunner(&order, map[string]error{"test": errors.New("runner binary missing")})
	j := testJob()
	r.Run(context.Background(), j)

	assert.Equal(t, []string{"bootstrap", "install", "test"}, order,
		"a runner that never ran produces no artifacts to report")
	assert.Equal(t, job.InfraFailed, j.State())
}

func TestRun_ReportFailureDoesNotFlipOutcome(t *testing.T) {
	t.Parallel()

	t.Run("passing job stays passed", func(t *testing.T) {
		var order []string
		r := newRunner(&order, map[string]error{"report": errors.New("dashboard down")})
		j := testJob()
		r.Run(context.Background(), j)

		assert.Equal(t, job.Passed, j.State())
		assert.NoError(t, j.Err())
	})

	t.Run("failing job stays failed with its test error", func(t *testing.T) {
		var order []string
		r := newRunner(&order, map[string]error{
			"test":   &testrun.FailureError{ExitCode: 3},
			"report": errors.New("dashboard down"),
		})
		j := testJob()
		r.Run(context.Background(), j)

		assert.Equal(t, job.TestsFailed, j.State())
		var failure *testrun.FailureError
		assert.ErrorAs(t, j.Err(), &failure)
	})
}
