// Package job defines the job descriptor — one matrix cell's fixed
// environment parameters — and the mutable run state tracked for it.
package job

import (
	"sync"
	"time"
)

// Descriptor is one cell of the expanded matrix. It is immutable once the
// plan is built: the descriptor fully determines the job's environment
// before any stage executes.
type Descriptor struct {
	// ID is the human-readable cell identity, e.g. "linux/3.8/x64".
	ID string

	// Pipeline is the name of the owning pipeline.
	Pipeline string

	OS          string
	Interpreter string
	Arch        string

	// ExtraArgs are appended to the test-runner invocation for this cell.
	ExtraArgs []string

	// Env holds per-cell environment overrides for spawned commands.
	Env map[string]string
}

// State is the lifecycle position of a job.
type State int

const (
	Pending State = iota
	Running
	Passed
	TestsFailed
	InfraFailed
	Skipped
)

// String returns the state name for logs and the status endpoint.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Passed:
		return "passed"
	case TestsFailed:
		return "tests_failed"
	case InfraFailed:
		return "infra_failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Failed reports whether the state counts against overall run success.
func (s State) Failed() bool {
	return s == TestsFailed || s == InfraFailed
}

// StageRecord captures the outcome of a single pipeline stage.
type StageRecord struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Job pairs a descriptor with its run state. State transitions are
// serialized; the status endpoint reads concurrently with the executor.
type Job struct {
	Desc *Descriptor

	mu      sync.Mutex
	state   State
	err     error
	stages  []StageRecord
	started time.Time
	ended   time.Time
}

// New returns a pending job for the given descriptor.
func New(desc *Descriptor) *Job {
	return &Job{Desc: desc}
}

// SetState transitions the job, stamping start and end times.
func (j *Job) SetState(s State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if s == Running && j.started.IsZero() {
		j.started = time.Now()
	}
	if s != Running && s != Pending {
		j.ended = time.Now()
	}
	j.state = s
}

// State returns the current lifecycle position.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Fail records the terminal error alongside the failed state.
func (j *Job) Fail(s State, err error) {
	j.mu.Lock()
	j.err = err
	j.mu.Unlock()
	j.SetState(s)
}

// Err returns the terminal error, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// RecordStage appends one stage outcome to the job's history.
func (j *Job) RecordStage(rec StageRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stages = append(j.stages, rec)
}

// Stages returns a copy of the stage history.
func (j *Job) Stages() []StageRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]StageRecord, len(j.stages))
	copy(out, j.stages)
	return out
}

// Duration returns the wall time between the first Running transition and
// the terminal transition, or zero while the job is still in flight.
func (j *Job) Duration() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started.IsZero() || j.ended.IsZero() {
		return 0
	}
	return j.ended.Sub(j.started)
}
