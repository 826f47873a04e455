// Package execcmd abstracts process execution so pipeline stages can be
// exercised in tests without spawning anything.
package execcmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the inherited environment.
	Env []string
}

// Result is the observed outcome of a completed process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes commands. Implementations must return a non-nil Result
// with the process exit code when the process ran at all; an error is
// reserved for failures to start or context cancellation.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Local runs commands on the host with os/exec.
type Local struct{}

// Run starts the process and waits for it. A non-zero exit is NOT an error:
// the exit code is surfaced in the Result so callers decide what it means.
func (l *Local) Run(ctx context.Context, cmd Command) (*Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		// The process never ran: missing binary, bad dir, canceled context.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return res, nil
}
