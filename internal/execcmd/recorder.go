package execcmd

import (
	"context"
	"sync"
)

// Recorder is a Runner for tests: it records every command and replies with
// a scripted result. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	commands []Command

	// Respond, when set, scripts the reply per command. When nil every
	// command succeeds with exit code 0.
	Respond func(cmd Command) (*Result, error)
}

// Run records the command and returns the scripted reply.
func (r *Recorder) Run(ctx context.Context, cmd Command) (*Result, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()

	if r.Respond != nil {
		return r.Respond(cmd)
	}
	return &Result{ExitCode: 0}, nil
}

// Commands returns a copy of everything run so far, in order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}
