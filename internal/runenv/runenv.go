// Package runenv captures the ambient process environment once, at startup,
// into an explicit value that is passed into the pipeline. Nothing below the
// CLI layer reads os.Getenv directly.
package runenv

import (
	"strings"

	"github.com/google/uuid"
)

// Names of the well-known variables consumed by the pipeline.
const (
	// CoverageVar toggles coverage mode by presence: any non-empty value
	// enables instrumentation and the coverage upload.
	CoverageVar = "COVERAGE"

	// ParallelBuildVar carries the shared identifier letting the external
	// aggregator merge coverage from concurrently run shards.
	ParallelBuildVar = "CI_PARALLEL_BUILD_ID"

	// WarningsVar carries the interpreter warning-filter policy.
	WarningsVar = "PYTHONWARNINGS"

	// ProgressBarVar suppresses installer progress bars when set to "off".
	ProgressBarVar = "PIP_PROGRESS_BAR"
)

// Environment is the startup snapshot of everything the pipeline may read
// from the ambient environment.
type Environment struct {
	// Coverage is true when the coverage variable held a non-empty value.
	Coverage bool

	// ParallelBuildID is the aggregation key shared by shards of one run.
	// Generated when the ambient variable was unset, so coverage shards
	// always carry a key.
	ParallelBuildID string

	// WarningPolicy is the interpreter warning-filter policy, if any.
	WarningPolicy string

	// SuppressProgress disables installer progress bars.
	SuppressProgress bool

	vars map[string]string
}

// Capture builds an Environment from the given "KEY=VALUE" pairs, normally
// os.Environ(). It is the single point where ambient state enters the
// program.
func Capture(environ []string) *Environment {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	env := &Environment{
		Coverage:         vars[CoverageVar] != "",
		ParallelBuildID:  vars[ParallelBuildVar],
		WarningPolicy:    vars[WarningsVar],
		SuppressProgress: vars[ProgressBarVar] == "off",
		vars:             vars,
	}
	if env.ParallelBuildID == "" {
		env.ParallelBuildID = uuid.NewString()
	}
	return env
}

// CommandEnv renders the pipeline-managed variables, plus per-job overrides,
// as "KEY=VALUE" entries for spawned commands.
func (e *Environment) CommandEnv(overrides map[string]string) []string {
	var env []string
	if e.WarningPolicy != "" {
		env = append(env, WarningsVar+"="+e.WarningPolicy)
	}
	if e.SuppressProgress {
		env = append(env, ProgressBarVar+"=off")
	}
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

// Lookup returns the snapshot value for a variable name. Used for values
// whose variable name is chosen by configuration, e.g. the reporter token.
func (e *Environment) Lookup(name string) string {
	return e.vars[name]
}

// Vars returns a copy of the full snapshot. The copy keeps callers from
// mutating the captured state.
func (e *Environment) Vars() map[string]string {
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}
