package config

import "context"

// Loader abstracts the configuration format from the application core.
type Loader interface {
	// Load reads every pipeline definition reachable from the given paths
	// and returns the translated models.
	Load(ctx context.Context, paths ...string) ([]*Pipeline, error)
}

// Pipeline is one project's CI contract: a job matrix plus the fixed
// four-stage configuration.
type Pipeline struct {
	Name       string
	ProjectDir string

	Matrix    *Matrix
	ExtraJobs []*JobSpec
	Bootstrap *BootstrapSpec
	Install   *InstallSpec
	Test      *TestSpec
	Report    *ReportSpec
}

// Matrix enumerates the operating system, interpreter version and
// architecture axes. Excludes remove individual cells from the cross
// product before job descriptors are built.
type Matrix struct {
	OS           []string
	Interpreters []string
	Arch         []string
	Excludes     []*Exclude
}

// Exclude removes matching cells from the matrix. An empty field is a
// wildcard on that axis.
type Exclude struct {
	OS          string
	Interpreter string
	Arch        string
}

// Matches reports whether the given cell is removed by this rule.
func (e *Exclude) Matches(os, interpreter, arch string) bool {
	if e.OS != "" && e.OS != os {
		return false
	}
	if e.Interpreter != "" && e.Interpreter != interpreter {
		return false
	}
	if e.Arch != "" && e.Arch != arch {
		return false
	}
	return true
}

// JobSpec is an explicit job declared outside the matrix.
type JobSpec struct {
	Name        string
	OS          string
	Interpreter string
	Arch        string
	ExtraArgs   []string
	Env         map[string]string
}

// BootstrapSpec configures native provisioning: system packages installed
// through the platform's package manager, and an optional prebuilt-wheel
// index for a native tensor dependency.
type BootstrapSpec struct {
	Packages     []string
	WheelIndex   string
	WheelPackage string
}

// InstallSpec configures dependency installation.
type InstallSpec struct {
	Requirements string
	Editable     bool
	Sources      []*SourceSpec
	Drops        []*DropRule
}

// SourceSpec pins one package to a source-control URL instead of an index.
type SourceSpec struct {
	Package string
	URL     string
}

// DropRule removes a dependency row from the requirements file for jobs
// matching the listed platforms. Empty lists are wildcards.
type DropRule struct {
	Package      string
	OS           []string
	Interpreters []string
}

// Applies reports whether the rule removes its package for the given cell.
func (d *DropRule) Applies(os, interpreter string) bool {
	if len(d.OS) > 0 && !contains(d.OS, os) {
		return false
	}
	if len(d.Interpreters) > 0 && !contains(d.Interpreters, interpreter) {
		return false
	}
	return true
}

// TestSpec configures the test-runner invocation.
type TestSpec struct {
	Runner         string
	Args           []string
	Parallel       bool
	CoverageTarget string
	JUnitPath      string
}

// ReportSpec configures the post-run uploads.
type ReportSpec struct {
	CoverageURL string
	ResultsURL  string
	TokenEnv    string
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
