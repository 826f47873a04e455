// Package schema defines the HCL-facing structures for pipeline files.
// These structs carry hcl tags only; the loader translates them into the
// format-agnostic config model before anything else consumes them.
package schema

// Root represents the top-level structure of a pipeline file.
type Root struct {
	Pipelines []*Pipeline `hcl:"pipeline,block"`
}

// Pipeline represents a `pipeline` block: one project's CI contract.
type Pipeline struct {
	Name       string `hcl:"name,label"`
	ProjectDir string `hcl:"project_dir,optional"`

	Matrix    *Matrix    `hcl:"matrix,block"`
	Jobs      []*Job     `hcl:"job,block"`
	Bootstrap *Bootstrap `hcl:"bootstrap,block"`
	Install   *Install   `hcl:"install,block"`
	Test      *Test      `hcl:"test,block"`
	Report    *Report    `hcl:"report,block"`
}

// Matrix represents the `matrix` block: the cross product of operating
// systems, interpreter versions and architectures, minus exclusions.
type Matrix struct {
	OS           []string   `hcl:"os"`
	Interpreters []string   `hcl:"interpreter"`
	Arch         []string   `hcl:"arch,optional"`
	Excludes     []*Exclude `hcl:"exclude,block"`
}

// Exclude represents one `exclude` block inside a matrix. An empty field
// matches any value on that axis.
type Exclude struct {
	OS          string `hcl:"os,optional"`
	Interpreter string `hcl:"interpreter,optional"`
	Arch        string `hcl:"arch,optional"`
}

// Job represents an explicit `job` block: a one-off cell outside the matrix
// with its own overrides.
type Job struct {
	Name        string            `hcl:"name,label"`
	OS          string            `hcl:"os"`
	Interpreter string            `hcl:"interpreter"`
	Arch        string            `hcl:"arch,optional"`
	ExtraArgs   []string          `hcl:"extra_args,optional"`
	Env         map[string]string `hcl:"env,optional"`
}

// Bootstrap represents the `bootstrap` block: native provisioning performed
// before any project dependency is installed.
type Bootstrap struct {
	Packages     []string `hcl:"packages,optional"`
	WheelIndex   string   `hcl:"wheel_index,optional"`
	WheelPackage string   `hcl:"wheel_package,optional"`
}

// Install represents the `install` block.
type Install struct {
	Requirements string    `hcl:"requirements,optional"`
	Editable     bool      `hcl:"editable,optional"`
	Sources      []*Source `hcl:"source,block"`
	Drops        []*Drop   `hcl:"drop,block"`
}

// Source represents a `source` block: one package installed from a
// source-control URL instead of a package index.
type Source struct {
	Package string `hcl:"package,label"`
	URL     string `hcl:"url"`
}

// Drop represents a `drop` block: a dependency row removed from the
// requirements file when the job matches the listed platform combinations.
type Drop struct {
	Package      string   `hcl:"package,label"`
	OS           []string `hcl:"os,optional"`
	Interpreters []string `hcl:"interpreter,optional"`
}

// Test represents the `test` block.
type Test struct {
	Runner         string   `hcl:"runner,optional"`
	Args           []string `hcl:"args,optional"`
	Parallel       bool     `hcl:"parallel,optional"`
	CoverageTarget string   `hcl:"coverage_target,optional"`
	JUnitPath      string   `hcl:"junit_path,optional"`
}

// Report represents the `report` block.
type Report struct {
	CoverageURL string `hcl:"coverage_url,optional"`
	ResultsURL  string `hcl:"results_url,optional"`
	TokenEnv    string `hcl:"token_env,optional"`
}
