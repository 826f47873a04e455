// Package platform holds the per-operating-system command tables used by the
// bootstrap and install stages: package-manager invocations and interpreter
// naming differ across the three supported platforms.
package platform

import (
	"fmt"

	"github.com/loopylangur/PsyNeuLink/internal/execcmd"
)

// Platform describes one supported operating system branch.
type Platform struct {
	// Name is the canonical matrix value: "linux", "macos" or "windows".
	Name string

	// packageManager and installArgs form the native-package install
	// command; packages are appended.
	packageManager string
	installArgs    []string

	// python is the interpreter launcher binary name.
	python string
}

var platforms = map[string]*Platform{
	"linux": {
		Name:           "linux",
		packageManager: "sudo",
		installArgs:    []string{"apt-get", "install", "-y"},
		python:         "python3",
	},
	"macos": {
		Name:           "macos",
		packageManager: "brew",
		installArgs:    []string{"install"},
		python:         "python3",
	},
	"windows": {
		Name:           "windows",
		packageManager: "choco",
		installArgs:    []string{"install", "-y"},
		python:         "python",
	},
}

// For returns the platform branch for a matrix os value.
func For(name string) (*Platform, error) {
	p, ok := platforms[name]
	if !ok {
		return nil, fmt.Errorf("unsupported operating system %q", name)
	}
	return p, nil
}

// InstallNativePackages builds the package-manager command installing the
// given native packages.
func (p *Platform) InstallNativePackages(packages []string) execcmd.Command {
	args := append([]string{}, p.installArgs...)
	args = append(args, packages...)
	return execcmd.Command{Name: p.packageManager, Args: args}
}

// Python returns the interpreter launcher for this platform.
func (p *Platform) Python() string {
	return p.python
}

// PipCommand builds a `python -m pip` invocation with the given arguments.
func (p *Platform) PipCommand(args ...string) execcmd.Command {
	full := append([]string{"-m", "pip"}, args...)
	return execcmd.Command{Name: p.python, Args: full}
}
