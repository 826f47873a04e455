package config

import (
	"errors"
	"fmt"
)

// Validate checks the structural integrity of a loaded pipeline model.
// Startup fails on the first violation; there is no partial execution of a
// malformed pipeline.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return errors.New("pipeline name must not be empty")
	}
	if p.Matrix == nil && len(p.ExtraJobs) == 0 {
		return fmt.Errorf("pipeline %q declares neither a matrix nor any job blocks", p.Name)
	}
	if p.Matrix != nil {
		if len(p.Matrix.OS) == 0 {
			return fmt.Errorf("pipeline %q: matrix os list must not be empty", p.Name)
		}
		if len(p.Matrix.Interpreters) == 0 {
			return fmt.Errorf("pipeline %q: matrix interpreter list must not be empty", p.Name)
		}
	}
	for _, j := range p.ExtraJobs {
		if j.OS == "" || j.Interpreter == "" {
			return fmt.Errorf("pipeline %q: job %q must set os and interpreter", p.Name, j.Name)
		}
	}
	if p.Install != nil {
		for _, s := range p.Install.Sources {
			if s.URL == "" {
				return fmt.Errorf("pipeline %q: source %q has no url", p.Name, s.Package)
			}
		}
		for _, d := range p.Install.Drops {
			if d.Package == "" {
				return fmt.Errorf("pipeline %q: drop rule with empty package name", p.Name)
			}
		}
	}
	if p.Test != nil && p.Test.Runner == "" && len(p.Test.Args) > 0 {
		return fmt.Errorf("pipeline %q: test args given without a runner", p.Name)
	}
	if p.Report != nil && p.Report.ResultsURL != "" && p.Report.TokenEnv == "" {
		return fmt.Errorf("pipeline %q: results_url requires token_env", p.Name)
	}
	return nil
}
