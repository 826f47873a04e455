package hclconf

import (
	"github.com/loopylangur/PsyNeuLink/internal/config"
	"github.com/loopylangur/PsyNeuLink/internal/schema"
)

// translatePipeline converts the HCL-specific pipeline schema into the
// agnostic model.
func translatePipeline(s *schema.Pipeline) *config.Pipeline {
	p := &config.Pipeline{
		Name:       s.Name,
		ProjectDir: s.ProjectDir,
	}
	if p.ProjectDir == "" {
		p.ProjectDir = "."
	}
	if s.Matrix != nil {
		p.Matrix = translateMatrix(s.Matrix)
	}
	for _, j := range s.Jobs {
		p.ExtraJobs = append(p.ExtraJobs, &config.JobSpec{
			Name:        j.Name,
			OS:          j.OS,
			Interpreter: j.Interpreter,
			Arch:        j.Arch,
			ExtraArgs:   j.ExtraArgs,
			Env:         j.Env,
		})
	}
	if s.Bootstrap != nil {
		p.Bootstrap = &config.BootstrapSpec{
			Packages:     s.Bootstrap.Packages,
			WheelIndex:   s.Bootstrap.WheelIndex,
			WheelPackage: s.Bootstrap.WheelPackage,
		}
	}
	if s.Install != nil {
		p.Install = translateInstall(s.Install)
	}
	if s.Test != nil {
		p.Test = &config.TestSpec{
			Runner:         s.Test.Runner,
			Args:           s.Test.Args,
			Parallel:       s.Test.Parallel,
			CoverageTarget: s.Test.CoverageTarget,
			JUnitPath:      s.Test.JUnitPath,
		}
	}
	if s.Report != nil {
		p.Report = &config.ReportSpec{
			CoverageURL: s.Report.CoverageURL,
			ResultsURL:  s.Report.ResultsURL,
			TokenEnv:    s.Report.TokenEnv,
		}
	}
	return p
}

func translateMatrix(s *schema.Matrix) *config.Matrix {
	m := &config.Matrix{
		OS:           s.OS,
		Interpreters: s.Interpreters,
		Arch:         s.Arch,
	}
	if len(m.Arch) == 0 {
		m.Arch = []string{"x64"}
	}
	for _, e := range s.Excludes {
		m.Excludes = append(m.Excludes, &config.Exclude{
			OS:          e.OS,
			Interpreter: e.Interpreter,
			Arch:        e.Arch,
		})
	}
	return m
}

func translateInstall(s *schema.Install) *config.InstallSpec {
	in := &config.InstallSpec{
		Requirements: s.Requirements,
		Editable:     s.Editable,
	}
	for _, src := range s.Sources {
		in.Sources = append(in.Sources, &config.SourceSpec{
			Package: src.Package,
			URL:     src.URL,
		})
	}
	for _, d := range s.Drops {
		in.Drops = append(in.Drops, &config.DropRule{
			Package:      d.Package,
			OS:           d.OS,
			Interpreters: d.Interpreters,
		})
	}
	return in
}
