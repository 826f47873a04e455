package install

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/loopylangur/PsyNeuLink/internal/config"
)

// RewriteRequirements removes dependency rows matched by a drop rule that
// applies to the given cell, writing the file back in place. The edit must
// run before the install command reads the file, and it is idempotent: a
// second application is a no-op.
func RewriteRequirements(fsys afero.Fs, path string, rules []*config.DropRule, osName, interpreter string) (dropped []string, err error) {
	active := activeRules(rules, osName, interpreter)
	if len(active) == 0 {
		return nil, nil
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements file %q: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if pkg, matched := matchLine(line, active); matched {
			dropped = append(dropped, pkg)
			continue
		}
		kept = append(kept, line)
	}
	if len(dropped) == 0 {
		return nil, nil
	}

	out := strings.Join(kept, "\n")
	if err := afero.WriteFile(fsys, path, []byte(out), 0o644); err != nil {
		return nil, fmt.Errorf("failed to rewrite requirements file %q: %w", path, err)
	}
	return dropped, nil
}

func activeRules(rules []*config.DropRule, osName, interpreter string) []*config.DropRule {
	var active []*config.DropRule
	for _, r := range rules {
		if r.Applies(osName, interpreter) {
			active = append(active, r)
		}
	}
	return active
}

// matchLine reports whether the requirements row names a dropped package.
// A row matches on the bare package name followed by nothing or a version
// operator, so "torchvision" does not match a rule for "torch".
func matchLine(line string, rules []*config.DropRule) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	for _, r := range rules {
		if !strings.HasPrefix(trimmed, r.Package) {
			continue
		}
		rest := trimmed[len(r.Package):]
		if rest == "" || strings.IndexAny(rest, " <>=!~;[") == 0 {
			return r.Package, true
		}
	}
	return "", false
}
