package source

import (
	"os"
	"path/filepath"
	"regexp"
)

// packageNameRe matches the package name line of a Cargo manifest, e.g.
//
//	name = "ratlog"
var packageNameRe = regexp.MustCompile(`(?m)^\s*name\s*=\s*"([^"]+)"`)

// IsTree reports whether dir looks like a buildable source tree for the
// given crate: a Cargo.toml whose first package name matches. A local tree
// implies development intent, so the orchestrator builds it directly instead
// of consulting releases.
func IsTree(dir, crate string) bool {
	data, err := os.ReadFile(filepath.Join(dir, "Cargo.toml"))
	if err != nil {
		return false
	}
	m := packageNameRe.FindSubmatch(data)
	return m != nil && string(m[1]) == crate
}
