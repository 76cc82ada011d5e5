package source

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/ahmetbarut/ratlog-install/pkg/install"
	"github.com/ahmetbarut/ratlog-install/pkg/outcome"
)

// ErrCargoNotFound means no Rust toolchain is discoverable. There is no
// fallback below building from source, so this ends the run.
var ErrCargoNotFound = errors.New("cargo not found: install the Rust toolchain from https://rustup.rs and retry")

// Builder compiles an executable from a source tree and installs it.
type Builder struct {
	// Cargo is the build tool to invoke, "cargo" unless overridden.
	Cargo string
	// BinName is the executable the build is expected to produce under
	// target/release.
	BinName string
}

// Build runs a release-mode build against treeDir and installs the produced
// executable into targetDir. A missing toolchain and a failing compile are
// both fatal: neither can be fixed by another installation strategy, and a
// compile error indicates a broken tree that must not be retried blindly.
func (b *Builder) Build(ctx context.Context, treeDir, targetDir string) outcome.Outcome {
	cargo := b.Cargo
	if cargo == "" {
		cargo = "cargo"
	}
	cargoPath, err := exec.LookPath(cargo)
	if err != nil {
		return outcome.Fatal(ErrCargoNotFound)
	}

	log.WithField("dir", treeDir).Info("building from source (cargo build --release)")
	cmd := exec.CommandContext(ctx, cargoPath, "build", "--release")
	cmd.Dir = treeDir
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return outcome.Transient(errors.Wrap(ctx.Err(), "build interrupted"))
		}
		return outcome.Fatal(errors.Wrapf(err, "cargo build failed:\n%s", tail(string(out), 20)))
	}

	binName := b.BinName
	if runtime.GOOS == "windows" && !strings.HasSuffix(binName, ".exe") {
		binName += ".exe"
	}
	built := filepath.Join(treeDir, "target", "release", binName)

	installed, err := install.InstallBinary(built, targetDir, b.BinName)
	if err != nil {
		return outcome.Fatal(errors.Wrap(err, "build succeeded but install failed"))
	}
	return outcome.Success(installed)
}

// tail returns the last n lines of s, enough context to diagnose a compile
// failure without dumping the whole build log.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
