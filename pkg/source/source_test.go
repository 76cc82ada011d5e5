package source

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetbarut/ratlog-install/pkg/outcome"
)

func TestIsTree(t *testing.T) {
	writeManifest := func(t *testing.T, content string) string {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(content), 0644))
		return dir
	}

	t.Run("matching crate", func(t *testing.T) {
		dir := writeManifest(t, "[package]\nname = \"ratlog\"\nversion = \"0.3.1\"\n")
		assert.True(t, IsTree(dir, "ratlog"))
	})

	t.Run("different crate", func(t *testing.T) {
		dir := writeManifest(t, "[package]\nname = \"some-other-tool\"\n")
		assert.False(t, IsTree(dir, "ratlog"))
	})

	t.Run("no manifest", func(t *testing.T) {
		assert.False(t, IsTree(t.TempDir(), "ratlog"))
	})

	t.Run("indented name line", func(t *testing.T) {
		dir := writeManifest(t, "[package]\n  name = \"ratlog\"\n")
		assert.True(t, IsTree(dir, "ratlog"))
	})
}

// writeScript drops an executable shell script for use as a fake toolchain.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake toolchain scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestBuilderMissingToolchainIsFatal(t *testing.T) {
	b := &Builder{Cargo: "definitely-not-a-real-cargo", BinName: "ratlog"}
	out := b.Build(context.Background(), t.TempDir(), t.TempDir())

	assert.Equal(t, outcome.KindFatal, out.Kind)
	assert.ErrorIs(t, out.Err, ErrCargoNotFound)
	assert.Contains(t, out.Err.Error(), "rustup.rs")
}

func TestBuilderInstallsBuiltBinary(t *testing.T) {
	cargo := writeScript(t, "cargo", `
mkdir -p target/release
printf 'built ratlog binary' > target/release/ratlog
`)

	tree := t.TempDir()
	targetDir := t.TempDir()
	b := &Builder{Cargo: cargo, BinName: "ratlog"}
	out := b.Build(context.Background(), tree, targetDir)

	require.True(t, out.Ok(), "build failed: %v", out.Err)
	assert.Equal(t, filepath.Join(targetDir, "ratlog"), out.Path)

	content, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, "built ratlog binary", string(content))

	info, err := os.Stat(out.Path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0111)
}

func TestBuilderCompileErrorIsFatal(t *testing.T) {
	cargo := writeScript(t, "cargo", `
echo 'error[E0untested]: compilation failed' >&2
exit 101
`)

	b := &Builder{Cargo: cargo, BinName: "ratlog"}
	out := b.Build(context.Background(), t.TempDir(), t.TempDir())

	assert.Equal(t, outcome.KindFatal, out.Kind)
	assert.Contains(t, out.Err.Error(), "compilation failed")
}

func TestBuilderInterrupted(t *testing.T) {
	cargo := writeScript(t, "cargo", "sleep 10\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	b := &Builder{Cargo: cargo, BinName: "ratlog"}
	out := b.Build(ctx, t.TempDir(), t.TempDir())

	assert.Equal(t, outcome.KindTransient, out.Kind)
	assert.Contains(t, out.Err.Error(), "interrupted")
}

func TestClonerMissingGitIsFatal(t *testing.T) {
	c := &Cloner{Git: "definitely-not-a-real-git", RepoURL: "https://example.com/r.git", Branch: "main"}
	_, _, err := c.Clone(context.Background())
	assert.ErrorIs(t, err, ErrGitNotFound)
}

func TestClonerShallowSingleBranch(t *testing.T) {
	// The fake git records its arguments and populates the clone directory
	// (the last argument).
	git := writeScript(t, "git", `
echo "$@" > "$FAKE_GIT_ARGS"
dir=$(eval echo \${$#})
mkdir -p "$dir"
printf '[package]\nname = "ratlog"\n' > "$dir/Cargo.toml"
`)
	argsFile := filepath.Join(t.TempDir(), "args")
	t.Setenv("FAKE_GIT_ARGS", argsFile)

	c := &Cloner{Git: git, RepoURL: "https://github.com/ahmetbarut/ratlog.git", Branch: "main"}
	dir, cleanup, err := c.Clone(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cleanup)

	assert.FileExists(t, filepath.Join(dir, "Cargo.toml"))

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "clone --depth 1 --branch main --single-branch https://github.com/ahmetbarut/ratlog.git")

	cleanup()
	assert.NoDirExists(t, dir)
}

func TestClonerCloneFailure(t *testing.T) {
	git := writeScript(t, "git", `
echo "fatal: repository not found" >&2
exit 128
`)

	c := &Cloner{Git: git, RepoURL: "https://example.com/missing.git", Branch: "main"}
	dir, _, err := c.Clone(context.Background())
	require.Error(t, err)
	assert.Empty(t, dir)
	assert.Contains(t, err.Error(), "git clone failed")
}
