package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratlog-install.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvRepo, "")
	t.Setenv(EnvBranch, "")
	t.Setenv(EnvBinDir, "")
	t.Setenv(EnvReleasesAPI, "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.NoError(t, err)

	want := Config{Repo: "ahmetbarut/ratlog", Branch: "main"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
repo: someone/ratlog-fork
branch: develop
bin_dir: /opt/tools/bin
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Config{Repo: "someone/ratlog-fork", Branch: "develop", BinDir: "/opt/tools/bin"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "bin_dir: /opt/bin\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultRepo, cfg.Repo)
	assert.Equal(t, DefaultBranch, cfg.Branch)
	assert.Equal(t, "/opt/bin", cfg.BinDir)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
repo: from/file
branch: file-branch
bin_dir: /file/bin
`)
	t.Setenv(EnvRepo, "from/env")
	t.Setenv(EnvBranch, "")
	t.Setenv(EnvBinDir, "/env/bin")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from/env", cfg.Repo)
	assert.Equal(t, "file-branch", cfg.Branch, "unset env vars must not override the file")
	assert.Equal(t, "/env/bin", cfg.BinDir)
}

func TestLoadMalformedFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "repo: [not a scalar\n")
	_, err := Load(path)
	assert.Error(t, err)
}
