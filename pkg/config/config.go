package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults for the upstream project this tool installs.
const (
	DefaultRepo   = "ahmetbarut/ratlog"
	DefaultBranch = "main"
)

// Environment variables overriding the config file.
const (
	EnvRepo        = "RATLOG_REPO"
	EnvBranch      = "RATLOG_BRANCH"
	EnvBinDir      = "RATLOG_BIN_DIR"
	EnvReleasesAPI = "RATLOG_RELEASES_API"
)

// Config holds the user-tunable settings read from the optional config file,
// overlaid by environment variables. Flags override both; precedence is
// resolved by the command layer.
type Config struct {
	// Repo is the "owner/name" GitHub repository to install from.
	Repo string `yaml:"repo"`
	// Branch is the branch cloned for source builds.
	Branch string `yaml:"branch"`
	// BinDir is the install directory. Empty means the per-user default.
	BinDir string `yaml:"bin_dir"`
	// APIBaseURL overrides the release metadata endpoint. Empty means the
	// public GitHub API.
	APIBaseURL string `yaml:"api_base_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Repo:   DefaultRepo,
		Branch: DefaultBranch,
	}
}

// DefaultPath returns the default config file location, or "" when no home
// directory can be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ratlog-install.yml")
}

// Load reads the config file at path (DefaultPath when empty) and overlays
// environment variable overrides. A missing file is not an error; a
// malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, errors.Wrapf(err, "failed to parse config file: %s", path)
			}
		case os.IsNotExist(err):
			// No config file, defaults apply.
		default:
			return Config{}, errors.Wrapf(err, "failed to read config file: %s", path)
		}
	}

	cfg.applyEnv()

	if cfg.Repo == "" {
		cfg.Repo = DefaultRepo
	}
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRepo); v != "" {
		c.Repo = v
	}
	if v := os.Getenv(EnvBranch); v != "" {
		c.Branch = v
	}
	if v := os.Getenv(EnvBinDir); v != "" {
		c.BinDir = v
	}
	if v := os.Getenv(EnvReleasesAPI); v != "" {
		c.APIBaseURL = v
	}
}
