package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ahmetbarut/ratlog-install/pkg/config"
	"github.com/ahmetbarut/ratlog-install/pkg/httpclient"
	"github.com/ahmetbarut/ratlog-install/pkg/install"
	"github.com/ahmetbarut/ratlog-install/pkg/orchestrator"
	"github.com/ahmetbarut/ratlog-install/pkg/platform"
	"github.com/ahmetbarut/ratlog-install/pkg/release"
)

const binName = "ratlog"

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	// Flags override config file and environment.
	if flagRepo != "" {
		cfg.Repo = flagRepo
	}
	if flagBranch != "" {
		cfg.Branch = flagBranch
	}
	if flagBinDir != "" {
		cfg.BinDir = flagBinDir
	}

	if flagDryRun {
		return dryRun(cmd, cfg)
	}

	orch := orchestrator.New(orchestrator.Config{
		Repo:        cfg.Repo,
		Branch:      cfg.Branch,
		BinDir:      cfg.BinDir,
		BinName:     binName,
		APIBaseURL:  cfg.APIBaseURL,
		ForceSource: flagForceSource,
	})

	final, attempts := orch.Run(ctx)
	if final.Ok() {
		log.WithField("path", final.Path).Infof("%s installed via %s", binName, attempts[len(attempts)-1].Strategy)
		advisePath(filepath.Dir(final.Path))
		return nil
	}

	// Enumerate every strategy attempted and its reason, so the user can
	// address the most actionable one.
	log.Error("installation failed")
	for _, a := range attempts {
		log.Errorf("  %s: %s", a.Strategy, a.Outcome)
	}
	return errors.Errorf("could not install %s", binName)
}

// dryRun resolves the platform and release asset and reports what a real run
// would do, without touching the filesystem.
func dryRun(cmd *cobra.Command, cfg config.Config) error {
	targetDir, err := install.ResolveInstallDir(cfg.BinDir)
	if err != nil {
		return err
	}

	p := platform.Detect()
	if !p.Supported() || flagForceSource {
		fmt.Fprintf(cmd.OutOrStdout(), "Would build %s from source (%s, branch %s) and install to %s\n",
			binName, cfg.Repo, cfg.Branch, targetDir)
		return nil
	}

	resolver := &release.Resolver{
		APIBaseURL: cfg.APIBaseURL,
		Repo:       cfg.Repo,
		Client:     httpclient.New(orchestrator.DefaultMetadataTimeout),
	}
	asset, err := resolver.ResolveAsset(cmd.Context(), p)
	switch {
	case errors.Is(err, release.ErrNoAsset):
		fmt.Fprintf(cmd.OutOrStdout(), "No prebuilt binary for %s; would build from source and install to %s\n",
			p, targetDir)
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Would download %s and install to %s\n", asset.Name, filepath.Join(targetDir, binName))
	return nil
}

// advisePath warns when the install directory is not on PATH. Advice only;
// nothing is modified.
func advisePath(dir string) {
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if p == dir {
			return
		}
	}
	log.Warnf("%s is not on your PATH; add it, e.g.:", dir)
	log.Warnf(`  export PATH="%s:$PATH"`, strings.TrimRight(dir, string(os.PathSeparator)))
}
