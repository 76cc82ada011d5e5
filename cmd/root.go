package cmd

import (
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
	quiet      bool

	// Install flags
	flagBinDir      string
	flagRepo        string
	flagBranch      string
	flagForceSource bool
	flagDryRun      bool
)

// RootCmd is the ratlog-install command. Installing is the whole job, so the
// root command does it; there are no subcommands beyond the built-ins.
var RootCmd = &cobra.Command{
	Use:   "ratlog-install",
	Short: "Install the ratlog terminal log viewer",
	Long: `ratlog-install places a working ratlog executable on your search path.

It prefers a prebuilt release binary for your platform, builds your local
source checkout when you run it inside one, and falls back to cloning the
upstream repository and building from source when no binary is available.`,
	Example: `  # Install the latest release (or build from source if none fits)
  ratlog-install

  # Install into a custom directory
  ratlog-install --bin-dir /usr/local/bin

  # Force a from-source build
  ratlog-install --source`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetHandler(cli.Default)
		if verbose {
			log.SetLevel(log.DebugLevel)
			log.Debugf("Verbose logging enabled")
		} else if quiet {
			log.SetLevel(log.ErrorLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
	RunE:          runInstall,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: ~/.config/ratlog-install.yml)")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Increase log verbosity")
	RootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress progress output")

	RootCmd.Flags().StringVarP(&flagBinDir, "bin-dir", "b", "", "Installation directory (default: $RATLOG_BIN_DIR or ~/.local/bin)")
	RootCmd.Flags().StringVar(&flagRepo, "repo", "", "GitHub repository to install from (owner/name)")
	RootCmd.Flags().StringVar(&flagBranch, "branch", "", "Branch to clone for source builds")
	RootCmd.Flags().BoolVarP(&flagForceSource, "source", "s", false, "Skip prebuilt binaries and build from source")
	RootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "Resolve platform and release asset without installing")
}
