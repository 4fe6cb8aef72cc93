package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramonehamilton/wildcard-tally/internal/config"
	"github.com/ramonehamilton/wildcard-tally/internal/logging"
	"github.com/ramonehamilton/wildcard-tally/internal/version"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wildcard-tally",
	Short: "Count the wildcards needed to build a Moxfield deck portfolio",
	Long: `wildcard-tally reads every public deck of a Moxfield profile, counts each
deck's cards by rarity and works out how many wildcards of each rarity are needed
to own every Standard and Historic Brawl deck at once.

Run without a subcommand to perform a tally.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTally,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.wildcard-tally/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	registerRunFlags(rootCmd)
	registerRunFlags(runCmd)

	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfigPath returns the --config value or the per-user default.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// initLogger builds the process logger from the config, forcing debug output
// when --verbose is set.
func initLogger(cfg config.LogConfig) error {
	opts := logging.Options{Level: cfg.Level, Development: cfg.Development}
	if verbose {
		opts.Level = "debug"
		opts.Development = true
	}

	var err error
	logger, err = logging.New(opts)
	return err
}
