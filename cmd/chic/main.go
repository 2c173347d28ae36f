// Package main provides the chic command-line tool for Capture Hi-C
// differential interaction analysis.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
)

var logger = zap.NewNop()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "chic",
		Short:   "Capture Hi-C differential chromatin interaction analysis",
		Version: version + " (" + commit + ")",
		Long: `chic aggregates per-viewpoint Capture Hi-C interaction statistics
against target regions and tests sample pairs for differential
interactions using Fisher's exact test or the chi-squared contingency
test. Results are stored in hierarchical result files which can be
exported to per-viewpoint text files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().IntP("threads", "t", 4, "number of worker threads")
	viper.BindPFlag("threads", cmd.PersistentFlags().Lookup("threads"))

	cmd.AddCommand(newAggregateCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig loads defaults from ~/.chic.yaml when present. Flags given
// on the command line take precedence.
func initConfig() {
	viper.SetDefault("threads", 4)
	viper.SetDefault("statisticTest", "fisher")

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".chic")
	viper.SetConfigType("yaml")
	// A missing config file is fine, defaults apply.
	_ = viper.ReadInConfig()
}
