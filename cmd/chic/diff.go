package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chictools/chic/internal/difftest"
)

func newDiffCmd() *cobra.Command {
	var cfg difftest.Config

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Test aggregated sample pairs for differential interactions",
		Long: `diff tests whether two samples show a different interaction count per
location. H0 assumes the interactions are not different, so the
differential interactions are all locations where H0 was rejected.
Accepted, rejected and full result sets are stored per gene.

The input is the aggregated store created by the aggregate command.`,
		Example: `  chic diff --aggregatedFile aggregated.duckdb --alpha 0.05
  chic diff --aggregatedFile aggregated.duckdb --alpha 0.01 --statisticTest chi2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.StatisticTest == "" {
				cfg.StatisticTest = viper.GetString("statisticTest")
			}
			if cfg.StatisticTest != difftest.TestFisher && cfg.StatisticTest != difftest.TestChiSquare {
				return fmt.Errorf("invalid --statisticTest %q: must be %s or %s",
					cfg.StatisticTest, difftest.TestFisher, difftest.TestChiSquare)
			}
			if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
				return fmt.Errorf("invalid --alpha %v: must be in (0, 1)", cfg.Alpha)
			}
			cfg.Threads = viper.GetInt("threads")
			p := difftest.New(cfg)
			p.SetLogger(logger)
			if err := p.Run(cmd.Context()); err != nil {
				logger.Error("differential test failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.AggregatedFile, "aggregatedFile", "",
		"aggregated store to test (required)")
	cmd.Flags().Float64VarP(&cfg.Alpha, "alpha", "a", 0,
		"significance level for accepting samples (required)")
	cmd.Flags().StringVarP(&cfg.OutFileName, "outFileName", "o", "differentialResults.duckdb",
		"file name for the differential result store")
	cmd.Flags().StringVar(&cfg.StatisticTest, "statisticTest", "",
		"test procedure: fisher or chi2")
	cmd.MarkFlagRequired("aggregatedFile")
	cmd.MarkFlagRequired("alpha")

	return cmd
}
