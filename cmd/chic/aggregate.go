package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chictools/chic/internal/aggregate"
)

func newAggregateCmd() *cobra.Command {
	var cfg aggregate.Config

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate viewpoint statistics against target regions",
		Long: `aggregate is the preprocessing step for the differential test. It maps
the scored interactions of every viewpoint onto the target regions,
merges records that collapse onto the same target and stores one
aggregated leaf per (matrix combination, sample, chromosome, gene).

The target file is either the target store created by the significant
interaction stage or a regular three-column region file applied to all
viewpoints.`,
		Example: `  chic aggregate --interactionFile viewpoints.duckdb --targetFile targets.duckdb
  chic aggregate --interactionFile viewpoints.duckdb --targetFile targets.bed -o aggregated.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Threads = viper.GetInt("threads")
			p := aggregate.New(cfg)
			p.SetLogger(logger)
			if err := p.Run(cmd.Context()); err != nil {
				logger.Error("aggregation failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.InteractionFile, "interactionFile", "",
		"interaction store to aggregate (required)")
	cmd.Flags().StringVar(&cfg.TargetFile, "targetFile", "",
		"target store or three-column region file (required)")
	cmd.Flags().StringVarP(&cfg.OutFileName, "outFileName", "o", "aggregate_target.duckdb",
		"file name for the aggregated result store")
	cmd.MarkFlagRequired("interactionFile")
	cmd.MarkFlagRequired("targetFile")

	return cmd
}
