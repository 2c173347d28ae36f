package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chictools/chic/internal/export"
)

func newExportCmd() *cobra.Command {
	var cfg export.Config

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a result store to per-viewpoint text files",
		Long: `export writes the data stored in the intermediate result files to
tab-separated text files, one file per reference point (and per
classification bucket for differential results).`,
		Example: `  chic export --file aggregated.duckdb --fileType aggregated --outFolder aggregatedText
  chic export --file differentialResults.duckdb --fileType differential`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Threads = viper.GetInt("threads")
			e := export.New(cfg)
			e.SetLogger(logger)
			if err := e.Run(cmd.Context()); err != nil {
				logger.Error("export failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.File, "file", "f", "",
		"result store to export (required)")
	cmd.Flags().StringVar(&cfg.FileType, "fileType", export.TypeInteraction,
		"one of interaction, target, aggregated, differential")
	cmd.Flags().StringVarP(&cfg.OutFolder, "outFolder", "o", "exported_data",
		"folder receiving the text files")
	cmd.Flags().IntVar(&cfg.DecimalPlaces, "decimalPlaces", 12,
		"decimal places for floating point output values")
	cmd.MarkFlagRequired("file")

	return cmd
}
