package cmd

import (
	"context"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/catalog"
	"github.com/spigell/part-recommender/internal/logger"
)

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Normalize datasheet exports and store them in the catalog",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		importFiles(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("vendor", "", "vendor for rows without one (default is catalog.vendor or Tai-Tech)")
	importCmd.Flags().String("category", "", "category for rows without one (default is detected from the application)")

	viper.BindPFlag("catalog.vendor", importCmd.Flags().Lookup("vendor"))
}

func importFiles(cmd *cobra.Command, files []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logOutputs()...)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store, err := catalog.NewStore(config.Catalog.DB)
	if err != nil {
		logger.Fatal("opening the catalog", zap.Error(err), zap.String("path", config.Catalog.DB))
	}
	defer store.Close()

	category, _ := cmd.Flags().GetString("category")

	for _, file := range files {
		rows, err := catalog.ReadRows(file)
		if err != nil {
			logger.Fatal("reading rows", zap.Error(err), zap.String("file", file))
		}

		report, err := store.Import(ctx, rows, catalog.RowDefaults{
			Vendor:         config.Catalog.Vendor,
			Category:       category,
			SourceFilename: filepath.Base(file),
		}, logger.With(zap.String("file", file)))
		if err != nil {
			logger.Fatal("importing rows", zap.Error(err), zap.String("file", file))
		}

		logger.Info("file imported",
			zap.String("file", file),
			zap.Int("saved", report.Saved),
			zap.Int("skipped", report.Skipped),
			zap.Int("incomplete", len(report.Incomplete)),
		)
	}

	total, err := store.Count(ctx)
	if err != nil {
		logger.Fatal("counting catalog records", zap.Error(err))
	}
	logger.Info("catalog updated", zap.String("path", config.Catalog.DB), zap.Int("records", total))
}
