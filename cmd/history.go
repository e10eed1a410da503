package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/catalog"
	"github.com/spigell/part-recommender/internal/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the most recent recommendation runs",
	Run: func(cmd *cobra.Command, _ []string) {
		history(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "how many runs to print")
}

func history(cmd *cobra.Command) {
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

	limit, _ := cmd.Flags().GetInt("limit")
	queries, err := store.RecentQueries(context.Background(), limit)
	if err != nil {
		logger.Fatal("reading query history", zap.Error(err))
	}

	logger.Info("query history", zap.Int("count", len(queries)))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(queries); err != nil {
		logger.Fatal("printing query history", zap.Error(err))
	}
}
