package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/ai"
	"github.com/spigell/part-recommender/internal/ai/gemini"
	"github.com/spigell/part-recommender/internal/logger"
	"github.com/spigell/part-recommender/internal/secrets"
)

// newSelector builds the AI selector from config. A nil selector with a nil
// error means AI picks are disabled.
func newSelector(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*ai.Selector, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil || strings.TrimSpace(cfg.Gemini.Model) == "" {
		return nil, fmt.Errorf("gemini model is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	aiLogger := log.With(logger.AIFields("gemini", cfg.Gemini.Model)...)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries,
		aiLogger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)))
	if err != nil {
		return nil, err
	}

	return &ai.Selector{
		Picker:        gemini.NewPicker(generator, cfg.Gemini.MaxLogLength, aiLogger),
		MinCandidates: cfg.MinimumCandidates,
		Logger:        aiLogger,
	}, nil
}
