package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/catalog"
	"github.com/spigell/part-recommender/internal/logger"
	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/recommender"
	"github.com/spigell/part-recommender/internal/spec"
)

const (
	PromptPrint               = "Print recommendation"
	PromptExit                = "Exit"
	PromptBack                = "back"
	PromptReportByVendor      = "Report by vendor"
	PromptRejections          = "Show rejection reasons"
	PromptBrowse              = "Browse ranked products"
	PromptAppendToExcludeFile = "Append all shown products to exclude file"
	PromptRecommendationFile  = "Dump recommendation to file"
	excludeReason             = "excluded from recommend menu"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptPrint, PromptExit, PromptReportByVendor, PromptRejections, PromptBrowse, PromptRecommendationFile},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Filter and rank candidates against a requirement",
	Run: func(cmd *cobra.Command, _ []string) {
		recommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("requirements", "r", "", "JSON or YAML file with the requirement")
	recommendCmd.Flags().StringToStringP("set", "s", nil, "requirement fields as key=value, e.g. --set current=1000,size=0603")
	recommendCmd.Flags().StringP("candidates", "c", "", "JSON, YAML or CSV file with candidates instead of the catalog")
	recommendCmd.Flags().StringP("priority", "p", "", "ranking: current, dcr or score")
	recommendCmd.Flags().IntP("top", "n", 0, "how many ranked products to keep (0 keeps all)")
	recommendCmd.Flags().StringSlice("ignore", nil, "checks to skip, e.g. --ignore size,temp_min")
	recommendCmd.Flags().Bool("ai", false, "let the AI pick the final products")
	recommendCmd.Flags().BoolP("auto-approve", "y", false, "print the recommendation without asking")
	recommendCmd.Flags().StringP("exclude-file", "e", "", "file with products to exclude. Default is unset.")

	viper.BindPFlag("recommend.priority", recommendCmd.Flags().Lookup("priority"))
	viper.BindPFlag("recommend.top", recommendCmd.Flags().Lookup("top"))
	viper.BindPFlag("recommend.exclude-file", recommendCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("ai.enabled", recommendCmd.Flags().Lookup("ai"))
}

func recommend(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logOutputs()...)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the part-recommender", zap.String("version", resolveVersion()))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	flags := cmd.Flags()
	requirementFile, _ := flags.GetString("requirements")
	overrides, _ := flags.GetStringToString("set")

	configured, err := configuredRequirements(config.Requirements, viper.ConfigFileUsed())
	if err != nil {
		logger.Fatal("reading the configured requirement", zap.Error(err))
	}

	requirement, err := buildRequirement(configured, requirementFile, overrides)
	if err != nil {
		logger.Fatal("reading the requirement", zap.Error(err))
	}

	mode, err := matching.ParseRankMode(config.Recommend.Priority)
	if err != nil {
		logger.Fatal("parsing the priority", zap.Error(err))
	}

	req := recommender.Request{
		Requirement: requirement,
		Mode:        mode,
		Top:         config.Recommend.Top,
		UseAI:       config.AI.Enabled,
	}
	req.Ignore, _ = flags.GetStringSlice("ignore")

	excludeFile := strings.TrimSpace(config.Recommend.ExcludeFile)
	req.ExcludeVendors, req.ExcludeParts, err = exclusions(config.Recommend, excludeFile)
	if err != nil {
		logger.Fatal("getting excluded products from file", zap.Error(err), zap.String("path", excludeFile))
	}

	opts := []recommender.Option{recommender.WithLogger(logger)}

	var source catalog.Source
	if file, _ := flags.GetString("candidates"); file != "" {
		source = catalog.FileSource{Path: file}
	} else {
		store, err := catalog.NewStore(config.Catalog.DB)
		if err != nil {
			logger.Fatal("opening the catalog", zap.Error(err), zap.String("path", config.Catalog.DB))
		}
		defer store.Close()

		source = store
		opts = append(opts, recommender.WithHistory(store))
	}

	selector, err := newSelector(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI picks", zap.Error(err))
	}
	if selector != nil {
		opts = append(opts, recommender.WithSelector(selector))
	}

	resp, err := recommender.New(source, opts...).Recommend(ctx, "", req)
	if err != nil {
		logger.Fatal("recommendation failed", zap.Error(err))
	}

	if resp.Len() == 0 {
		logger.Info("exiting",
			zap.String("reason", "no candidates left after checks"),
			zap.Int("rejected", len(resp.Rejected)),
		)
		return
	}

	logPicks(logger, resp)

	action := PromptPrint
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of ranked products", zap.Int("count", resp.Len()))

		if err := handleAction(action, logger, excludeFile, resp); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func logPicks(l *zap.Logger, resp *recommender.Response) {
	for i, pick := range resp.Picks {
		l.Info("recommended product",
			append(logger.CandidateFields(pick.Candidate),
				zap.Int("place", i+1),
				zap.Float64("score", pick.Score),
				zap.Float64("match_rate", pick.MatchRate),
				zap.String("reason", pick.Reason),
				zap.Bool("picked_by_ai", resp.PickedByAI),
			)...,
		)
	}
}

func handleAction(action string, logger *zap.Logger, excludeFile string, resp *recommender.Response) error {
	switch action {
	case PromptPrint:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("print recommendation: %w", err)
		}
		return errExit
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportByVendor:
		pretty, _ := json.MarshalIndent(resp.ReportByVendor(), "", "  ")
		logger.Info(string(pretty), zap.Int("products count", resp.Len()))
		return nil
	case PromptRejections:
		pretty, _ := json.MarshalIndent(resp.RejectionReport(), "", "  ")
		logger.Info(string(pretty), zap.Int("rejected count", len(resp.Rejected)))
		return nil
	case PromptBrowse:
		return browse(logger, excludeFile, resp)
	case PromptRecommendationFile:
		filename, err := resp.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// browse lists the ranked products and shows the recorded values of the
// chosen one. Shown products can be appended to the exclude file.
func browse(logger *zap.Logger, excludeFile string, resp *recommender.Response) error {
	for {
		items := make([]string, 0, resp.Len()+2)
		for _, r := range resp.Ranked {
			items = append(items, fmt.Sprintf("%s / %s / score %g / match %.2f%%",
				r.Label(), r.Vendor, r.Score, r.MatchRate,
			))
		}

		if excludeFile != "" && resp.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		productPrompt := promptui.Select{
			Label: "Choose a product and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := productPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			if err := appendToExcludeFile(excludeFile, resp.Ranked); err != nil {
				return err
			}
			logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", resp.Len()))
			resp.Ranked = nil
		default:
			partNumber := strings.Split(selected, " / ")[0]
			product := resp.FindByPartNumber(partNumber)
			if product == nil {
				return fmt.Errorf("there is no such part number %s", partNumber)
			}

			pretty, _ := json.MarshalIndent(product, "", "  ")
			logger.Info(string(pretty), zap.String("part_number", product.Label()))
		}
	}
}

func appendToExcludeFile(path string, ranked []matching.Ranked) error {
	excluded, err := catalog.LoadExcluded(path)
	if err != nil {
		return err
	}

	excluded.Append(catalog.ExcludeRanked(ranked, excludeReason))

	return excluded.ToFile(path)
}

// configuredRequirements re-reads the requirements block of a YAML config
// file so that size codes keep their text. Values bound from elsewhere stay.
func configuredRequirements(configured map[string]any, configFile string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
	default:
		return configured, nil
	}

	section, err := catalog.ReadYAMLSection(configFile, "requirements")
	if err != nil {
		return nil, err
	}

	merged := maps.Clone(configured)
	if merged == nil {
		merged = make(map[string]any, len(section))
	}
	for key, value := range section {
		merged[strings.ToLower(key)] = value
	}
	return merged, nil
}

// buildRequirement merges the configured requirement, the requirement file
// and --set overrides, later sources winning per field.
func buildRequirement(configured map[string]any, file string, overrides map[string]string) (spec.Requirement, error) {
	record := make(map[string]any, len(configured)+len(overrides))
	maps.Copy(record, configured)

	if file != "" {
		fromFile, err := catalog.ReadRequirement(file)
		if err != nil {
			return spec.Requirement{}, err
		}
		maps.Copy(record, fromFile)
	}

	for key, value := range overrides {
		record[strings.ToLower(strings.TrimSpace(key))] = value
	}

	return spec.DecodeRequirement(record)
}

// exclusions collects configured vendors and part numbers plus the part
// numbers listed in the exclude file.
func exclusions(cfg *RecommendConfig, excludeFile string) ([]string, []string, error) {
	var vendors, parts []string
	if cfg != nil && cfg.Exclude != nil {
		vendors = append(vendors, cfg.Exclude.Vendors...)
		parts = append(parts, cfg.Exclude.Parts...)
	}

	if excludeFile == "" {
		return vendors, parts, nil
	}

	excluded, err := catalog.LoadExcluded(excludeFile)
	if err != nil {
		return nil, nil, err
	}

	return vendors, append(parts, excluded.PartNumbers()...), nil
}
