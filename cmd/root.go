package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "part-recommender"
	envPrefix = "PART_RECOMMENDER"
)

type Config struct {
	Catalog      *CatalogConfig   `mapstructure:"catalog"`
	Recommend    *RecommendConfig `mapstructure:"recommend"`
	Requirements map[string]any   `mapstructure:"requirements"`
	AI           *AIConfig        `mapstructure:"ai"`
	Server       *ServerConfig    `mapstructure:"server"`
}

type CatalogConfig struct {
	DB     string `mapstructure:"db"`
	Vendor string `mapstructure:"vendor"`
}

type RecommendConfig struct {
	Priority    string `mapstructure:"priority"`
	Top         int    `mapstructure:"top"`
	ExcludeFile string `mapstructure:"exclude-file"`
	Exclude     *struct {
		Vendors []string `mapstructure:"vendors"`
		Parts   []string `mapstructure:"parts"`
	} `mapstructure:"exclude"`
}

type AIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Provider          string        `mapstructure:"provider"`
	MinimumCandidates int           `mapstructure:"minimum-candidates"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "part-recommender filters and ranks passive components against a requirement",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is part-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().String("db", "", "path to the sqlite catalog (default is part-recommender.db)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("catalog.db", rootCmd.PersistentFlags().Lookup("db"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.db", app+".db")
	v.SetDefault("recommend.priority", "current")
	v.SetDefault("recommend.top", 5)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.minimum-candidates", 1)
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("server.listen", ":8080")
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional; an explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func logOutputs() []string {
	if path := strings.TrimSpace(viper.GetString("log-file")); path != "" {
		return []string{path}
	}
	return nil
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Catalog == nil {
		config.Catalog = &CatalogConfig{}
	}
	if config.Recommend == nil {
		config.Recommend = &RecommendConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
