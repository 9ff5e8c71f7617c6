// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Yelp      YelpConfig      `yaml:"yelp" mapstructure:"yelp"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Hunter    HunterConfig    `yaml:"hunter" mapstructure:"hunter"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Quota     QuotaConfig     `yaml:"quota" mapstructure:"quota"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Dedup     DedupConfig     `yaml:"dedup" mapstructure:"dedup"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the quota/run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// YelpConfig holds Yelp Fusion API settings (primary discovery source).
type YelpConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	SortBy  string `yaml:"sort_by" mapstructure:"sort_by"`
}

// PlacesConfig holds Google Places API settings (secondary discovery source).
type PlacesConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds Hunter.io settings (tier-gated email verification).
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// TavilyConfig holds Tavily settings (tier-gated reputation research).
type TavilyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds settings for the AI search-strategy generator.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds the optional Notion lead-database sync target.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// QuotaConfig holds per-provider call budgets. Window is "daily" or
// "monthly"; resets happen at exact calendar boundaries.
type QuotaConfig struct {
	Providers map[string]ProviderQuota `yaml:"providers" mapstructure:"providers"`
}

// ProviderQuota is one provider's call budget.
type ProviderQuota struct {
	Limit  int    `yaml:"limit" mapstructure:"limit"`
	Window string `yaml:"window" mapstructure:"window"`
}

// ScrapeConfig configures website signal extraction.
type ScrapeConfig struct {
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int `yaml:"max_retries" mapstructure:"max_retries"`
	CacheTTLHours int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	Concurrency   int `yaml:"concurrency" mapstructure:"concurrency"`
}

// DedupConfig configures the aggregator's identity heuristics.
type DedupConfig struct {
	// ExcludedDomains are shared profile-aggregator domains that can never
	// serve as dedup keys (every record from that provider shares them).
	ExcludedDomains []string `yaml:"excluded_domains" mapstructure:"excluded_domains"`
}

// ScoringConfig configures the scoring engine.
type ScoringConfig struct {
	WeightsFile string `yaml:"weights_file" mapstructure:"weights_file"`
}

// ExportConfig configures lead export.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Format    string `yaml:"format" mapstructure:"format"` // "csv" or "xlsx"
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and LEADGEN_* environment
// variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "leadgen.db")
	v.SetDefault("yelp.base_url", "https://api.yelp.com/v3")
	v.SetDefault("yelp.sort_by", "best_match")
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("scrape.timeout_secs", 10)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.cache_ttl_hours", 24)
	v.SetDefault("scrape.concurrency", 4)
	v.SetDefault("dedup.excluded_domains", []string{"yelp.com", "google.com"})
	v.SetDefault("export.output_dir", "output")
	v.SetDefault("export.format", "csv")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Default call budgets match the providers' free tiers.
	v.SetDefault("quota.providers", map[string]map[string]any{
		"yelp":          {"limit": 500, "window": "daily"},
		"google_places": {"limit": 2000, "window": "monthly"},
		"hunter":        {"limit": 25, "window": "monthly"},
		"tavily":        {"limit": 4000, "window": "monthly"},
		"anthropic":     {"limit": 1500, "window": "daily"},
	})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
