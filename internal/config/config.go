// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper. Environment
// variables with the ELWJOBS_ prefix override file values, e.g.
// ELWJOBS_SCRAPE_USER_AGENT.
type Config struct {
	Dataset DatasetConfig `mapstructure:"dataset"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Browser BrowserConfig `mapstructure:"browser"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DatasetConfig locates the job record store.
type DatasetConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ScrapeConfig governs static fetching and retry behavior.
type ScrapeConfig struct {
	UserAgent      string `mapstructure:"user_agent" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
	MaxAttempts    int    `mapstructure:"max_attempts" validate:"gt=0"`
	BaseDelayMs    int    `mapstructure:"base_delay_ms" validate:"gt=0"`
	RateDelayMs    int    `mapstructure:"rate_delay_ms" validate:"gte=0"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// BrowserConfig configures the headless rendering subsystem.
type BrowserConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	NavTimeoutSeconds int      `mapstructure:"nav_timeout_seconds" validate:"gt=0"`
	IdleTimeoutSec    int      `mapstructure:"idle_timeout_seconds" validate:"gt=0"`
	SettleMs          int      `mapstructure:"settle_ms" validate:"gte=0"`
	JSRequiredDomains []string `mapstructure:"js_required_domains"`
}

// StorageConfig sets output paths and checkpoint cadence.
type StorageConfig struct {
	DescriptionsDir string `mapstructure:"descriptions_dir" validate:"required"`
	CheckpointPath  string `mapstructure:"checkpoint_path" validate:"required"`
	BatchSize       int    `mapstructure:"batch_size" validate:"gt=0"`
}

// ServerConfig controls the optional status/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"gt=0"`
}

// LLMConfig selects the model used for structured field extraction.
type LLMConfig struct {
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens" validate:"gt=0"`
}

// ArchiveConfig locates the electionline weekly page cache.
type ArchiveConfig struct {
	BaseURL   string `mapstructure:"base_url" validate:"required,url"`
	CacheDir  string `mapstructure:"cache_dir" validate:"required"`
	FirstYear int    `mapstructure:"first_year" validate:"gt=2000"`
}

// LoggingConfig toggles zap development features and the error log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	ErrorFile   string `mapstructure:"error_file"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ELWJOBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.path", "dataset.csv")
	v.SetDefault("scrape.user_agent", "ElectionJobResearchBot/1.0")
	v.SetDefault("scrape.timeout_seconds", 10)
	v.SetDefault("scrape.max_attempts", 3)
	v.SetDefault("scrape.base_delay_ms", 1000)
	v.SetDefault("scrape.rate_delay_ms", 1000)
	v.SetDefault("scrape.respect_robots", true)
	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.nav_timeout_seconds", 30)
	v.SetDefault("browser.idle_timeout_seconds", 10)
	v.SetDefault("browser.settle_ms", 2000)
	v.SetDefault("browser.js_required_domains", []string{"governmentjobs.com", "workday.com", "icims.com"})
	v.SetDefault("storage.descriptions_dir", "job-descriptions")
	v.SetDefault("storage.checkpoint_path", "backfill_checkpoint.json")
	v.SetDefault("storage.batch_size", 100)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("llm.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("archive.base_url", "https://electionline.org")
	v.SetDefault("archive.cache_dir", "electionline-weekly")
	v.SetDefault("archive.first_year", 2011)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.error_file", "scraping_errors.log")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// RequestTimeout returns the static request timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

// BaseDelay returns the retry backoff base as a duration.
func (c Config) BaseDelay() time.Duration {
	return time.Duration(c.Scrape.BaseDelayMs) * time.Millisecond
}

// RateDelay returns the minimum delay between network operations.
func (c Config) RateDelay() time.Duration {
	return time.Duration(c.Scrape.RateDelayMs) * time.Millisecond
}
