// Package config loads the pagegen YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Sternrassler/pagegen/pkg/backend"
	"github.com/Sternrassler/pagegen/pkg/logging"
	"github.com/Sternrassler/pagegen/pkg/pipeline"
	"github.com/Sternrassler/pagegen/pkg/quota"
	"github.com/Sternrassler/pagegen/pkg/request"
	"github.com/Sternrassler/pagegen/pkg/store"
	"gopkg.in/yaml.v2"
)

// Config is the top-level configuration.
type Config struct {
	Limits     quota.Config                  `yaml:"limits"`
	Retry      RetryConfig                   `yaml:"retry"`
	Pipeline   PipelineConfig                `yaml:"pipeline"`
	Backend    BackendConfig                 `yaml:"backend"`
	Redis      RedisConfig                   `yaml:"redis"`
	Logging    LoggingConfig                 `yaml:"logging"`
	Categories map[string]request.Definition `yaml:"categories"`

	// Seed makes theme selection reproducible. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries *int          `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
}

type PipelineConfig struct {
	Mode                   string `yaml:"mode"`
	MaxConcurrency         int    `yaml:"max_concurrency"`
	MaxConsecutiveFailures int    `yaml:"max_consecutive_failures"`
}

type BackendConfig struct {
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"api_key"`
	APIVersion string        `yaml:"api_version"`
	Model      string        `yaml:"model"`
	MaxTokens  int           `yaml:"max_tokens"`
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
}

type RedisConfig struct {
	Enabled    bool          `yaml:"enabled"`
	URL        string        `yaml:"url"`
	KeyPrefix  string        `yaml:"key_prefix"`
	HistoryTTL time.Duration `yaml:"history_ttl"`
	SummaryTTL time.Duration `yaml:"summary_ttl"`
	RecentRuns int64         `yaml:"recent_runs"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

const defaultBackendURL = "https://api.anthropic.com/v1/messages"

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. Environment variables in the
// file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	retry := backend.DefaultRetryConfig()
	if c.Retry.MaxRetries == nil {
		c.Retry.MaxRetries = &retry.MaxRetries
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = retry.BaseDelay
	}

	if c.Pipeline.Mode == "" {
		c.Pipeline.Mode = pipeline.ModeSequential
	}
	if c.Pipeline.MaxConcurrency == 0 {
		c.Pipeline.MaxConcurrency = pipeline.DefaultConfig().MaxConcurrency
	}

	def := backend.DefaultHTTPConfig(defaultBackendURL, "")
	if c.Backend.URL == "" {
		c.Backend.URL = def.Endpoint
	}
	if c.Backend.APIVersion == "" {
		c.Backend.APIVersion = def.APIVersion
	}
	if c.Backend.Model == "" {
		c.Backend.Model = def.Model
	}
	if c.Backend.MaxTokens == 0 {
		c.Backend.MaxTokens = def.MaxTokens
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = def.Timeout
	}
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = def.UserAgent
	}

	st := store.DefaultConfig()
	if c.Redis.URL == "" {
		c.Redis.URL = "redis://localhost:6379/0"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = st.Prefix
	}
	if c.Redis.HistoryTTL == 0 {
		c.Redis.HistoryTTL = st.HistoryTTL
	}
	if c.Redis.SummaryTTL == 0 {
		c.Redis.SummaryTTL = st.SummaryTTL
	}
	if c.Redis.RecentRuns == 0 {
		c.Redis.RecentRuns = st.RecentRuns
	}

	if c.Logging.Level == "" {
		c.Logging.Level = string(logging.LevelInfo)
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry: max_retries must be >= 0 (got %d)", *c.Retry.MaxRetries)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry: base_delay must be >= 0 (got %s)", c.Retry.BaseDelay)
	}
	switch c.Pipeline.Mode {
	case pipeline.ModeSequential, pipeline.ModeConcurrent:
	default:
		return fmt.Errorf("pipeline: unknown mode %q", c.Pipeline.Mode)
	}
	if c.Pipeline.MaxConcurrency <= 0 {
		return fmt.Errorf("pipeline: max_concurrency must be > 0 (got %d)", c.Pipeline.MaxConcurrency)
	}
	if c.Pipeline.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("pipeline: max_consecutive_failures must be >= 0 (got %d)", c.Pipeline.MaxConsecutiveFailures)
	}
	if c.Backend.MaxTokens <= 0 {
		return fmt.Errorf("backend: max_tokens must be > 0 (got %d)", c.Backend.MaxTokens)
	}
	for name, def := range c.Categories {
		if def.Template == "" && len(def.Themes) == 0 && len(def.RequiredKeys) == 0 {
			return fmt.Errorf("categories: %q is empty", name)
		}
	}
	return nil
}

// RetryConfig returns the retry executor configuration.
func (c *Config) RetryConfig() backend.RetryConfig {
	cfg := backend.DefaultRetryConfig()
	if c.Retry.MaxRetries != nil {
		cfg.MaxRetries = *c.Retry.MaxRetries
	}
	cfg.BaseDelay = c.Retry.BaseDelay
	return cfg
}

// HTTPConfig returns the HTTP backend configuration.
func (c *Config) HTTPConfig() backend.HTTPConfig {
	return backend.HTTPConfig{
		Endpoint:   c.Backend.URL,
		APIKey:     c.Backend.APIKey,
		APIVersion: c.Backend.APIVersion,
		Model:      c.Backend.Model,
		MaxTokens:  c.Backend.MaxTokens,
		UserAgent:  c.Backend.UserAgent,
		Timeout:    c.Backend.Timeout,
	}
}

// PipelineConfig returns the pipeline configuration without observer or
// logger.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		MaxConcurrency:         c.Pipeline.MaxConcurrency,
		MaxConsecutiveFailures: c.Pipeline.MaxConsecutiveFailures,
	}
}

// StoreConfig returns the Redis store configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Prefix:     c.Redis.KeyPrefix,
		HistoryTTL: c.Redis.HistoryTTL,
		SummaryTTL: c.Redis.SummaryTTL,
		RecentRuns: c.Redis.RecentRuns,
	}
}

// LoggingConfig returns the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Logging.Level)
	cfg.Pretty = c.Logging.Pretty
	return cfg
}

// Definitions returns the built-in categories overlaid with the configured
// ones.
func (c *Config) Definitions() map[string]request.Definition {
	return request.Merge(request.Definitions(), c.Categories)
}
