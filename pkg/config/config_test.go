package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Full(t *testing.T) {
	t.Setenv("TEST_PAGEGEN_KEY", "sk-test")

	path := writeConfig(t, `
seed: 42
limits:
  max_total: 8
  per_category:
    coloring: 5
retry:
  max_retries: 2
  base_delay: 500ms
pipeline:
  mode: concurrent
  max_concurrency: 3
  max_consecutive_failures: 4
backend:
  url: http://localhost:9999/v1/messages
  api_key: ${TEST_PAGEGEN_KEY}
  model: test-model
  timeout: 30s
redis:
  enabled: true
  url: redis://cache:6379/2
  history_ttl: 48h
logging:
  level: debug
  pretty: true
categories:
  maze:
    themes: [labyrinth, hedge]
  origami:
    themes: [crane]
    template: "Fold a {{.Theme}}"
    required_keys: [steps]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Limits.MaxTotal)
	assert.Equal(t, 8, *cfg.Limits.MaxTotal)
	assert.Equal(t, map[string]int{"coloring": 5}, cfg.Limits.PerCategory)
	assert.Equal(t, int64(42), cfg.Seed)

	retry := cfg.RetryConfig()
	assert.Equal(t, 2, retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, retry.BaseDelay)

	assert.Equal(t, "concurrent", cfg.Pipeline.Mode)
	pc := cfg.PipelineConfig()
	assert.Equal(t, 3, pc.MaxConcurrency)
	assert.Equal(t, 4, pc.MaxConsecutiveFailures)

	hc := cfg.HTTPConfig()
	assert.Equal(t, "sk-test", hc.APIKey)
	assert.Equal(t, "test-model", hc.Model)
	assert.Equal(t, 30*time.Second, hc.Timeout)
	assert.Equal(t, 4096, hc.MaxTokens, "default applied")

	assert.True(t, cfg.Redis.Enabled)
	sc := cfg.StoreConfig()
	assert.Equal(t, "pagegen", sc.Prefix)
	assert.Equal(t, 48*time.Hour, sc.HistoryTTL)
	assert.Equal(t, 7*24*time.Hour, sc.SummaryTTL)

	lc := cfg.LoggingConfig()
	assert.Equal(t, "debug", string(lc.Level))
	assert.True(t, lc.Pretty)

	defs := cfg.Definitions()
	assert.Equal(t, []string{"labyrinth", "hedge"}, defs["maze"].Themes)
	assert.NotEmpty(t, defs["maze"].Template)
	assert.Equal(t, []string{"steps"}, defs["origami"].RequiredKeys)
	assert.Contains(t, defs, "coloring")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Nil(t, cfg.Limits.MaxTotal)
	assert.Equal(t, "sequential", cfg.Pipeline.Mode)
	assert.Equal(t, 5, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, 3, cfg.RetryConfig().MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryConfig().BaseDelay)
	assert.Equal(t, defaultBackendURL, cfg.Backend.URL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ZeroRetriesIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "retry:\n  max_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.RetryConfig().MaxRetries)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"negative total", "limits:\n  max_total: -1\n", "max_total must be >= 0"},
		{"negative category", "limits:\n  per_category:\n    maze: -2\n", `limit for "maze"`},
		{"negative retries", "retry:\n  max_retries: -1\n", "max_retries must be >= 0"},
		{"unknown mode", "pipeline:\n  mode: parallel\n", `unknown mode "parallel"`},
		{"bad concurrency", "pipeline:\n  max_concurrency: -3\n", "max_concurrency must be > 0"},
		{"negative breaker", "pipeline:\n  max_consecutive_failures: -1\n", "max_consecutive_failures must be >= 0"},
		{"empty category", "categories:\n  maze: {}\n", `"maze" is empty`},
		{"bad yaml", "limits: [\n", "failed to parse config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should contain %q", err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
