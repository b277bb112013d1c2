package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds store configuration.
type Config struct {
	// Prefix namespaces every key.
	Prefix string

	// HistoryTTL expires variety history that was not saved for a while.
	// Zero keeps history forever.
	HistoryTTL time.Duration

	// SummaryTTL expires batch summaries. Zero keeps them forever.
	SummaryTTL time.Duration

	// RecentRuns caps the recent run ID list.
	RecentRuns int64
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:     "pagegen",
		HistoryTTL: 30 * 24 * time.Hour,
		SummaryTTL: 7 * 24 * time.Hour,
		RecentRuns: 100,
	}
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
