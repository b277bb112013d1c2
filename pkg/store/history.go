package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/pagegen/pkg/variety"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrInvalidRecord indicates a stored record could not be decoded.
var ErrInvalidRecord = errors.New("invalid stored record")

// HistoryStore saves and restores variety history.
type HistoryStore struct {
	redis  *redis.Client
	config Config
	logger zerolog.Logger
}

// NewHistoryStore creates a history store.
func NewHistoryStore(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *HistoryStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &HistoryStore{redis: redisClient, config: cfg, logger: logger}
}

// Load restores every persisted category into tracker and returns the number
// of categories restored. Undecodable records are skipped and reported in
// the returned error after the rest were loaded.
func (s *HistoryStore) Load(ctx context.Context, tracker *variety.Tracker) (int, error) {
	var (
		restored int
		badKeys  []string
	)

	iter := s.redis.Scan(ctx, 0, historyPattern(s.config.Prefix), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := s.redis.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			StoreOperations.WithLabelValues("load_history", "error").Inc()
			return restored, fmt.Errorf("redis get %s: %w", key, err)
		}

		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			badKeys = append(badKeys, key)
			continue
		}

		category := categoryOf(s.config.Prefix, key)
		tracker.Restore(category, items)
		restored++

		s.logger.Debug().
			Str("category", category).
			Int("items", len(items)).
			Msg("Restored variety history")
	}
	if err := iter.Err(); err != nil {
		StoreOperations.WithLabelValues("load_history", "error").Inc()
		return restored, fmt.Errorf("redis scan: %w", err)
	}

	StoreOperations.WithLabelValues("load_history", "ok").Inc()
	if len(badKeys) > 0 {
		return restored, fmt.Errorf("%w: %v", ErrInvalidRecord, badKeys)
	}
	return restored, nil
}

// Save writes the history of every category tracker knows in one pipeline.
func (s *HistoryStore) Save(ctx context.Context, tracker *variety.Tracker) error {
	summary := tracker.Summary()
	if len(summary.Categories) == 0 {
		return nil
	}

	var written int
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for category, items := range summary.Categories {
			data, err := json.Marshal(items)
			if err != nil {
				return fmt.Errorf("marshal history %s: %w", category, err)
			}
			pipe.Set(ctx, HistoryKey(s.config.Prefix, category).String(), data, s.config.HistoryTTL)
			written += len(data)
		}
		return nil
	})
	if err != nil {
		StoreOperations.WithLabelValues("save_history", "error").Inc()
		return fmt.Errorf("save history: %w", err)
	}

	StoreOperations.WithLabelValues("save_history", "ok").Inc()
	StoreBytes.Add(float64(written))

	s.logger.Debug().
		Int("categories", len(summary.Categories)).
		Msg("Saved variety history")
	return nil
}

// Clear deletes the persisted history of category.
func (s *HistoryStore) Clear(ctx context.Context, category string) error {
	if err := s.redis.Del(ctx, HistoryKey(s.config.Prefix, category).String()).Err(); err != nil {
		StoreOperations.WithLabelValues("clear_history", "error").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	StoreOperations.WithLabelValues("clear_history", "ok").Inc()
	return nil
}
