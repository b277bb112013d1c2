package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/pagegen/pkg/observe"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrSummaryMissing indicates no summary is stored for a run ID.
var ErrSummaryMissing = errors.New("batch summary not found")

// recordTimeout bounds the write done from BatchFinished, which has no
// context of its own.
const recordTimeout = 5 * time.Second

// Recorder stores batch summaries. It is an observe.Observer that only
// reacts to BatchFinished.
type Recorder struct {
	observe.Nop

	redis  *redis.Client
	config Config
	logger zerolog.Logger
}

// NewRecorder creates a summary recorder.
func NewRecorder(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *Recorder {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Recorder{redis: redisClient, config: cfg, logger: logger}
}

// BatchFinished records s. Failures are logged, never returned.
func (r *Recorder) BatchFinished(s observe.BatchSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.Record(ctx, s); err != nil {
		r.logger.Error().Err(err).Str("run_id", s.RunID).Msg("Failed to record batch summary")
	}
}

// Record stores s under its run ID and pushes the ID onto the recent list.
func (r *Recorder) Record(ctx context.Context, s observe.BatchSummary) error {
	if s.RunID == "" {
		return fmt.Errorf("summary has no run id")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	recent := RecentKey(r.config.Prefix).String()
	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SummaryKey(r.config.Prefix, s.RunID).String(), data, r.config.SummaryTTL)
		pipe.LPush(ctx, recent, s.RunID)
		if r.config.RecentRuns > 0 {
			pipe.LTrim(ctx, recent, 0, r.config.RecentRuns-1)
		}
		return nil
	})
	if err != nil {
		StoreOperations.WithLabelValues("record_summary", "error").Inc()
		return fmt.Errorf("record summary: %w", err)
	}

	StoreOperations.WithLabelValues("record_summary", "ok").Inc()
	StoreBytes.Add(float64(len(data)))
	r.logger.Debug().Str("run_id", s.RunID).Int("bytes", len(data)).Msg("Recorded batch summary")
	return nil
}

// Get returns the summary of runID, or ErrSummaryMissing.
func (r *Recorder) Get(ctx context.Context, runID string) (*observe.BatchSummary, error) {
	data, err := r.redis.Get(ctx, SummaryKey(r.config.Prefix, runID).String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			StoreOperations.WithLabelValues("get_summary", "miss").Inc()
			return nil, ErrSummaryMissing
		}
		StoreOperations.WithLabelValues("get_summary", "error").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var s observe.BatchSummary
	if err := json.Unmarshal(data, &s); err != nil {
		StoreOperations.WithLabelValues("get_summary", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	StoreOperations.WithLabelValues("get_summary", "ok").Inc()
	return &s, nil
}

// Recent returns up to n run IDs, newest first.
func (r *Recorder) Recent(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := r.redis.LRange(ctx, RecentKey(r.config.Prefix).String(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	return ids, nil
}
