package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Sternrassler/pagegen/pkg/metrics"
	"github.com/Sternrassler/pagegen/pkg/observe"
	"github.com/Sternrassler/pagegen/pkg/quota"
	"github.com/Sternrassler/pagegen/pkg/unit"
	"github.com/Sternrassler/pagegen/pkg/variety"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Execution modes.
const (
	ModeSequential = "sequential"
	ModeConcurrent = "concurrent"
)

// ErrInvalidInput is returned by Run for an empty batch.
var ErrInvalidInput = errors.New("invalid input: batch contains no work units")

// Processor handles a single unit. It reports every failure in-band and
// returns an error only when ctx ended first.
type Processor interface {
	Process(ctx context.Context, u unit.WorkUnit) (unit.ProcessedUnit, error)
}

// Runner runs a batch. Each Run starts from a reset limiter, so runs on one
// Runner must not overlap. Variety history carries over between runs.
type Runner interface {
	Run(ctx context.Context, units []unit.WorkUnit) (*BatchResult, error)
}

// Config holds pipeline configuration.
type Config struct {
	// MaxConcurrency bounds the units processed at once (concurrent mode).
	MaxConcurrency int

	// MaxConsecutiveFailures aborts the rest of the batch once this many
	// processed units in a row have failed. Zero disables the breaker.
	MaxConsecutiveFailures int

	// Observer receives run notifications. Nil means none.
	Observer observe.Observer

	Logger zerolog.Logger
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Logger:         zerolog.Nop(),
	}
}

// BatchResult is the outcome of one run.
type BatchResult struct {
	RunID           string               `json:"run_id"`
	Mode            string               `json:"mode"`
	ProcessedUnits  []unit.ProcessedUnit `json:"processed_units"`
	TotalProcessed  int                  `json:"total_processed"`
	TotalSkipped    int                  `json:"total_skipped"`
	Succeeded       int                  `json:"succeeded"`
	Failed          int                  `json:"failed"`
	Aborted         bool                 `json:"aborted"`
	Cancelled       bool                 `json:"cancelled"`
	DurationSeconds float64              `json:"duration_seconds"`
	Quota           quota.Summary        `json:"quota_summary"`
	Variety         variety.Summary      `json:"variety_summary"`
}

// New returns the runner for mode.
func New(mode string, p Processor, limiter *quota.Limiter, tracker *variety.Tracker, cfg Config) (Runner, error) {
	switch mode {
	case ModeSequential, "":
		return NewSequential(p, limiter, tracker, cfg), nil
	case ModeConcurrent:
		return NewConcurrent(p, limiter, tracker, cfg), nil
	default:
		return nil, fmt.Errorf("unknown pipeline mode %q", mode)
	}
}

// engine holds what both runners share.
type engine struct {
	mode      string
	processor Processor
	limiter   *quota.Limiter
	tracker   *variety.Tracker
	config    Config
	observer  observe.Observer
	logger    zerolog.Logger
}

func newEngine(mode string, p Processor, limiter *quota.Limiter, tracker *variety.Tracker, cfg Config) engine {
	return engine{
		mode:      mode,
		processor: p,
		limiter:   limiter,
		tracker:   tracker,
		config:    cfg,
		observer:  observe.OrNop(cfg.Observer),
		logger:    cfg.Logger.With().Str("mode", mode).Logger(),
	}
}

// batch accumulates the state of one run. Safe for concurrent use.
type batch struct {
	runID   string
	start   time.Time
	logger  zerolog.Logger
	limiter *quota.Limiter

	mu      sync.Mutex
	breaker breaker
	results []unit.ProcessedUnit
	skipped int
}

func (e *engine) begin(units []unit.WorkUnit) *batch {
	// Quota state lives for one run.
	e.limiter.Reset()

	runID := uuid.NewString()
	b := &batch{
		runID:   runID,
		start:   time.Now(),
		logger:  e.logger.With().Str("run_id", runID).Logger(),
		limiter: e.limiter,
		breaker: breaker{limit: e.config.MaxConsecutiveFailures},
		results: make([]unit.ProcessedUnit, 0, len(units)),
	}
	b.logger.Info().Int("units", len(units)).Msg("Starting batch")
	return b
}

// skip records u as skipped with reason.
func (b *batch) skip(u unit.WorkUnit, reason string) {
	b.limiter.TrackSkip(fmt.Sprintf("Unit %d (%s): %s", u.SequenceNumber, u.Category, reason))

	b.mu.Lock()
	b.skipped++
	b.mu.Unlock()

	b.logger.Warn().
		Int("sequence", u.SequenceNumber).
		Str("category", u.Category).
		Str("reason", reason).
		Msg("Unit skipped")
}

// complete records a processed unit and feeds the breaker.
func (b *batch) complete(pu unit.ProcessedUnit) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.results = append(b.results, pu)
	if b.breaker.record(pu.Success) {
		b.logger.Warn().
			Int("consecutive_failures", b.breaker.streak).
			Msg("Failure threshold reached, aborting remaining units")
	}
}

// abortReason returns the skip reason for the tripped breaker, or "".
func (b *batch) abortReason() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.breaker.tripped {
		return ""
	}
	return b.breaker.reason()
}

// finish sorts the results, emits the summary and builds the BatchResult.
func (e *engine) finish(b *batch, cancelled bool) *BatchResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	unit.SortBySequence(b.results)

	result := &BatchResult{
		RunID:           b.runID,
		Mode:            e.mode,
		ProcessedUnits:  b.results,
		TotalProcessed:  len(b.results),
		TotalSkipped:    b.skipped,
		Aborted:         b.breaker.tripped,
		Cancelled:       cancelled,
		DurationSeconds: time.Since(b.start).Seconds(),
		Quota:           e.limiter.Summary(),
		Variety:         e.tracker.Summary(),
	}
	for _, pu := range b.results {
		if pu.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	e.observer.BatchFinished(observe.BatchSummary{
		RunID:      result.RunID,
		Mode:       result.Mode,
		Processed:  result.TotalProcessed,
		Skipped:    result.TotalSkipped,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		Aborted:    result.Aborted,
		Cancelled:  result.Cancelled,
		Duration:   time.Since(b.start),
		FinishedAt: time.Now(),
		Quota:      result.Quota,
		Variety:    result.Variety,
	})

	b.logger.Info().
		Int("processed", result.TotalProcessed).
		Int("skipped", result.TotalSkipped).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Bool("aborted", result.Aborted).
		Bool("cancelled", cancelled).
		Float64("duration_seconds", result.DurationSeconds).
		Msg("Batch complete")

	return result
}

// admit runs the breaker and quota checks for u. On rejection the skip is
// recorded and nil is returned.
func (e *engine) admit(b *batch, u unit.WorkUnit) *quota.Reservation {
	if reason := b.abortReason(); reason != "" {
		metrics.UnitsSkipped.WithLabelValues("aborted").Inc()
		b.skip(u, reason)
		return nil
	}
	res, reason, ok := e.limiter.Reserve(u.Category)
	if !ok {
		b.skip(u, reason)
		return nil
	}
	return res
}

// process runs one admitted unit. It commits the reservation and records the
// result, unless ctx ended first or the processor panicked: the reservation
// is then released and the unit left out of the result. A processor error
// while ctx is live is recorded as a failed unit. The returned error is
// ctx's.
func (e *engine) process(ctx context.Context, b *batch, u unit.WorkUnit, res *quota.Reservation) (err error) {
	metrics.UnitsInFlight.Inc()
	defer metrics.UnitsInFlight.Dec()

	defer func() {
		if r := recover(); r != nil {
			res.Release()
			metrics.UnitsTotal.WithLabelValues(unit.NormalizeCategory(u.Category), "panic").Inc()
			b.logger.Error().
				Int("sequence", u.SequenceNumber).
				Str("category", u.Category).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("Unit task panicked")
			err = nil
		}
	}()

	e.observer.UnitStarted(u)
	start := time.Now()

	pu, err := e.processor.Process(ctx, u)
	if err != nil && ctx.Err() == nil {
		b.logger.Warn().
			Err(err).
			Int("sequence", u.SequenceNumber).
			Msg("Processor returned an error, recording failed unit")
		pu, err = unit.Failed(u, err.Error()), nil
	}
	if err != nil {
		res.Release()
		b.logger.Debug().
			Err(err).
			Int("sequence", u.SequenceNumber).
			Msg("Unit not finished, releasing quota")
		return err
	}

	res.Commit()
	e.observer.UnitCompleted(pu, time.Since(start))
	b.complete(pu)
	return nil
}
