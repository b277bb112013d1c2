// Package processor turns one work unit into one processed unit.
package processor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"github.com/Sternrassler/pagegen/pkg/backend"
	"github.com/Sternrassler/pagegen/pkg/request"
	"github.com/Sternrassler/pagegen/pkg/unit"
	"github.com/Sternrassler/pagegen/pkg/variety"
	"github.com/rs/zerolog"
)

const (
	// MaxExcerptRunes bounds RawExcerpt on extraction failures.
	MaxExcerptRunes = 400

	msgNoJSON = "No JSON found in API response"
)

// Config holds the collaborators of a Processor.
type Config struct {
	Registry *request.Registry
	Tracker  *variety.Tracker
	Executor *backend.Executor
	Backend  backend.Backend
	Logger   zerolog.Logger
}

// Processor processes a single unit: build the request, call the backend
// with retries, record the variety selection and merge the payload.
type Processor struct {
	registry *request.Registry
	tracker  *variety.Tracker
	executor *backend.Executor
	backend  backend.Backend
	logger   zerolog.Logger
}

// New validates cfg and creates a Processor.
func New(cfg Config) (*Processor, error) {
	switch {
	case cfg.Registry == nil:
		return nil, errors.New("registry is required")
	case cfg.Tracker == nil:
		return nil, errors.New("variety tracker is required")
	case cfg.Executor == nil:
		return nil, errors.New("retry executor is required")
	case cfg.Backend == nil:
		return nil, errors.New("backend is required")
	}

	return &Processor{
		registry: cfg.Registry,
		tracker:  cfg.Tracker,
		executor: cfg.Executor,
		backend:  cfg.Backend,
		logger:   cfg.Logger,
	}, nil
}

// Process handles u and always returns its outcome in-band. The error is
// non-nil only when ctx ended before the unit finished; the unit must then be
// treated as never admitted.
func (p *Processor) Process(ctx context.Context, u unit.WorkUnit) (pu unit.ProcessedUnit, err error) {
	logger := p.logger.With().
		Int("sequence", u.SequenceNumber).
		Str("category", u.Category).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered panic while processing unit")
			pu, err = unit.Failed(u, fmt.Sprintf("panic: %v", r)), nil
		}
	}()

	if err := ctx.Err(); err != nil {
		return unit.ProcessedUnit{}, err
	}

	builder, err := p.registry.Lookup(u.Category)
	if err != nil {
		logger.Warn().Msg("Unknown category")
		return unit.Failed(u, "Unknown page type: "+u.Category), nil
	}

	history := p.tracker.Used(u.Category)
	req, err := builder.Build(u.Category, history, u.PayloadHints)
	if err != nil {
		logger.Warn().Err(err).Msg("Request build failed")
		return unit.Failed(u, err.Error()), nil
	}

	logger.Debug().
		Str("selected_item", req.SelectedItem).
		Int("history_len", len(history)).
		Msg("Request built")

	invoke := func(ctx context.Context) (string, error) {
		return p.backend.Invoke(ctx, req.Payload)
	}

	start := time.Now()
	var (
		payload map[string]any
		raw     string
	)
	if len(req.RequiredKeys) > 0 {
		payload, raw, err = p.executor.CallWithRetryAndValidate(ctx, invoke, req.RequiredKeys, p.executor.MaxRetries())
	} else {
		payload, raw, err = p.executor.CallWithRetry(ctx, invoke, p.executor.MaxRetries())
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Debug().Msg("Unit cancelled")
		return unit.ProcessedUnit{}, ctxErr
	}

	if err != nil {
		logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Backend call failed")
		pu = unit.Failed(u, err.Error())
		pu.SelectedItem = req.SelectedItem
		return pu, nil
	}

	if payload == nil {
		logger.Warn().Int("response_len", len(raw)).Msg(msgNoJSON)
		pu = unit.Failed(u, msgNoJSON)
		pu.SelectedItem = req.SelectedItem
		pu.RawExcerpt = excerpt(raw, MaxExcerptRunes)
		return pu, nil
	}

	switch {
	case req.SelectedItem == "":
	case req.StartsCycle:
		p.tracker.StartCycle(u.Category, req.SelectedItem, history)
	default:
		p.tracker.MarkUsed(u.Category, req.SelectedItem)
	}

	return unit.ProcessedUnit{
		SequenceNumber: u.SequenceNumber,
		Category:       u.Category,
		Success:        true,
		Data:           merge(u, payload),
		SelectedItem:   req.SelectedItem,
	}, nil
}

// merge lays payload over a base built from the unit. Payload keys win.
func merge(u unit.WorkUnit, payload map[string]any) map[string]any {
	data := make(map[string]any, len(u.PayloadHints)+len(payload)+2)
	for k, v := range u.PayloadHints {
		data[k] = v
	}
	data["sequence_number"] = u.SequenceNumber
	data["category"] = u.Category
	for k, v := range payload {
		data[k] = v
	}
	return data
}

func excerpt(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
