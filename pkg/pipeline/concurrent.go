package pipeline

import (
	"context"

	"github.com/Sternrassler/pagegen/pkg/quota"
	"github.com/Sternrassler/pagegen/pkg/unit"
	"github.com/Sternrassler/pagegen/pkg/variety"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Concurrent admits units in input order and processes them on up to
// MaxConcurrency goroutines.
//
// Admission reserves quota before a unit is handed to a goroutine, so
// in-flight units count against the limits and the set of skipped units is
// the same as in sequential mode. Results are sorted by sequence number.
type Concurrent struct {
	engine
}

// NewConcurrent creates a concurrent runner. A non-positive MaxConcurrency
// falls back to the default of 5.
func NewConcurrent(p Processor, limiter *quota.Limiter, tracker *variety.Tracker, cfg Config) *Concurrent {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	return &Concurrent{engine: newEngine(ModeConcurrent, p, limiter, tracker, cfg)}
}

// Run processes units. It returns ErrInvalidInput for an empty batch. When
// ctx ends mid-run, in-flight units are cancelled and dropped, and the units
// finished so far are returned with ctx.Err().
func (c *Concurrent) Run(ctx context.Context, units []unit.WorkUnit) (*BatchResult, error) {
	if len(units) == 0 {
		return nil, ErrInvalidInput
	}

	b := c.begin(units)
	gate := semaphore.NewWeighted(int64(c.config.MaxConcurrency))
	var g errgroup.Group

	for _, u := range units {
		if ctx.Err() != nil {
			break
		}

		// Wait for a free slot before admitting, so the breaker sees the
		// outcomes of earlier units.
		if err := gate.Acquire(ctx, 1); err != nil {
			break
		}

		res := c.admit(b, u)
		if res == nil {
			gate.Release(1)
			continue
		}

		u := u
		g.Go(func() error {
			defer gate.Release(1)
			return c.process(ctx, b, u, res)
		})
	}

	if err := g.Wait(); err != nil {
		b.logger.Debug().Err(err).Msg("Some units did not finish")
	}

	err := ctx.Err()
	return c.finish(b, err != nil), err
}
