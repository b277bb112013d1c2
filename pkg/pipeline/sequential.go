package pipeline

import (
	"context"

	"github.com/Sternrassler/pagegen/pkg/quota"
	"github.com/Sternrassler/pagegen/pkg/unit"
	"github.com/Sternrassler/pagegen/pkg/variety"
)

// Sequential processes admitted units one at a time in input order.
type Sequential struct {
	engine
}

// NewSequential creates a sequential runner.
func NewSequential(p Processor, limiter *quota.Limiter, tracker *variety.Tracker, cfg Config) *Sequential {
	return &Sequential{engine: newEngine(ModeSequential, p, limiter, tracker, cfg)}
}

// Run processes units. It returns ErrInvalidInput for an empty batch. When
// ctx ends mid-run, the units finished so far are returned with ctx.Err().
func (s *Sequential) Run(ctx context.Context, units []unit.WorkUnit) (*BatchResult, error) {
	if len(units) == 0 {
		return nil, ErrInvalidInput
	}

	b := s.begin(units)

	for _, u := range units {
		if ctx.Err() != nil {
			break
		}
		res := s.admit(b, u)
		if res == nil {
			continue
		}
		if err := s.process(ctx, b, u, res); err != nil && ctx.Err() != nil {
			break
		}
	}

	err := ctx.Err()
	return s.finish(b, err != nil), err
}
