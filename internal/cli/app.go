package cli

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Sternrassler/pagegen/pkg/backend"
	"github.com/Sternrassler/pagegen/pkg/config"
	"github.com/Sternrassler/pagegen/pkg/logging"
	"github.com/Sternrassler/pagegen/pkg/observe"
	"github.com/Sternrassler/pagegen/pkg/pipeline"
	"github.com/Sternrassler/pagegen/pkg/processor"
	"github.com/Sternrassler/pagegen/pkg/quota"
	"github.com/Sternrassler/pagegen/pkg/request"
	"github.com/Sternrassler/pagegen/pkg/store"
	"github.com/Sternrassler/pagegen/pkg/variety"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app is the wired pagegen stack for one invocation.
type app struct {
	runner   pipeline.Runner
	tracker  *variety.Tracker
	registry *request.Registry
	redis    *redis.Client
	history  *store.HistoryStore
	recorder *store.Recorder
	logger   zerolog.Logger
}

// buildApp wires the stack described by cfg. The backend argument overrides
// the HTTP backend when non-nil.
func buildApp(ctx context.Context, cfg *config.Config, be backend.Backend, logger zerolog.Logger) (*app, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	registry, err := request.NewRegistryFrom(cfg.Definitions(), rng)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	a := &app{
		registry: registry,
		tracker:  variety.NewTracker(rand.New(rand.NewSource(rng.Int63())), logging.NewLogger("variety")),
		logger:   logger,
	}

	observers := observe.Multi{
		observe.NewLogObserver(logging.NewLogger("observe")),
		observe.NewMetricsObserver(),
	}

	if cfg.Redis.Enabled {
		a.redis, err = store.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		a.history = store.NewHistoryStore(a.redis, cfg.StoreConfig(), logging.NewLogger("store"))
		a.recorder = store.NewRecorder(a.redis, cfg.StoreConfig(), logging.NewLogger("store"))
		observers = append(observers, a.recorder)

		n, err := a.history.Load(ctx, a.tracker)
		if err != nil {
			logger.Warn().Err(err).Msg("Variety history partially loaded")
		}
		logger.Info().Int("categories", n).Msg("Variety history restored")
	}

	if be == nil {
		if cfg.Backend.APIKey == "" {
			logger.Warn().Msg("No backend API key configured")
		}
		be, err = backend.NewHTTPBackend(cfg.HTTPConfig(), observers, logging.NewLogger("backend"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create backend: %w", err)
		}
	}

	proc, err := processor.New(processor.Config{
		Registry: registry,
		Tracker:  a.tracker,
		Executor: backend.NewExecutor(cfg.RetryConfig(), logging.NewLogger("retry")),
		Backend:  be,
		Logger:   logging.NewLogger("processor"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	pc := cfg.PipelineConfig()
	pc.Observer = observers
	pc.Logger = logging.NewLogger("pipeline")

	limiter := quota.NewLimiter(cfg.Limits, logging.NewLogger("quota"))
	a.runner, err = pipeline.New(cfg.Pipeline.Mode, proc, limiter, a.tracker, pc)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// saveHistory persists the variety history when Redis is enabled.
func (a *app) saveHistory(ctx context.Context) {
	if a.history == nil {
		return
	}
	if err := a.history.Save(ctx, a.tracker); err != nil {
		a.logger.Error().Err(err).Msg("Failed to save variety history")
	}
}

// Close releases the Redis connection.
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}
