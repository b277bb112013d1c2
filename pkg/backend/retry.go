package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/pagegen/pkg/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for the retry executor.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay scales the linear backoff: the wait before retry n
	// (1-based) is n * BaseDelay.
	BaseDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
	}
}

// InvokeFunc performs one backend attempt.
type InvokeFunc func(ctx context.Context) (string, error)

// Executor calls a backend until its response yields a JSON payload.
type Executor struct {
	config RetryConfig
	logger zerolog.Logger
}

// NewExecutor creates a retry executor.
func NewExecutor(cfg RetryConfig, logger zerolog.Logger) *Executor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	return &Executor{config: cfg, logger: logger}
}

// MaxRetries returns the configured retry count.
func (e *Executor) MaxRetries() int {
	return e.config.MaxRetries
}

// CallWithRetry runs invoke up to maxRetries+1 times and returns the first
// extracted payload together with the raw text it came from.
//
// Backend errors and unparseable responses are retried alike. When every
// attempt is used up, the result is (nil, lastRawText, nil) if the final
// attempt returned text, or an error wrapping ErrRetryExhausted and the
// backend error if the final attempt failed outright. A cancelled ctx stops
// the loop and returns ctx.Err().
func (e *Executor) CallWithRetry(ctx context.Context, invoke InvokeFunc, maxRetries int) (map[string]any, string, error) {
	return e.call(ctx, invoke, nil, maxRetries)
}

// CallWithRetryAndValidate is CallWithRetry that additionally requires every
// key in requiredKeys to be present in the payload. A payload missing keys is
// retried like a parse failure.
func (e *Executor) CallWithRetryAndValidate(ctx context.Context, invoke InvokeFunc, requiredKeys []string, maxRetries int) (map[string]any, string, error) {
	return e.call(ctx, invoke, requiredKeys, maxRetries)
}

func (e *Executor) call(ctx context.Context, invoke InvokeFunc, requiredKeys []string, maxRetries int) (map[string]any, string, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var (
		payload  map[string]any
		raw      string
		lastErr  error
		attempts int
	)

	operation := func() error {
		attempt := attempts
		attempts++

		text, err := invoke(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			lastErr = err
			e.logger.Debug().Err(err).Int("attempt", attempt).Msg("Backend attempt failed")
			return err
		}
		raw = text
		lastErr = nil

		parsed, ok := Extract(text)
		if !ok {
			e.logger.Debug().Int("attempt", attempt).Int("response_len", len(text)).Msg("No JSON payload in response")
			return ErrNoPayload
		}
		if missing := missingKeys(parsed, requiredKeys); len(missing) > 0 {
			e.logger.Debug().Int("attempt", attempt).Strs("missing", missing).Msg("Payload missing required keys")
			return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
		}
		payload = parsed
		return nil
	}

	notify := func(err error, wait time.Duration) {
		metrics.RetriesTotal.WithLabelValues(retryReason(err)).Inc()
		metrics.RetryBackoffSeconds.Observe(wait.Seconds())
		e.logger.Warn().
			Err(err).
			Int("attempt", attempts-1).
			Dur("backoff", wait).
			Msg("Retrying backend call after backoff")
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if maxRetries > 0 {
		policy = backoff.WithMaxRetries(&linearBackOff{base: e.config.BaseDelay}, uint64(maxRetries))
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify)
	if err == nil {
		if attempts > 1 {
			e.logger.Info().Int("attempts", attempts).Msg("Backend call succeeded after retry")
		}
		return payload, raw, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		e.logger.Debug().Int("attempts", attempts).Msg("Backend call cancelled")
		return nil, raw, ctxErr
	}

	metrics.RetryExhaustedTotal.WithLabelValues(retryReason(err)).Inc()
	if lastErr != nil {
		e.logger.Error().
			Err(lastErr).
			Int("attempts", attempts).
			Msg("Retry attempts exhausted")
		return nil, raw, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
	}

	e.logger.Warn().
		Int("attempts", attempts).
		Err(err).
		Msg("No usable payload after all attempts")
	return nil, raw, nil
}

// linearBackOff waits base, 2*base, 3*base, ... between attempts.
type linearBackOff struct {
	base  time.Duration
	tries int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.tries++
	return b.base * time.Duration(b.tries)
}

func (b *linearBackOff) Reset() {
	b.tries = 0
}
