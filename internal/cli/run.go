package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/pagegen/pkg/backend"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type runOptions struct {
	unitsPath   string
	outPath     string
	mode        string
	concurrency int
	metricsAddr string

	// backend replaces the HTTP backend in tests.
	backend backend.Backend
}

func newRunCmd(opts *options) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a batch of work units",
		Example: `  pagegen run --units units.json --out result.json
  cat units.json | pagegen run --mode concurrent --concurrency 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, ro)
		},
	}

	cmd.Flags().StringVar(&ro.unitsPath, "units", "-", "JSON array of work units (- for stdin)")
	cmd.Flags().StringVar(&ro.outPath, "out", "-", "result file (- for stdout)")
	cmd.Flags().StringVar(&ro.mode, "mode", "", "pipeline mode: sequential or concurrent (overrides config)")
	cmd.Flags().IntVar(&ro.concurrency, "concurrency", 0, "max concurrent units (overrides config)")
	cmd.Flags().StringVar(&ro.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	return cmd
}

func runBatch(cmd *cobra.Command, opts *options, ro *runOptions) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	if ro.mode != "" {
		cfg.Pipeline.Mode = ro.mode
	}
	if ro.concurrency != 0 {
		cfg.Pipeline.MaxConcurrency = ro.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	units, err := readUnits(ro.unitsPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, ro.backend, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if ro.metricsAddr != "" {
		srv := serveMetrics(ro.metricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", ro.metricsAddr).Msg("Serving metrics")
	}

	result, runErr := a.runner.Run(ctx, units)
	if result == nil {
		return runErr
	}

	// The run context may be cancelled; persist with a fresh one.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.saveHistory(saveCtx)

	if err := writeResult(ro.outPath, cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		logger.Warn().
			Int("processed", result.TotalProcessed).
			Msg("Run interrupted, wrote partial result")
	}
	return runErr
}

func serveMetrics(addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}
