package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/gorules/internal/api"
	"github.com/TimurManjosov/gorules/internal/audit"
	"github.com/TimurManjosov/gorules/internal/auth"
	"github.com/TimurManjosov/gorules/internal/config"
	"github.com/TimurManjosov/gorules/internal/engine"
	"github.com/TimurManjosov/gorules/internal/evaluation"
	"github.com/TimurManjosov/gorules/internal/logging"
	"github.com/TimurManjosov/gorules/internal/store"
	"github.com/TimurManjosov/gorules/internal/telemetry"
)

const serviceName = "gorules"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "json", os.Stderr).Error().Err(err).Msg("config")
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.Init()
	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, cfg.OTLPTraceEndpoint)
	if err != nil {
		logger.Error().Err(err).Msg("tracing")
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	st, err := store.NewStore(ctx, cfg.StoreType, cfg.StoreDSN())
	if err != nil {
		logger.Error().Err(err).Str("store", cfg.StoreType).Msg("store")
		return err
	}
	defer st.Close()
	logger.Info().Str("store", cfg.StoreType).Msg("store ready")

	eng := engine.New(engine.WithAttributes(cfg.RuleAttributes...))
	svc := evaluation.NewService(st, eng, logger.With().Str("component", "rules").Logger())
	if err := svc.RefreshSnapshot(ctx); err != nil {
		logger.Error().Err(err).Msg("load rules")
		return err
	}
	snap := svc.Snapshot()
	logger.Info().Int("rules", len(snap.Rules)).Str("etag", snap.ETag).Strs("attributes", eng.Attributes()).Msg("snapshot loaded")

	auditor := audit.NewService(
		audit.NewLogSink(logger.With().Str("component", "audit").Logger()),
		audit.SystemClock{},
		audit.UUIDGenerator{},
		audit.NewDefaultRedactor(),
		logger,
		1024,
	)
	defer auditor.Close()

	authn := auth.NewAuthenticator(cfg.AdminAPIKey, cfg.AdminAPIKeyHashes)
	srvAPI := api.NewServer(svc, authn, auditor, logger, api.Options{
		RateLimitPerIP: cfg.RateLimitPerIP,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srvAPI.Router(),
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 2)
	serve(logger, srv, "api", errCh)
	serve(logger, metricsSrv, "metrics", errCh)

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err = <-errCh:
	}

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	logger.Info().Msg("stopped")
	return err
}

// serve runs srv in the background. A listen failure such as a port already
// in use is logged with the address and reported on errCh.
func serve(logger zerolog.Logger, srv *http.Server, name string, errCh chan<- error) {
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("server", name).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", srv.Addr).Str("server", name).Msg("listen failed")
			errCh <- err
		}
	}()
}
