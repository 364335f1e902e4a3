package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/safeguard-ops/dispatch-console/internal/adapter/alert"
	"github.com/safeguard-ops/dispatch-console/internal/adapter/api"
	"github.com/safeguard-ops/dispatch-console/internal/adapter/docstore"
	"github.com/safeguard-ops/dispatch-console/internal/adapter/feed"
	"github.com/safeguard-ops/dispatch-console/internal/adapter/overpass"
	"github.com/safeguard-ops/dispatch-console/internal/config"
	"github.com/safeguard-ops/dispatch-console/internal/identity"
	"github.com/safeguard-ops/dispatch-console/internal/locate"
	"github.com/safeguard-ops/dispatch-console/internal/observability"
	"github.com/safeguard-ops/dispatch-console/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Alert queue is feature-flagged via REDIS_ADDR.
	var alertSink stream.AlertSink
	var redisClose func() error
	if cfg.RedisAddr != "" {
		client, err := alert.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to alert queue", "error", err)
			os.Exit(1)
		}
		alertSink = alert.NewPublisher(client, cfg.AlertQueueKey)
		redisClose = client.Close
		logger.Info("alert queue enabled", "queue", cfg.AlertQueueKey)
	} else {
		logger.Info("alert queue disabled")
	}

	store := docstore.NewClient(cfg.DocstoreBaseURL, cfg.DocstoreTimeout, logger)
	index := overpass.NewClient(cfg.OverpassURL, cfg.OverpassTimeout, logger)
	locator := locate.New(index, cfg.POIRadiusMeters, cfg.OverpassTimeout, logger, metrics)

	reader := feed.NewReader(cfg, logger)
	session := stream.New(reader, store, alertSink, logger, metrics)

	verifier := identity.NewVerifier(cfg.JWTSecret)

	// The session subscribes only under a verified operator identity; with no
	// token it stays disconnected and serves an empty set.
	var operator *identity.Operator
	if cfg.OperatorToken != "" {
		operator, err = verifier.Verify(cfg.OperatorToken)
		if err != nil {
			logger.Error("operator token invalid", "error", err)
			os.Exit(1)
		}
	}
	if err := session.Start(operator); err != nil {
		logger.Error("failed to start feed session", "error", err)
		os.Exit(1)
	}

	srv := api.NewServer(cfg.HTTPAddr, api.Deps{
		Session:  session,
		Locator:  locator,
		Records:  store,
		Verifier: verifier,
		Logger:   logger,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	session.Stop()
	locator.Clear()
	if redisClose != nil {
		if err := redisClose(); err != nil {
			logger.Error("alert queue close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
