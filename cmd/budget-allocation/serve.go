package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/budget-allocation/internal/allocation"
	"github.com/iwvelando/budget-allocation/internal/config"
	"github.com/iwvelando/budget-allocation/internal/profiles"
	"github.com/iwvelando/budget-allocation/internal/server"
	"github.com/iwvelando/budget-allocation/internal/session"
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// newSessionStore builds the configured snapshot store. The returned closer
// releases backend connections.
func newSessionStore(ctx context.Context, logger *zap.Logger, cfg config.SessionConfig) (session.Store, func(), error) {
	ttl, err := cfg.TTLDuration()
	if err != nil {
		// Already reported by ValidateConfiguration.
		ttl, _ = time.ParseDuration(constants.DefaultSessionTTL)
	}

	if cfg.Backend != constants.SessionBackendRedis {
		logger.Info("using in-memory preview sessions",
			zap.String("op", "main.newSessionStore"),
			zap.Duration("ttl", ttl),
		)
		return session.NewMemoryStore(ttl), func() {}, nil
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = constants.DefaultSessionKeyPrefix
	}
	store := session.NewRedisStore(cfg.RedisAddress, cfg.RedisDB, prefix, ttl)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddress, err)
	}

	logger.Info("using redis preview sessions",
		zap.String("op", "main.newSessionStore"),
		zap.String("address", cfg.RedisAddress),
		zap.Int("db", cfg.RedisDB),
		zap.Duration("ttl", ttl),
	)
	return store, func() { _ = store.Close() }, nil
}

// runServer serves the HTTP API until SIGINT or SIGTERM, then drains
// in-flight requests.
func runServer(logger *zap.Logger, conf *config.Configuration, engine *allocation.Engine, registry *profiles.Registry) error {
	opts, err := server.NewOptions(conf.Server, version)
	if err != nil {
		return err
	}

	store, closeStore, err := newSessionStore(context.Background(), logger, conf.Session)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:         opts.Address,
		Handler:      server.NewHandler(logger, engine, registry, store, opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("allocation API listening",
			zap.String("op", "main.runServer"),
			zap.String("address", opts.Address),
			zap.String("version", opts.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down",
			zap.String("op", "main.runServer"),
			zap.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	return nil
}
