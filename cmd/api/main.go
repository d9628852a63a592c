// Package main is the entry point for the SafeWalk API server.
//
// It loads configuration, initializes the hazard store backend (flat file
// or Postgres), wires the external provider clients and the route planner,
// builds the HTTP server with the core chassis (middleware, routing,
// health checks), and optionally starts the sensor ingestion listener.
//
// The HTTP server and the sensor listener run under a shared errgroup;
// graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"safewalk/internal/api/handlers"
	"safewalk/internal/config"
	"safewalk/internal/core"
	"safewalk/internal/danger"
	"safewalk/internal/external"
	"safewalk/internal/routing"
	"safewalk/internal/sensor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit
// on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("safewalk API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"sensor_enabled", cfg.Sensor.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, probe, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing hazard store: %w", err)
	}
	defer cleanup()

	registry := external.NewClientRegistry(cfg, logger)

	planner := routing.NewPlanner(registry.Routes, registry.POI, routing.DefaultSafeHubs, routing.Options{
		ProximityM:       cfg.Routing.ProximityM,
		POIRadiusM:       cfg.Routing.POIRadiusM,
		MaxPOIDetours:    cfg.Routing.MaxPOIDetours,
		WalkSpeedMPerMin: cfg.Routing.WalkSpeedMPerMin,
	}, logger)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = []core.HealthProbe{probe}

	locator := handlers.JitteredLocator(cfg.Routing.DefaultLat, cfg.Routing.DefaultLng, cfg.Routing.JitterDeg)

	dangerHandler := handlers.NewDangerHandler(store, locator, srv.Validator, logger)
	routeHandler := handlers.NewRouteHandler(planner, store, registry.DirectionsConfigured, srv.Validator, logger)
	searchHandler := handlers.NewSearchHandler(registry.Geocoder, logger)

	srv.Registrars = append(srv.Registrars,
		func(r chi.Router) { dangerHandler.RegisterRoutes(r) },
		func(r chi.Router) { routeHandler.RegisterRoutes(r) },
		func(r chi.Router) { searchHandler.RegisterRoutes(r) },
	)
	srv.MountRoutes()

	group, groupCtx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Sensor.Enabled {
		listener := sensor.NewListener(
			cfg.Sensor.Addr,
			cfg.Sensor.Token,
			cfg.Sensor.RetryDelay,
			store,
			sensor.Locator(locator),
			logger,
		)
		group.Go(func() error {
			// The listener only ever returns the cancellation error; an
			// unreachable sensor must not take the API down.
			if err := listener.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("sensor listener: %w", err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newStore builds the configured hazard store backend. It returns the
// store, its health probe, and a cleanup function for owned resources.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (danger.Store, core.HealthProbe, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.Store.DatabaseURL.Unmask())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.Store.MaxConns)

		connCtx, cancel := context.WithTimeout(ctx, cfg.Store.ConnTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(connCtx, poolCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}

		store := danger.NewPostgresStore(pool, pool)
		return store, handlers.StoreProbe{Pinger: store}, pool.Close, nil

	default:
		store := danger.NewFileStore(cfg.Store.Path, logger)
		return store, handlers.StoreProbe{Pinger: store}, func() {}, nil
	}
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}
