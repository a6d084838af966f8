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

	"github.com/pulseboard/pulseboard-backend/internal/analytics"
	"github.com/pulseboard/pulseboard-backend/internal/api"
	"github.com/pulseboard/pulseboard-backend/internal/config"
	gdb "github.com/pulseboard/pulseboard-backend/internal/db"
	"github.com/pulseboard/pulseboard-backend/internal/log"
	"github.com/pulseboard/pulseboard-backend/internal/metrics"
	"github.com/pulseboard/pulseboard-backend/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting Pulseboard API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
		"db_backend", cfg.Database.Backend,
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("pulseboard-api")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// The database handle is owned here and closed explicitly on shutdown
	db, err := gdb.NewDatabase(cfg.DB(), logger)
	if err != nil {
		logger.Fatalw("Failed to create database", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gdb.ConnectAndMigrate(ctx, db, cfg.Database.AutoMigrate); err != nil {
		logger.Fatalw("Failed to initialize database", "error", err)
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		if err := db.Disconnect(dctx); err != nil {
			logger.Errorw("Failed to disconnect database", "error", err)
		}
	}()
	logger.Infow("Database initialized")

	if cfg.Database.SeedFixtures && cfg.Database.Backend == gdb.BackendMemory {
		if err := db.Seed(ctx, gdb.PostFixtures()); err != nil {
			logger.Fatalw("Failed to seed fixtures", "error", err)
		}
	}

	// Response cache; disabled unless PB_DASHBOARD_CACHE_TTL is set
	cache, err := store.NewCache(cfg.Cache.RedisAddr, cfg.Cache.DashboardTTL, logger, metricsObj)
	if err != nil {
		logger.Fatalw("Failed to setup cache", "error", err)
	}
	defer cache.Close()
	if cache.Enabled() {
		logger.Infow("Response cache enabled", "ttl", cfg.Cache.DashboardTTL)
	}

	// Setup services
	analyticsSvc := analytics.NewService(db, logger, metricsObj)

	// Setup API handler and middleware
	handler := api.NewHandler(analyticsSvc, db, cache, cfg.Server.RequestTimeout, logger)
	middleware := api.NewMiddleware(logger, metricsObj)

	router := handler.Routes(middleware, metricsHandler, cfg.Security.CORSAllowedOrigins, cfg.Security.RateLimitRPM, cfg.Server.RequestTimeout)

	// Log configured CORS origins for easier debugging in dev
	logger.Infow("CORS configured", "allowed_origins", cfg.Security.CORSAllowedOrigins)

	// Setup HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("Server startup failed", "error", err)
		}
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
	}
}
