// Package main provides the quotation engine API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cityfire/quotation-engine/internal/cache"
	"github.com/cityfire/quotation-engine/internal/config"
	"github.com/cityfire/quotation-engine/internal/extract"
	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/storage"
)

func main() {
	// Load .env if present; environment overrides config file values.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "quotation-api",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting quotation API")

	ctx := context.Background()

	openCfg := storage.OpenConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.DatabaseDSN(),
	}
	if cfg.Database.Driver == "postgres" {
		openCfg.MaxOpenConns = cfg.Database.Postgres.MaxOpenConns
		openCfg.MaxIdleConns = cfg.Database.Postgres.MaxIdleConns
		openCfg.ConnMaxLifetime = cfg.Database.Postgres.ConnMaxLifetime
	} else {
		openCfg.MaxOpenConns = cfg.Database.SQLite.MaxOpenConns
	}

	db, err := storage.Open(ctx, openCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	repos := storage.NewRepositories(db)

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		cacheClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to redis")
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}
	defer cacheClient.Close()

	apiKey := cfg.OracleAPIKey()
	if apiKey == "" {
		logger.Warn().Str("env", cfg.Oracle.APIKeyEnv).Msg("Oracle API key not set; extraction routes will fail")
	}
	oracle, err := extract.NewGeminiOracle(ctx, apiKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create oracle client")
	}
	defer oracle.Close()

	ready := func() error { return db.PingContext(context.Background()) }
	router := NewRouter(cfg, logger, repos, cacheClient, oracle, ready)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
