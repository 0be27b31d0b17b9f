package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/minbarlive/translation-relay/internal/config"
	"github.com/minbarlive/translation-relay/internal/observability"
	"github.com/minbarlive/translation-relay/internal/prompt"
	"github.com/minbarlive/translation-relay/internal/relay"
	"github.com/minbarlive/translation-relay/internal/sink"
	"github.com/minbarlive/translation-relay/internal/stt"
	"github.com/minbarlive/translation-relay/internal/tenant"
	"github.com/minbarlive/translation-relay/internal/translate"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("source_language", cfg.DefaultSourceLanguage).
		Str("target_language", cfg.DefaultTargetLanguage).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Translation Relay Service starting")

	// Postgres is optional: without it the relay runs broadcast-only with
	// default tenant configuration and the built-in prompt.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create database pool")
		}
		defer pool.Close()
		logger.Info().Msg("Database pool created")
	} else {
		logger.Warn().Msg("DATABASE_URL not set, running without tenant lookups and transcript storage")
	}

	tenants := tenant.NewStore(pool, logger)

	var resolver prompt.Resolver
	if pool != nil {
		resolver = prompt.NewDBResolver(pool, logger)
	} else {
		resolver = prompt.Static{}
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create translation provider")
	}

	hub := sink.NewHub(logger)
	defer hub.Close()
	store := sink.NewTranscriptStore(pool, logger)

	manager := relay.NewSessionManager(relay.SessionDeps{
		Config:   cfg,
		Tenants:  tenants,
		Resolver: resolver,
		Provider: provider,
		Notifier: hub,
		Store:    store,
		NewSTTClient: func(language string) stt.Client {
			return stt.NewDeepgramClient(cfg, language, logger)
		},
		Logger: logger,
	}, logger)

	// Create HTTP server
	mux := http.NewServeMux()

	// Speaker audio ingest and display broadcast endpoints
	mux.Handle("/ingest", relay.NewIngestHandler(manager, logger))
	mux.HandleFunc("/displays", hub.ServeDisplay)
	mux.Handle("/languages", relay.NewLanguageRequestHandler(manager, logger))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(readinessChecks(cfg, tenants)))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts. No write timeout: the ingest
	// and display websockets are long-lived.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/ingest", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Close room sessions first so in-flight translations finish and
	// session rows are marked closed.
	manager.Shutdown()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

func buildProvider(cfg *config.Config) (translate.Provider, error) {
	opts := []translate.OpenAIOption{
		translate.WithTimeout(60 * time.Second),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, translate.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return translate.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, opts...)
}

func readinessChecks(cfg *config.Config, tenants *tenant.Store) map[string]observability.HealthCheckFunc {
	return map[string]observability.HealthCheckFunc{
		"deepgram": func(ctx context.Context) (bool, error) {
			// Config validation only; no API call to avoid costs.
			client := stt.NewDeepgramClient(cfg, cfg.DefaultSourceLanguage, zerolog.Nop())
			if client == nil {
				return false, fmt.Errorf("failed to create Deepgram client")
			}
			return true, nil
		},
		"database": func(ctx context.Context) (bool, error) {
			if err := tenants.Ping(ctx); err != nil {
				return false, err
			}
			return true, nil
		},
	}
}
