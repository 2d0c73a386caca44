package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/angkorcare/hospital-assistant/internal/api/router"
	"github.com/angkorcare/hospital-assistant/internal/availability"
	"github.com/angkorcare/hospital-assistant/internal/booking"
	appconfig "github.com/angkorcare/hospital-assistant/internal/config"
	"github.com/angkorcare/hospital-assistant/internal/http/handlers"
	"github.com/angkorcare/hospital-assistant/internal/observability/metrics"
	"github.com/angkorcare/hospital-assistant/internal/rag"
	"github.com/angkorcare/hospital-assistant/internal/render"
	"github.com/angkorcare/hospital-assistant/internal/session"
	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hospital-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Availability: seed from file when configured, compiled-in schedule otherwise.
	var store *availability.Store
	if cfg.AvailabilityFile != "" {
		providers, err := availability.LoadFile(cfg.AvailabilityFile)
		if err != nil {
			logger.Error("failed to load availability file", "error", err, "path", cfg.AvailabilityFile)
			os.Exit(1)
		}
		store = availability.NewStore(providers...)
	} else {
		store = availability.NewStore(availability.DefaultProviders()...)
	}

	// Session storage: in-memory by default, Redis when configured.
	var sessions session.Store
	if cfg.UseMemorySessions {
		memStore := session.NewMemoryStore(cfg.SessionIdleTimeout)
		memStore.StartJanitor(ctx, time.Minute)
		sessions = memStore
	} else {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(client, cfg.SessionIdleTimeout, nil)
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	// Gemini access is optional: without an API key the booking flow falls
	// back to canned confirmations and the Q&A path reports not ready.
	var generator booking.TextGenerator
	var assistant *rag.Assistant
	if cfg.GeminiAPIKey != "" {
		gemini, err := rag.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini generator", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		generator = gemini

		embedder, err := rag.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbedModel)
		if err != nil {
			logger.Error("failed to create gemini embedder", "error", err)
			os.Exit(1)
		}
		defer embedder.Close()

		retriever := rag.NewMemoryRetriever(embedder, logger)
		chunks, err := rag.LoadDocuments(cfg.DocsDir)
		if err != nil {
			logger.Error("failed to load documents", "error", err, "dir", cfg.DocsDir)
			os.Exit(1)
		}
		if err := retriever.AddDocuments(ctx, chunks); err != nil {
			logger.Error("failed to index documents", "error", err)
			os.Exit(1)
		}
		assistant = rag.NewAssistant(retriever, gemini, cfg.RAGTopK, cfg.HospitalPhone, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, running with canned confirmations and no Q&A")
		assistant = rag.NewAssistant(nil, nil, cfg.RAGTopK, cfg.HospitalPhone, logger)
	}

	renderer, err := render.NewPDFRenderer(cfg.DocumentDir, logger)
	if err != nil {
		logger.Error("failed to create document renderer", "error", err)
		os.Exit(1)
	}

	engine := booking.NewEngine(
		store,
		sessions,
		booking.NewConfirmationGenerator(generator, bookingMetrics, logger),
		renderer,
		bookingMetrics,
		logger,
	)

	r := router.New(&router.Config{
		Logger:             logger,
		Booking:            handlers.NewBookingHandler(engine, logger),
		Query:              handlers.NewQueryHandler(assistant, logger),
		Providers:          handlers.NewProvidersHandler(store),
		AdminAvailability:  handlers.NewAdminAvailabilityHandler(store),
		AdminToken:         cfg.AdminToken,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
