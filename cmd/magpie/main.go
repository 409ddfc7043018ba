package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/corvid-labs/magpie/internal/answer"
	"github.com/corvid-labs/magpie/internal/api"
	"github.com/corvid-labs/magpie/internal/config"
	"github.com/corvid-labs/magpie/internal/embed"
	"github.com/corvid-labs/magpie/internal/events"
	"github.com/corvid-labs/magpie/internal/extract"
	"github.com/corvid-labs/magpie/internal/index"
	"github.com/corvid-labs/magpie/internal/ingest"
	"github.com/corvid-labs/magpie/internal/llm"
	"github.com/corvid-labs/magpie/internal/orchestrator"
	"github.com/corvid-labs/magpie/internal/retrieval"
	"github.com/corvid-labs/magpie/internal/store"
	"github.com/corvid-labs/magpie/internal/websearch"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("magpie starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// Together clients: chat completion and embeddings
	if cfg.TogetherAPIKey == "" {
		slog.Error("TOGETHER_API_KEY is required")
		os.Exit(1)
	}
	generator := llm.NewClient(cfg.TogetherURL, cfg.TogetherAPIKey, cfg.TogetherModel)
	embedder := embed.NewClient(cfg.TogetherURL, cfg.TogetherAPIKey, cfg.EmbedModel)
	slog.Info("together clients ready", "model", cfg.TogetherModel, "embed_model", cfg.EmbedModel)

	// Tavily
	if cfg.TavilyAPIKey == "" {
		slog.Error("TAVILY_API_KEY is required")
		os.Exit(1)
	}
	web := websearch.NewClient(cfg.TavilyURL, cfg.TavilyAPIKey)

	// NATS (optional — magpie works without it, just no events)
	var ingestEvents ingest.EventPublisher
	var queryEvents orchestrator.EventPublisher
	if cfg.NatsURL != "" {
		pub, err := events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		ingestEvents = pub
		queryEvents = pub
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without events")
	}

	// Shared in-memory vector index and the ingestion pipeline
	ix := index.New()
	pipeline := ingest.New(
		db,
		embedder,
		ix,
		extract.NewPlainText(),
		extract.NewPDFService(cfg.PDFServiceURL),
		ingestEvents,
		slog.Default(),
	)

	// Query path: retrieval, synthesis, orchestration
	retriever := retrieval.New(embedder, ix, slog.Default())
	synth := answer.New(generator, slog.Default())
	orch := orchestrator.New(retriever, web, synth, db, queryEvents, slog.Default())

	// HTTP API
	srv := api.NewServer(cfg.Port, db, pipeline, orch, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("magpie ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("magpie stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
