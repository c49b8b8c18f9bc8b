// Package app wires the adapters, services and HTTP routes together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"paperscout/features/digest"
	"paperscout/features/mcp"
	"paperscout/internal/adapter/arxiv"
	"paperscout/internal/adapter/semanticscholar"
	"paperscout/internal/ai"
	"paperscout/internal/config"
	"paperscout/internal/middleware"
	"paperscout/internal/retrieval"
	"paperscout/internal/retry"
	"paperscout/internal/source"
	"paperscout/internal/vectorindex"
)

type App struct {
	cfg    *config.Config
	server *http.Server
}

// New builds the full application graph from configuration and the provider
// clients chosen by the factory.
func New(cfg *config.Config, embedder ai.Embedder, llm ai.ChatModel, notifier digest.Notifier) *App {
	aggregator := source.NewAggregator(
		arxiv.NewClient(cfg.SourceTimeout()),
		semanticscholar.NewClient(cfg.SemanticScholarAPIKey, cfg.SourceTimeout()),
	)

	retryPolicy := retry.Policy{
		MaxAttempts: cfg.EmbedMaxRetries,
		BaseDelay:   cfg.EmbedRetryBase(),
	}
	retryingEmbedder := ai.WithRetry(embedder, retryPolicy)

	index := vectorindex.New()

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(aggregator, retryingEmbedder, index, queryLogger, retrieval.Options{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		TopK:         cfg.RetrievalTopK,
	})

	mcpHandler := mcp.NewHandler(retrievalService)

	digestService := digest.NewService(retrievalService, llm, notifier, digest.Config{
		Topic:     cfg.TechNewsTopic,
		Sources:   cfg.SourceIDs(),
		MaxPapers: cfg.MaxPapers,
		ChatID:    cfg.TelegramChatID,
		Retry:     retryPolicy,
	})
	digestHandler := digest.NewHandler(digestService)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", middleware.CorrelationID(mcpHandler))
	mux.Handle("GET /mcp/sse", middleware.CorrelationID(enableCORS(mcpHandler.HandleSSE)))
	mux.Handle("POST /mcp/messages", middleware.CorrelationID(enableCORS(mcpHandler.HandleMessage)))
	mux.Handle("POST /digest", middleware.CorrelationID(enableCORS(digestHandler.Generate)))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		cfg: cfg,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", a.cfg.ServerPort)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
