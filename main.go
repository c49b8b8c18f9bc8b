package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"paperscout/features/digest"
	"paperscout/internal/adapter/telegram"
	"paperscout/internal/ai"
	"paperscout/internal/app"
	"paperscout/internal/config"
	"paperscout/internal/logger"
)

func main() {
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := ai.NewEmbedder(ctx, cfg)
	if err != nil {
		slog.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}

	llm, err := ai.NewChatModel(ctx, cfg)
	if err != nil {
		slog.Error("failed to create chat model", "error", err)
		os.Exit(1)
	}

	var notifier digest.Notifier
	if cfg.TelegramBotToken != "" {
		notifier = telegram.NewSender(cfg.TelegramBotToken)
		slog.Info("telegram delivery enabled")
	}

	application := app.New(cfg, embedder, llm, notifier)
	if err := application.Run(ctx); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
