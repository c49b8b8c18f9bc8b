package ai

import (
	"context"
	"fmt"
	"strings"

	"paperscout/internal/adapter/gemini"
	"paperscout/internal/adapter/ollama"
	"paperscout/internal/adapter/openai"
	"paperscout/internal/config"
)

// NewEmbedder builds the embedding client named by cfg.EmbeddingProvider.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch strings.ToLower(cfg.EmbeddingProvider) {
	case "openai":
		return openai.NewEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel, cfg.OpenAIBaseURL), nil
	case "gemini":
		return gemini.NewEmbedder(ctx, cfg.GeminiAPIKey)
	case "ollama":
		return ollama.NewEmbedder(cfg.OllamaBaseURL, cfg.LocalEmbeddingModel), nil
	default:
		return nil, fmt.Errorf("embedding provider %q not supported, use openai, gemini or ollama", cfg.EmbeddingProvider)
	}
}

// NewChatModel builds the completion client named by cfg.LLMProvider.
func NewChatModel(ctx context.Context, cfg *config.Config) (ChatModel, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		return openai.NewChatModel(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "gemini":
		return gemini.NewChatModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "ollama":
		return ollama.NewChatModel(cfg.OllamaBaseURL, cfg.OllamaChatModel), nil
	default:
		return nil, fmt.Errorf("llm provider %q not supported, use openai, gemini or ollama", cfg.LLMProvider)
	}
}
