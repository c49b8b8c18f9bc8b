// Package ai defines the model-provider contracts and selects concrete
// implementations from configuration.
package ai

import "context"

// Embedder turns text into dense vectors. Implementations must return vectors
// of a consistent dimension for the lifetime of the process.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces a completion for a single prompt.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
