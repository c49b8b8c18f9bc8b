package ai

import (
	"context"

	"paperscout/internal/retry"
)

type retryingEmbedder struct {
	next   Embedder
	policy retry.Policy
}

// WithRetry wraps an Embedder so transient provider failures are retried with
// exponential backoff. Permanent failures pass through untouched.
func WithRetry(e Embedder, p retry.Policy) Embedder {
	return &retryingEmbedder{next: e, policy: p}
}

func (r *retryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := retry.Do(ctx, r.policy, IsTransient, func() error {
		var opErr error
		out, opErr = r.next.Embed(ctx, text)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *retryingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := retry.Do(ctx, r.policy, IsTransient, func() error {
		var opErr error
		out, opErr = r.next.EmbedBatch(ctx, texts)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
