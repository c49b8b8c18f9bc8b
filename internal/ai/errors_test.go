package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("Rate limit exceeded, try again later"), true},
		{"http 429", fmt.Errorf("openai embeddings returned status 429: too many requests"), true},
		{"quota", errors.New("quota exceeded for this project"), true},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = resource exhausted"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"deadline", errors.New("context deadline exceeded"), true},
		{"bad gateway", errors.New("upstream returned status 502: bad gateway"), true},
		{"unavailable", errors.New("service unavailable"), true},
		{"auth failure", errors.New("invalid api key"), false},
		{"bad request", errors.New("openai embeddings returned status 400: bad request"), false},
		{"generic", errors.New("something else went wrong"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
