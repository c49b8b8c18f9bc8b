package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_PostsPromptAndConvertsVector(t *testing.T) {
	var gotReq embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"embedding": [0.25, -1.5]}`))
	}))
	defer srv.Close()

	e := NewEmbedder(srv.URL, "nomic-embed-text")

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", gotReq.Model)
	assert.Equal(t, "hello", gotReq.Prompt)
	assert.Equal(t, []float32{0.25, -1.5}, vec)
}

func TestEmbedBatch_EmbedsSequentially(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompts = append(prompts, req.Prompt)
		w.Write([]byte(`{"embedding": [1]}`))
	}))
	defer srv.Close()

	e := NewEmbedder(srv.URL, "nomic-embed-text")

	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, prompts)
	assert.Len(t, vectors, 3)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewEmbedder(srv.URL, "missing")

	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGenerate_ReturnsResponseField(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"response": "a ranking"}`))
	}))
	defer srv.Close()

	c := NewChatModel(srv.URL, "deepseek-r1:7b")

	out, err := c.Generate(context.Background(), "rank")
	require.NoError(t, err)

	assert.Equal(t, "a ranking", out)
	assert.Equal(t, "deepseek-r1:7b", gotReq.Model)
	assert.False(t, gotReq.Stream)
}
