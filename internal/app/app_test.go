package app

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"paperscout/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type stubChatModel struct{}

func (stubChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	return "ranking", nil
}

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{
		ServerPort:            8081,
		EmbeddingProvider:     "openai",
		LLMProvider:           "openai",
		TechNewsTopic:         "machine learning",
		PaperSources:          "arxiv,semantic_scholar",
		MaxPapers:             15,
		ChunkSize:             1000,
		ChunkOverlap:          100,
		RetrievalTopK:         5,
		EmbedMaxRetries:       3,
		EmbedRetryBaseSeconds: 2,
		SourceTimeoutSeconds:  10,
		QueryLogPath:          t.TempDir() + "/query.log",
	}
	require.NoError(t, cfg.Validate())
	return New(cfg, stubEmbedder{}, stubChatModel{}, nil)
}

func TestNew_HealthRoute(t *testing.T) {
	a := testApp(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNew_MCPToolsAreWired(t *testing.T) {
	a := testApp(t)

	body := `{"jsonrpc": "2.0", "method": "tools/list", "id": 1}`
	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	names := make([]string, len(resp.Result.Tools))
	for i, tool := range resp.Result.Tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"update_knowledge_base", "query_rag"}, names)
}
