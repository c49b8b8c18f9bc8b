// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrInvalidConfig wraps every validation failure so callers can test for
// configuration problems with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	ServerPort int `envconfig:"SERVER_PORT" default:"8081"`

	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER" default:"openai"`
	LLMProvider       string `envconfig:"LLM_PROVIDER" default:"openai"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envconfig:"OPENAI_BASE_URL"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	OpenAIModel          string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`

	OllamaBaseURL       string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	LocalEmbeddingModel string `envconfig:"LOCAL_EMBEDDING_MODEL" default:"nomic-embed-text"`
	OllamaChatModel     string `envconfig:"OLLAMA_CHAT_MODEL" default:"deepseek-r1:7b"`

	SemanticScholarAPIKey string `envconfig:"SEMANTIC_SCHOLAR_API_KEY"`

	TechNewsTopic string `envconfig:"TECH_NEWS_TOPIC" default:"artificial intelligence machine learning"`
	PaperSources  string `envconfig:"PAPER_SOURCES" default:"arxiv,semantic_scholar"`
	MaxPapers     int    `envconfig:"MAX_PAPERS" default:"15"`

	ChunkSize     int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"100"`
	RetrievalTopK int `envconfig:"RETRIEVAL_TOP_K" default:"5"`

	EmbedMaxRetries       int `envconfig:"EMBED_MAX_RETRIES" default:"3"`
	EmbedRetryBaseSeconds int `envconfig:"EMBED_RETRY_BASE_SECONDS" default:"2"`
	SourceTimeoutSeconds  int `envconfig:"SOURCE_TIMEOUT_SECONDS" default:"10"`

	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
}

// Load reads .env when present, then the process environment, and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", ErrInvalidConfig, c.ChunkOverlap)
	}
	if !isKnownProvider(c.EmbeddingProvider) {
		return fmt.Errorf("%w: unknown EMBEDDING_PROVIDER %q", ErrInvalidConfig, c.EmbeddingProvider)
	}
	if !isKnownProvider(c.LLMProvider) {
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", ErrInvalidConfig, c.LLMProvider)
	}
	if c.MaxPapers <= 0 {
		return fmt.Errorf("%w: MAX_PAPERS must be positive, got %d", ErrInvalidConfig, c.MaxPapers)
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("%w: RETRIEVAL_TOP_K must be positive, got %d", ErrInvalidConfig, c.RetrievalTopK)
	}
	return nil
}

func isKnownProvider(name string) bool {
	switch strings.ToLower(name) {
	case "openai", "gemini", "ollama":
		return true
	}
	return false
}

// SourceIDs returns the configured paper sources as a cleaned slice.
func (c *Config) SourceIDs() []string {
	parts := strings.Split(c.PaperSources, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.ToLower(strings.TrimSpace(p)); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSeconds) * time.Second
}

func (c *Config) EmbedRetryBase() time.Duration {
	return time.Duration(c.EmbedRetryBaseSeconds) * time.Second
}
