// Package digest produces a ranked tech-news digest from the knowledge base
// and optionally delivers it to a chat channel.
package digest

import (
	"context"
	"fmt"
	"log/slog"

	"paperscout/internal/ai"
	"paperscout/internal/retrieval"
	"paperscout/internal/retry"
)

const ragQuestion = "Which papers or research present significant technological innovations, performance improvements, or recent advances in AI, machine learning, or computing?"

const rankingPromptTemplate = `You are a tech news editor. Based ONLY on the context below (retrieved via RAG of academic papers),
create a Top 5 Ranking of the most relevant and impactful research/discoveries in technology. Do not humanize the output (avoid greetings, etc.).

Focus on:
- Significant technological innovations
- Performance improvements
- Recent advances in AI, ML, computing
- Potential impact on industry

RAG CONTEXT:
%s

OUTPUT FORMAT:
1. [Research Title] (Score 0.0-5.0)
   - Innovation: [What is new/important about this research]
   - Impact: [Why this is important for tech]
   - Link: [Paper link]
   - Source: [Source of the paper]`

// KnowledgeBase is the retrieval surface the digest consumes.
type KnowledgeBase interface {
	UpdateKnowledgeBase(ctx context.Context, topic string, maxPapers int, sourceIDs []string) string
	QueryRAG(ctx context.Context, question string) string
}

// ChatModel ranks the retrieved context.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers the finished ranking. Nil disables delivery.
type Notifier interface {
	SendRanking(ctx context.Context, chatID, ranking, topic string) error
}

type Config struct {
	Topic     string
	Sources   []string
	MaxPapers int
	ChatID    string
	Retry     retry.Policy
}

type Service struct {
	kb       KnowledgeBase
	llm      ChatModel
	notifier Notifier
	cfg      Config
}

func NewService(kb KnowledgeBase, llm ChatModel, notifier Notifier, cfg Config) *Service {
	return &Service{kb: kb, llm: llm, notifier: notifier, cfg: cfg}
}

// Run executes the full digest pipeline: ingest the configured topic, query
// the knowledge base for innovations, rank them with the LLM and deliver the
// result. Delivery failures are logged but do not fail the run.
func (s *Service) Run(ctx context.Context) (string, error) {
	ingestResult := s.kb.UpdateKnowledgeBase(ctx, s.cfg.Topic, s.cfg.MaxPapers, s.cfg.Sources)
	slog.InfoContext(ctx, "knowledge base update finished", "result", ingestResult)

	ragContext := s.kb.QueryRAG(ctx, ragQuestion)
	if ragContext == retrieval.EmptyKnowledgeBaseMessage {
		return "", fmt.Errorf("knowledge base is empty after ingestion: %s", ingestResult)
	}

	prompt := fmt.Sprintf(rankingPromptTemplate, ragContext)

	var ranking string
	err := retry.Do(ctx, s.cfg.Retry, ai.IsTransient, func() error {
		var genErr error
		ranking, genErr = s.llm.Generate(ctx, prompt)
		return genErr
	})
	if err != nil {
		return "", fmt.Errorf("generating ranking: %w", err)
	}

	if s.notifier != nil && s.cfg.ChatID != "" {
		if err := s.notifier.SendRanking(ctx, s.cfg.ChatID, ranking, s.cfg.Topic); err != nil {
			slog.ErrorContext(ctx, "failed to deliver digest", "error", err)
		} else {
			slog.InfoContext(ctx, "digest delivered", "chat_id", s.cfg.ChatID)
		}
	}

	return ranking, nil
}
