// Package retrieval implements the knowledge-base facade: topic ingestion
// into the vector index and question answering over it.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"paperscout/internal/ai"
	"paperscout/internal/paper"
	"paperscout/internal/text"
	"paperscout/internal/vectorindex"
)

// EmptyKnowledgeBaseMessage is returned by QueryRAG before anything has been
// ingested.
const EmptyKnowledgeBaseMessage = "The knowledge base is empty. Use 'update_knowledge_base' first."

const fragmentSeparator = "\n---\n"

// Embedder is the slice of the embedding client this service needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Aggregator collects papers from the requested sources.
type Aggregator interface {
	Aggregate(ctx context.Context, query string, sourceIDs []string, perSourceLimit int) []paper.Document
}

// Options tunes splitting and retrieval. Zero values fall back to defaults.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = 100
	}
	if o.TopK <= 0 {
		o.TopK = 5
	}
	return o
}

// Service owns the ingestion pipeline and the query path over one shared
// in-memory index.
type Service struct {
	sources     Aggregator
	embedder    Embedder
	index       *vectorindex.Index
	queryLogger *QueryLogger
	opts        Options
}

func NewService(sources Aggregator, embedder Embedder, index *vectorindex.Index, queryLogger *QueryLogger, opts Options) *Service {
	return &Service{
		sources:     sources,
		embedder:    embedder,
		index:       index,
		queryLogger: queryLogger,
		opts:        opts.withDefaults(),
	}
}

// UpdateKnowledgeBase searches the requested sources for the topic, enriches
// and splits the results, embeds the fragments and appends them to the index.
// The outcome is always reported as text; failures leave the index unchanged.
func (s *Service) UpdateKnowledgeBase(ctx context.Context, topic string, maxPapers int, sourceIDs []string) string {
	if len(sourceIDs) == 0 {
		return "No paper sources were requested."
	}
	if maxPapers <= 0 {
		maxPapers = 10
	}

	perSource := maxPapers / len(sourceIDs)
	if perSource < 1 {
		perSource = 1
	}

	slog.InfoContext(ctx, "updating knowledge base", "topic", topic, "sources", sourceIDs, "per_source_limit", perSource)

	docs := s.sources.Aggregate(ctx, topic, sourceIDs, perSource)
	if len(docs) == 0 {
		return fmt.Sprintf("No papers found in the sources %s for this topic.", strings.Join(sourceIDs, ", "))
	}

	enriched := paper.EnrichAll(docs)

	fragments, err := text.SplitDocuments(enriched, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err != nil {
		return fmt.Sprintf("Error splitting documents: %v", err)
	}

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if ai.IsTransient(err) {
			return fmt.Sprintf("Error: rate limit or quota exceeded while creating embeddings. Details: %v", err)
		}
		return fmt.Sprintf("Error creating embeddings: %v", err)
	}

	if err := s.index.Add(fragments, vectors); err != nil {
		return fmt.Sprintf("Error indexing fragments: %v", err)
	}

	slog.InfoContext(ctx, "knowledge base updated", "papers", len(docs), "fragments", len(fragments), "index_size", s.index.Len())
	return fmt.Sprintf("Success! %d papers were indexed in the knowledge base.", len(docs))
}

// QueryRAG embeds the question, retrieves the most similar fragments and
// returns them joined as context text.
func (s *Service) QueryRAG(ctx context.Context, question string) string {
	if s.index.IsEmpty() {
		return EmptyKnowledgeBaseMessage
	}

	start := time.Now()

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return fmt.Sprintf("Error embedding the question: %v", err)
	}

	results := s.index.Search(vector, s.opts.TopK)
	if len(results) == 0 {
		return "No relevant fragments were found for this question."
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Fragment.Text
	}

	if s.queryLogger != nil {
		s.queryLogger.Log(question, len(results), time.Since(start))
	}
	slog.InfoContext(ctx, "rag query answered", "fragments", len(results), "latency", time.Since(start))

	return strings.Join(parts, fragmentSeparator) + "\n"
}
