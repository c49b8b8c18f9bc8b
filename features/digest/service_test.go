package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"paperscout/internal/retrieval"
	"paperscout/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKnowledgeBase struct {
	mock.Mock
}

func (m *MockKnowledgeBase) UpdateKnowledgeBase(ctx context.Context, topic string, maxPapers int, sourceIDs []string) string {
	args := m.Called(ctx, topic, maxPapers, sourceIDs)
	return args.String(0)
}

func (m *MockKnowledgeBase) QueryRAG(ctx context.Context, question string) string {
	args := m.Called(ctx, question)
	return args.String(0)
}

type MockChatModel struct {
	mock.Mock
}

func (m *MockChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendRanking(ctx context.Context, chatID, ranking, topic string) error {
	args := m.Called(ctx, chatID, ranking, topic)
	return args.Error(0)
}

func testConfig() Config {
	return Config{
		Topic:     "machine learning",
		Sources:   []string{"arxiv"},
		MaxPapers: 10,
		ChatID:    "42",
		Retry:     retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	}
}

func TestRun_FullPipeline(t *testing.T) {
	kb := new(MockKnowledgeBase)
	llm := new(MockChatModel)
	notifier := new(MockNotifier)

	kb.On("UpdateKnowledgeBase", mock.Anything, "machine learning", 10, []string{"arxiv"}).
		Return("Success! 3 papers were indexed in the knowledge base.")
	kb.On("QueryRAG", mock.Anything, mock.Anything).Return("fragment context")
	llm.On("Generate", mock.Anything, mock.Anything).Return("1. Paper A (Score 4.8)", nil)
	notifier.On("SendRanking", mock.Anything, "42", "1. Paper A (Score 4.8)", "machine learning").Return(nil)

	svc := NewService(kb, llm, notifier, testConfig())
	ranking, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1. Paper A (Score 4.8)", ranking)
	notifier.AssertExpectations(t)
}

func TestRun_PromptContainsRetrievedContext(t *testing.T) {
	kb := new(MockKnowledgeBase)
	llm := new(MockChatModel)

	kb.On("UpdateKnowledgeBase", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ok")
	kb.On("QueryRAG", mock.Anything, mock.Anything).Return("THE-CONTEXT-MARKER")

	var gotPrompt string
	llm.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		gotPrompt = args.String(1)
	}).Return("ranking", nil)

	svc := NewService(kb, llm, nil, testConfig())
	_, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "THE-CONTEXT-MARKER")
	assert.Contains(t, gotPrompt, "Top 5 Ranking")
}

func TestRun_FailsWhenKnowledgeBaseStaysEmpty(t *testing.T) {
	kb := new(MockKnowledgeBase)
	llm := new(MockChatModel)

	kb.On("UpdateKnowledgeBase", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("No papers found in the sources arxiv for this topic.")
	kb.On("QueryRAG", mock.Anything, mock.Anything).Return(retrieval.EmptyKnowledgeBaseMessage)

	svc := NewService(kb, llm, nil, testConfig())
	_, err := svc.Run(context.Background())

	assert.Error(t, err)
	llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRun_RetriesTransientLLMFailures(t *testing.T) {
	kb := new(MockKnowledgeBase)
	llm := new(MockChatModel)

	kb.On("UpdateKnowledgeBase", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ok")
	kb.On("QueryRAG", mock.Anything, mock.Anything).Return("context")

	llm.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("429 rate limit")).Twice()
	llm.On("Generate", mock.Anything, mock.Anything).Return("ranking", nil).Once()

	svc := NewService(kb, llm, nil, testConfig())
	ranking, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ranking", ranking)
	llm.AssertNumberOfCalls(t, "Generate", 3)
}

func TestRun_DeliveryFailureDoesNotFailRun(t *testing.T) {
	kb := new(MockKnowledgeBase)
	llm := new(MockChatModel)
	notifier := new(MockNotifier)

	kb.On("UpdateKnowledgeBase", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ok")
	kb.On("QueryRAG", mock.Anything, mock.Anything).Return("context")
	llm.On("Generate", mock.Anything, mock.Anything).Return("ranking", nil)
	notifier.On("SendRanking", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("chat not found"))

	svc := NewService(kb, llm, notifier, testConfig())
	ranking, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ranking", ranking)
}
