package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRetriever struct {
	passages  []Passage
	err       error
	calls     int
	lastQuery string
	lastK     int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	f.calls++
	f.lastQuery = query
	f.lastK = k
	return f.passages, f.err
}

type fakeLLM struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.answer, f.err
}

func testPassages() []Passage {
	return []Passage{
		{Text: "Mitochondria produce ATP.", Source: "bio.pdf", Page: 3, Score: 0.92},
		{Text: "Chloroplasts capture light.", Source: "bio.pdf", Page: 7, Score: 0.85},
	}
}

func newTestEngine(t *testing.T, retriever *fakeRetriever, client *fakeLLM) *Engine {
	t.Helper()
	engine, err := NewEngine(retriever, client, 5, zaptest.NewLogger(t))
	require.NoError(t, err)
	return engine
}

func TestAnswerHappyPath(t *testing.T) {
	retriever := &fakeRetriever{passages: testPassages()}
	client := &fakeLLM{answer: "ATP is produced in mitochondria [bio.pdf, page 3]."}
	engine := newTestEngine(t, retriever, client)

	answer := engine.Answer(context.Background(), "where is ATP produced?", ModeQA)

	assert.Equal(t, "ATP is produced in mitochondria [bio.pdf, page 3].", answer)
	assert.Equal(t, 1, retriever.calls)
	assert.Equal(t, 5, retriever.lastK)
	assert.Equal(t, "where is ATP produced?", retriever.lastQuery)

	assert.Contains(t, client.lastPrompt, "Mitochondria produce ATP.")
	assert.Contains(t, client.lastPrompt, "[bio.pdf, page 3]")
	assert.Contains(t, client.lastPrompt, "[bio.pdf, page 7]")
	assert.Contains(t, client.lastPrompt, "where is ATP produced?")
}

func TestAnswerBlankQuery(t *testing.T) {
	retriever := &fakeRetriever{}
	client := &fakeLLM{}
	engine := newTestEngine(t, retriever, client)

	for _, query := range []string{"", "   ", "\n\t"} {
		answer := engine.Answer(context.Background(), query, ModeQA)
		assert.Equal(t, emptyQueryReply, answer)
	}
	assert.Zero(t, retriever.calls, "blank queries must not reach retrieval")
	assert.Zero(t, client.calls, "blank queries must not reach the model")
}

func TestAnswerSummaryModeRewritesQuery(t *testing.T) {
	retriever := &fakeRetriever{passages: testPassages()}
	client := &fakeLLM{answer: "summary"}
	engine := newTestEngine(t, retriever, client)

	engine.Answer(context.Background(), "cell energy", ModeSummary)

	assert.True(t, strings.HasPrefix(retriever.lastQuery, summaryPreamble))
	assert.Contains(t, retriever.lastQuery, "cell energy")
}

func TestAnswerRetrievalFailure(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("index unreachable")}
	client := &fakeLLM{}
	engine := newTestEngine(t, retriever, client)

	answer := engine.Answer(context.Background(), "anything", ModeQA)

	assert.True(t, strings.HasPrefix(answer, errorPrefix))
	assert.Contains(t, answer, "index unreachable")
	assert.Zero(t, client.calls, "completion must not run after retrieval fails")
}

func TestAnswerCompletionFailure(t *testing.T) {
	retriever := &fakeRetriever{passages: testPassages()}
	client := &fakeLLM{err: errors.New("model overloaded")}
	engine := newTestEngine(t, retriever, client)

	answer := engine.Answer(context.Background(), "anything", ModeQA)

	assert.True(t, strings.HasPrefix(answer, errorPrefix))
	assert.Contains(t, answer, "model overloaded")
}

func TestAnswerEmptyIndexStillAnswers(t *testing.T) {
	retriever := &fakeRetriever{passages: []Passage{}}
	client := &fakeLLM{answer: "I could not find relevant information."}
	engine := newTestEngine(t, retriever, client)

	answer := engine.Answer(context.Background(), "unknown topic", ModeQA)

	assert.Equal(t, "I could not find relevant information.", answer)
	assert.Contains(t, client.lastPrompt, noContextNotice)
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(nil, &fakeLLM{}, 5, nil)
	require.Error(t, err)

	_, err = NewEngine(&fakeRetriever{}, nil, 5, nil)
	require.Error(t, err)

	_, err = NewEngine(&fakeRetriever{}, &fakeLLM{}, 0, nil)
	require.Error(t, err)
}
