package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

type mockStore struct {
	added    []schema.Document
	results  []schema.Document
	lastK    int
	addErr   error
	queryErr error
}

func (m *mockStore) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	m.added = append(m.added, docs...)
	ids := make([]string, len(docs))
	return ids, nil
}

func (m *mockStore) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.lastK = numDocuments
	return m.results, nil
}

func echoCompleter(t *testing.T) (CompletionFunc, *string) {
	t.Helper()
	var lastPrompt string
	return func(ctx context.Context, prompt string) (string, error) {
		lastPrompt = prompt
		return "generated answer", nil
	}, &lastPrompt
}

func TestNewLocalValidation(t *testing.T) {
	complete, _ := echoCompleter(t)

	_, err := NewLocal(".ra", nil, &mockStore{})
	assert.Error(t, err)

	_, err = NewLocal(".ra", complete, nil)
	assert.ErrorIs(t, err, ErrNoVectorStore)

	l, err := NewLocal(".ra", complete, &mockStore{})
	require.NoError(t, err)
	assert.Equal(t, ".ra", l.WorkingDir())
}

func TestLocalInsertSplitsIntoChunks(t *testing.T) {
	complete, _ := echoCompleter(t)
	store := &mockStore{}

	l, err := NewLocal(".ra", complete, store, WithChunkSize(20), WithChunkOverlap(0))
	require.NoError(t, err)

	text := strings.Repeat("alpha beta gamma delta. ", 10)
	require.NoError(t, l.Insert(context.Background(), text))
	assert.Greater(t, len(store.added), 1)
}

func TestLocalQueryBuildsPromptFromRetrievedChunks(t *testing.T) {
	complete, lastPrompt := echoCompleter(t)
	store := &mockStore{
		results: []schema.Document{
			{PageContent: "LightRAG indexes entities and relations."},
			{PageContent: "Queries can run in four modes."},
		},
	}

	l, err := NewLocal(".ra", complete, store, WithTopK(2))
	require.NoError(t, err)

	answer, err := l.Query(context.Background(), "what is lightrag?", QueryParam{Mode: ModeLocal})
	require.NoError(t, err)
	assert.Equal(t, "generated answer", answer)
	assert.Equal(t, 2, store.lastK)

	assert.Contains(t, *lastPrompt, "LightRAG indexes entities and relations.")
	assert.Contains(t, *lastPrompt, "Retrieval mode: local")
	assert.Contains(t, *lastPrompt, "Question: what is lightrag?")
}

func TestLocalQueryTopKOverride(t *testing.T) {
	complete, _ := echoCompleter(t)
	store := &mockStore{results: []schema.Document{{PageContent: "doc"}}}

	l, err := NewLocal(".ra", complete, store, WithTopK(5))
	require.NoError(t, err)

	_, err = l.Query(context.Background(), "q", QueryParam{Mode: ModeNaive, TopK: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, store.lastK)
}

func TestLocalQueryWithoutResults(t *testing.T) {
	complete, lastPrompt := echoCompleter(t)
	store := &mockStore{}

	l, err := NewLocal(".ra", complete, store)
	require.NoError(t, err)

	answer, err := l.Query(context.Background(), "q", QueryParam{Mode: ModeHybrid})
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, answer)
	assert.Empty(t, *lastPrompt)
}

func TestLocalErrorPropagation(t *testing.T) {
	complete, _ := echoCompleter(t)
	store := &mockStore{queryErr: assert.AnError}

	l, err := NewLocal(".ra", complete, store)
	require.NoError(t, err)

	_, err = l.Query(context.Background(), "q", QueryParam{Mode: ModeNaive})
	assert.ErrorIs(t, err, assert.AnError)
}
