package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/tmc/langchaingo/vectorstores"
)

// ErrNoVectorStore is returned when a Local engine is constructed without a
// backing vector store.
var ErrNoVectorStore = errors.New("vector store is required")

// noContextAnswer is returned when retrieval finds nothing to ground an
// answer on.
const noContextAnswer = "No relevant information found."

// Local is an in-process Engine built on langchaingo primitives: text
// splitting via textsplitter, retrieval via an injected vector store, and
// answer generation via a CompletionFunc. Chunking, embedding and
// nearest-neighbor search all live in the library and the store, not here.
//
// Persistence is the store's business; the working directory is recorded
// for engines whose stores keep artifacts on disk.
type Local struct {
	workingDir string
	complete   CompletionFunc
	store      vectorstores.VectorStore
	splitter   textsplitter.TextSplitter
	topK       int
	metric     string
}

var _ Engine = (*Local)(nil)

// LocalOption configures a Local engine.
type LocalOption func(*localOptions)

type localOptions struct {
	chunkSize    int
	chunkOverlap int
	metric       string
	topK         int
	splitter     textsplitter.TextSplitter
}

// WithChunkSize sets the splitter chunk size in characters.
func WithChunkSize(size int) LocalOption {
	return func(o *localOptions) {
		o.chunkSize = size
	}
}

// WithChunkOverlap sets the splitter chunk overlap in characters.
func WithChunkOverlap(overlap int) LocalOption {
	return func(o *localOptions) {
		o.chunkOverlap = overlap
	}
}

// WithMetric sets the default distance metric reported in query parameters.
func WithMetric(metric string) LocalOption {
	return func(o *localOptions) {
		o.metric = metric
	}
}

// WithTopK sets the default number of chunks retrieved per query.
func WithTopK(topK int) LocalOption {
	return func(o *localOptions) {
		o.topK = topK
	}
}

// WithSplitter overrides the recursive-character splitter entirely.
func WithSplitter(splitter textsplitter.TextSplitter) LocalOption {
	return func(o *localOptions) {
		o.splitter = splitter
	}
}

// NewLocal creates an in-process engine bound to workingDir, completing
// with the given function and retrieving from the given store.
func NewLocal(workingDir string, complete CompletionFunc, store vectorstores.VectorStore, opts ...LocalOption) (*Local, error) {
	if complete == nil {
		return nil, errors.New("completion function is required")
	}
	if store == nil {
		return nil, ErrNoVectorStore
	}

	options := &localOptions{
		chunkSize:    1200,
		chunkOverlap: 100,
		metric:       "cosine",
		topK:         5,
	}
	for _, opt := range opts {
		opt(options)
	}

	splitter := options.splitter
	if splitter == nil {
		splitter = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(options.chunkSize),
			textsplitter.WithChunkOverlap(options.chunkOverlap),
		)
	}

	return &Local{
		workingDir: workingDir,
		complete:   complete,
		store:      store,
		splitter:   splitter,
		topK:       options.topK,
		metric:     options.metric,
	}, nil
}

// WorkingDir returns the directory this engine was constructed against.
func (l *Local) WorkingDir() string {
	return l.workingDir
}

// Insert splits the text into chunks and adds them to the vector store.
func (l *Local) Insert(ctx context.Context, text string) error {
	chunks, err := l.splitter.SplitText(text)
	if err != nil {
		return fmt.Errorf("split text: %w", err)
	}

	docs := make([]schema.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, schema.Document{
			PageContent: chunk,
			Metadata: map[string]any{
				"chunk": i,
			},
		})
	}
	if len(docs) == 0 {
		return nil
	}

	if _, err := l.store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Query retrieves the top chunks for the question and asks the completion
// function to answer from them. The mode string is forwarded into the
// prompt uninterpreted; the engine prompt is authoritative for how modes
// shade the answer.
func (l *Local) Query(ctx context.Context, text string, param QueryParam) (string, error) {
	topK := param.TopK
	if topK <= 0 {
		topK = l.topK
	}

	docs, err := l.store.SimilaritySearch(ctx, text, topK)
	if err != nil {
		return "", fmt.Errorf("similarity search: %w", err)
	}
	if len(docs) == 0 {
		return noContextAnswer, nil
	}

	prompt := l.buildPrompt(text, docs, param.Mode)
	answer, err := l.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (l *Local) buildPrompt(query string, docs []schema.Document, mode Mode) string {
	var contextParts []string
	for i, doc := range docs {
		contextParts = append(contextParts, fmt.Sprintf("[%d] %s", i+1, doc.PageContent))
	}

	var sb strings.Builder
	sb.WriteString("You are a helpful assistant. Answer the question based on the provided context. If you cannot answer based on the context, say so.\n")
	if mode != "" {
		sb.WriteString(fmt.Sprintf("Retrieval mode: %s\n", mode))
	}
	sb.WriteString("\nContext:\n")
	sb.WriteString(strings.Join(contextParts, "\n\n"))
	sb.WriteString(fmt.Sprintf("\n\nQuestion: %s\n\nAnswer:", query))
	return sb.String()
}
