// Package engine defines the retrieval engine contract the pipeline adapter
// delegates to, together with two bindings: a remote HTTP client for a
// LightRAG-style server and an in-process binding built on langchaingo.
//
// The engine owns chunking, indexing, retrieval and answer generation; this
// package never reimplements any of that.
package engine

import "context"

// Mode is a named retrieval strategy.
//
// The set below matches LightRAG's query modes. Values outside it are NOT
// rejected here: the engine is authoritative for mode validation, and
// unknown strings pass through uninterpreted.
type Mode string

const (
	// ModeNaive performs plain vector retrieval.
	ModeNaive Mode = "naive"
	// ModeLocal retrieves from the local entity neighborhood.
	ModeLocal Mode = "local"
	// ModeGlobal retrieves from community-level summaries.
	ModeGlobal Mode = "global"
	// ModeHybrid combines local and global retrieval.
	ModeHybrid Mode = "hybrid"
)

// Known reports whether m is one of the documented retrieval modes. Used
// only for recognizing mode hints embedded in model identifiers, never for
// validation.
func (m Mode) Known() bool {
	return m == ModeNaive || m == ModeLocal || m == ModeGlobal || m == ModeHybrid
}

// QueryParam carries per-query retrieval parameters. It is recomputed fresh
// for every query and never cached.
type QueryParam struct {
	Mode   Mode
	TopK   int
	Metric string
}

// Engine is the retrieval engine handle. Implementations must be safe for
// concurrent Query calls; Insert is only called sequentially during index
// builds.
type Engine interface {
	// Insert adds one document's text to the index.
	Insert(ctx context.Context, text string) error
	// Query answers a question synchronously. The call may block for a full
	// LLM round trip; cancellation is the caller's business via ctx.
	Query(ctx context.Context, text string, param QueryParam) (string, error)
}

// CompletionFunc produces a completion for a prompt. It is the llmFunction
// an in-process engine is constructed with.
type CompletionFunc func(ctx context.Context, prompt string) (string, error)
