// Package pipeline implements the adapter surface toward a chat-completion
// host: lifecycle hooks that build or reuse a persisted index, a query
// router that forwards each request to the retrieval engine, and identity
// inlet/outlet passthroughs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aiproductguy/lightpipe/config"
	"github.com/aiproductguy/lightpipe/engine"
	"github.com/aiproductguy/lightpipe/fetch"
	"github.com/aiproductguy/lightpipe/log"
)

// DefaultName is how the host displays the pipeline.
const DefaultName = "LightRAG Pipeline"

// bodyModeKey is where hosts embed a per-request retrieval mode.
const bodyModeKey = "search_mode"

var (
	// ErrNotStarted is returned by operations that need a live engine
	// handle before OnStartup has run. OnValvesUpdated deliberately does
	// NOT act as an implicit start.
	ErrNotStarted = errors.New("pipeline not started")
	// ErrNoDocuments is returned when the source fetch yields nothing to
	// index.
	ErrNoDocuments = errors.New("fetch returned no documents")
	// ErrNoEngineBinding is returned by the default builder when no remote
	// engine URL is configured.
	ErrNoEngineBinding = errors.New("no engine binding: set ENGINE_URL or provide a Builder")
)

// Fetcher is the external fetch service contract.
type Fetcher interface {
	Fetch(ctx context.Context, urls []string, htmlToText bool) ([]fetch.Document, error)
}

// Builder constructs an engine handle bound to the given settings. It is
// invoked on startup and on every valve update; it must not fetch or insert
// anything.
type Builder func(s *config.Settings) (engine.Engine, error)

// DefaultBuilder binds a remote engine when ENGINE_URL is set. The
// in-process binding needs a vector store the adapter cannot conjure, so
// without an engine URL a custom Builder is required.
func DefaultBuilder(s *config.Settings) (engine.Engine, error) {
	if s.EngineURL == "" {
		return nil, ErrNoEngineBinding
	}
	return engine.NewRemote(s.EngineURL, engine.WithRemoteAPIKey(s.APIKey))
}

// snapshot is one consistent engine-plus-settings pair. Queries capture a
// snapshot once and keep using it even if a reconfigure swaps the slot
// underneath them.
type snapshot struct {
	engine   engine.Engine
	settings *config.Settings
}

// Pipeline is one adapter instance. Create it with New, run OnStartup
// before the first query, and treat the exported hooks as the host surface.
type Pipeline struct {
	Name string

	mu           sync.Mutex // guards lifecycle transitions and settings
	started      bool
	settings     *config.Settings
	slot         atomic.Pointer[snapshot]
	fetcher      Fetcher
	build        Builder
	loadSettings func() (*config.Settings, error)
	logger       log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithName sets the display name.
func WithName(name string) Option {
	return func(p *Pipeline) {
		p.Name = name
	}
}

// WithSettings pins the settings instead of loading them from the
// environment. Valve updates re-resolve through the same pinned record.
func WithSettings(s *config.Settings) Option {
	return func(p *Pipeline) {
		p.loadSettings = func() (*config.Settings, error) { return s, nil }
	}
}

// WithSettingsLoader overrides how settings are (re)loaded.
func WithSettingsLoader(load func() (*config.Settings, error)) Option {
	return func(p *Pipeline) {
		p.loadSettings = load
	}
}

// WithFetcher overrides the web fetch service.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) {
		p.fetcher = f
	}
}

// WithBuilder overrides how engine handles are constructed.
func WithBuilder(b Builder) Option {
	return func(p *Pipeline) {
		p.build = b
	}
}

// WithLogger overrides the logger.
func WithLogger(l log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New creates a pipeline and resolves its settings once. Settings parse
// errors are fatal here, before any hook runs.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		Name:         DefaultName,
		fetcher:      fetch.NewFetcher(),
		build:        DefaultBuilder,
		loadSettings: config.Load,
		logger:       log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	s, err := p.loadSettings()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	p.settings = s

	return p, nil
}

// OnStartup ensures the working directory exists and brings up the engine
// handle. When the directory already holds a built index (manifest or
// legacy marker) the handle is constructed over the existing data and
// nothing is fetched or inserted. Otherwise the source URL is fetched, the
// handle constructed, every fetched document inserted in fetch order, and
// the manifest written. Fetch or insert failure aborts startup and leaves
// no manifest behind.
func (p *Pipeline) OnStartup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.settings
	if err := os.MkdirAll(s.WorkingDir, 0o755); err != nil {
		return fmt.Errorf("create working dir: %w", err)
	}

	if indexBuilt(s.WorkingDir) {
		p.logger.Info("%s: reusing existing index in %s", p.Name, s.WorkingDir)
		eng, err := p.build(s)
		if err != nil {
			return fmt.Errorf("construct engine: %w", err)
		}
		p.slot.Store(&snapshot{engine: eng, settings: s})
		p.started = true
		return nil
	}

	p.logger.Info("%s: no index in %s, building from %s", p.Name, s.WorkingDir, s.SourceURL)

	docs, err := p.fetcher.Fetch(ctx, []string{s.SourceURL}, s.HTMLToText)
	if err != nil {
		return fmt.Errorf("fetch source documents: %w", err)
	}
	if len(docs) == 0 {
		return ErrNoDocuments
	}

	eng, err := p.build(s)
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	for i, doc := range docs {
		if err := eng.Insert(ctx, doc.Text); err != nil {
			return fmt.Errorf("insert document %d: %w", i, err)
		}
	}

	if err := writeManifest(s.WorkingDir, Manifest{
		SourceURL:    s.SourceURL,
		Documents:    len(docs),
		ChunkSize:    s.ChunkSize,
		ChunkOverlap: s.ChunkOverlap,
		BuiltAt:      time.Now().UTC(),
	}); err != nil {
		return err
	}

	p.logger.Info("%s: built index from %d document(s)", p.Name, len(docs))
	p.slot.Store(&snapshot{engine: eng, settings: s})
	p.started = true
	return nil
}

// OnShutdown is a deliberate no-op; the engine owns its own teardown.
func (p *Pipeline) OnShutdown(ctx context.Context) error {
	p.logger.Info("%s: shutdown", p.Name)
	return nil
}

// OnValvesUpdated re-resolves settings and swaps in a freshly constructed
// engine handle. It never fetches or inserts: reconfiguration only changes
// query-time parameters over the existing persisted data. In particular,
// reconfiguring a pipeline whose index was never populated yields a handle
// with no content; queries against it return empty or degenerate answers.
// That is the documented contract, not a bug.
//
// Calling it before OnStartup is rejected with ErrNotStarted.
func (p *Pipeline) OnValvesUpdated(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return ErrNotStarted
	}

	s, err := p.loadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	eng, err := p.build(s)
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	p.settings = s
	p.slot.Store(&snapshot{engine: eng, settings: s})
	p.logger.Info("%s: valves updated, engine handle replaced", p.Name)
	return nil
}

// Inlet is an identity transform on inbound request envelopes, present
// because the host contract requires it.
func (p *Pipeline) Inlet(body, user map[string]any) (map[string]any, error) {
	return body, nil
}

// Outlet is an identity transform on outbound response envelopes.
func (p *Pipeline) Outlet(body, user map[string]any) (map[string]any, error) {
	return body, nil
}

// Pipe handles one host request: it derives a mode hint from the model
// identifier and routes through Answer. The message history is accepted for
// contract compatibility and ignored; the engine works from its index, not
// the conversation.
func (p *Pipeline) Pipe(ctx context.Context, userMessage, modelID string, messages []map[string]any, body map[string]any) (iter.Seq[string], error) {
	return p.Answer(ctx, userMessage, modeFromModelID(modelID), body)
}

// Answer resolves the retrieval mode, queries the engine once and wraps the
// answer in a single-element stream. Engine errors propagate unmodified; no
// retries.
//
// Mode priority is hint-first: a non-empty modeHint wins over a mode in the
// request body, which wins over the configured default. Unknown mode
// strings are forwarded to the engine uninterpreted.
func (p *Pipeline) Answer(ctx context.Context, message, modeHint string, body map[string]any) (iter.Seq[string], error) {
	snap := p.slot.Load()
	if snap == nil {
		return nil, ErrNotStarted
	}

	mode := resolveMode(modeHint, body, snap.settings.SearchMode)
	param := engine.QueryParam{
		Mode:   mode,
		TopK:   snap.settings.TopK,
		Metric: snap.settings.DistanceMetric,
	}

	p.logger.Debug("%s: query mode=%s top_k=%d", p.Name, mode, param.TopK)

	answer, err := snap.engine.Query(ctx, message, param)
	if err != nil {
		return nil, err
	}
	return Once(answer), nil
}

// resolveMode applies the hint-first priority policy.
func resolveMode(hint string, body map[string]any, fallback string) engine.Mode {
	if hint != "" {
		return engine.Mode(hint)
	}
	if body != nil {
		if v, ok := body[bodyModeKey].(string); ok && v != "" {
			return engine.Mode(v)
		}
	}
	return engine.Mode(fallback)
}

// modeFromModelID recognizes a retrieval mode embedded as the model
// identifier's last dash-separated segment (e.g. "lightrag-local").
// Only documented modes are treated as hints so that arbitrary model names
// cannot hijack routing.
func modeFromModelID(modelID string) string {
	idx := strings.LastIndex(modelID, "-")
	if idx < 0 || idx == len(modelID)-1 {
		return ""
	}
	suffix := modelID[idx+1:]
	if engine.Mode(suffix).Known() {
		return suffix
	}
	return ""
}
