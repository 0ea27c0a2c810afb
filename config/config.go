// Package config loads the pipeline's valves from the environment.
//
// Every knob is an environment variable with a documented default; a .env
// file in the working directory is honored. Settings records are immutable:
// reconfiguration replaces the whole record, never individual fields.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names read by Load.
const (
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvWorkingDir     = "WORKING_DIR"
	EnvSearchMode     = "SEARCH_MODE"
	EnvModel          = "LLM_MODEL"
	EnvUseMiniModel   = "USE_MINI_MODEL"
	EnvSourceURL      = "SOURCE_URL"
	EnvHTMLToText     = "HTML_TO_TEXT"
	EnvChunkSize      = "CHUNK_SIZE"
	EnvChunkOverlap   = "CHUNK_OVERLAP"
	EnvDistanceMetric = "DISTANCE_METRIC"
	EnvTopK           = "TOP_K"
	EnvEngineURL      = "ENGINE_URL"
)

const (
	defaultWorkingDir     = ".ra"
	defaultSearchMode     = "hybrid"
	defaultSourceURL      = "https://lightrag.github.io/"
	defaultChunkSize      = 1200
	defaultChunkOverlap   = 100
	defaultDistanceMetric = "cosine"
	defaultTopK           = 5

	miniModel = "gpt-4o-mini"
	fullModel = "gpt-4o"
)

// Settings is the immutable configuration record of a pipeline instance.
// All fields are resolved at Load time; the record is never partially
// populated.
type Settings struct {
	APIKey         string
	WorkingDir     string
	SearchMode     string
	Model          string
	UseMiniModel   bool
	SourceURL      string
	HTMLToText     bool
	ChunkSize      int
	ChunkOverlap   int
	DistanceMetric string
	TopK           int
	// EngineURL selects the remote engine binding when non-empty.
	EngineURL string
}

// Load builds a Settings record from the environment. Numeric fields with
// non-numeric values fail fast; everything else falls back to its default.
//
// The resolved API key is written back into the process environment so the
// engine's own env-based credential lookup keeps working. Required
// compatibility shim, not optional behavior.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		APIKey:         os.Getenv(EnvAPIKey),
		WorkingDir:     defaultWorkingDir,
		SearchMode:     defaultSearchMode,
		UseMiniModel:   true,
		SourceURL:      defaultSourceURL,
		HTMLToText:     true,
		ChunkSize:      defaultChunkSize,
		ChunkOverlap:   defaultChunkOverlap,
		DistanceMetric: defaultDistanceMetric,
		TopK:           defaultTopK,
		EngineURL:      os.Getenv(EnvEngineURL),
	}

	if v := os.Getenv(EnvWorkingDir); v != "" {
		s.WorkingDir = v
	}
	if v := os.Getenv(EnvSearchMode); v != "" {
		s.SearchMode = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		s.Model = v
	}
	if v := os.Getenv(EnvSourceURL); v != "" {
		s.SourceURL = v
	}
	if v := os.Getenv(EnvDistanceMetric); v != "" {
		s.DistanceMetric = v
	}
	if v := os.Getenv(EnvUseMiniModel); v != "" {
		s.UseMiniModel = parseBool(v)
	}
	if v := os.Getenv(EnvHTMLToText); v != "" {
		s.HTMLToText = parseBool(v)
	}

	var err error
	if s.ChunkSize, err = parseInt(EnvChunkSize, s.ChunkSize); err != nil {
		return nil, err
	}
	if s.ChunkOverlap, err = parseInt(EnvChunkOverlap, s.ChunkOverlap); err != nil {
		return nil, err
	}
	if s.TopK, err = parseInt(EnvTopK, s.TopK); err != nil {
		return nil, err
	}

	os.Setenv(EnvAPIKey, s.APIKey)

	return s, nil
}

// ResolvedModel returns the model identifier the engine should complete
// with: the explicit LLM_MODEL when set, otherwise the mini or full model
// per the USE_MINI_MODEL flag.
func (s *Settings) ResolvedModel() string {
	if s.Model != "" {
		return s.Model
	}
	if s.UseMiniModel {
		return miniModel
	}
	return fullModel
}

// parseBool is a case-insensitive comparison against "true"; anything else
// is false.
func parseBool(v string) bool {
	return strings.EqualFold(v, "true")
}

func parseInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return n, nil
}
