package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvAPIKey, EnvWorkingDir, EnvSearchMode, EnvModel, EnvUseMiniModel,
		EnvSourceURL, EnvHTMLToText, EnvChunkSize, EnvChunkOverlap,
		EnvDistanceMetric, EnvTopK, EnvEngineURL,
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".ra", s.WorkingDir)
	assert.Equal(t, "hybrid", s.SearchMode)
	assert.Equal(t, "https://lightrag.github.io/", s.SourceURL)
	assert.Equal(t, "cosine", s.DistanceMetric)
	assert.Equal(t, 1200, s.ChunkSize)
	assert.Equal(t, 100, s.ChunkOverlap)
	assert.Equal(t, 5, s.TopK)
	assert.True(t, s.UseMiniModel)
	assert.True(t, s.HTMLToText)
	assert.Empty(t, s.EngineURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWorkingDir, "/tmp/index")
	t.Setenv(EnvSearchMode, "local")
	t.Setenv(EnvChunkSize, "800")
	t.Setenv(EnvChunkOverlap, "40")
	t.Setenv(EnvTopK, "10")
	t.Setenv(EnvHTMLToText, "FALSE")
	t.Setenv(EnvEngineURL, "http://localhost:9621")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/index", s.WorkingDir)
	assert.Equal(t, "local", s.SearchMode)
	assert.Equal(t, 800, s.ChunkSize)
	assert.Equal(t, 40, s.ChunkOverlap)
	assert.Equal(t, 10, s.TopK)
	assert.False(t, s.HTMLToText)
	assert.Equal(t, "http://localhost:9621", s.EngineURL)
}

func TestLoadFailsOnNonNumericField(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{"chunk size", EnvChunkSize},
		{"chunk overlap", EnvChunkOverlap},
		{"top k", EnvTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, "not-a-number")

			_, err := Load()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoadWritesCredentialBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "sk-test-key")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", s.APIKey)
	// The shim keeps the engine's own env lookup working.
	assert.Equal(t, "sk-test-key", os.Getenv(EnvAPIKey))
}

func TestBoolParsingIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"false", false},
		{"yes", false},
		{"1", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvUseMiniModel, tt.value)

			s, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.UseMiniModel)
		})
	}
}

func TestResolvedModel(t *testing.T) {
	s := &Settings{UseMiniModel: true}
	assert.Equal(t, "gpt-4o-mini", s.ResolvedModel())

	s.UseMiniModel = false
	assert.Equal(t, "gpt-4o", s.ResolvedModel())

	s.Model = "gpt-4.1"
	assert.Equal(t, "gpt-4.1", s.ResolvedModel())
}
