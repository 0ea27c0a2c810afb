package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompleterRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewCompleter()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestCompleterRoundTrip(t *testing.T) {
	var gotModel string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Answer."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	complete, err := NewCompleter(
		WithAPIKey("test-key"),
		WithBaseURL(server.URL),
		WithModel("gpt-4o-mini"),
	)
	require.NoError(t, err)

	answer, err := complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Answer.", answer)
	assert.Equal(t, "gpt-4o-mini", gotModel)
}

func TestModelSelectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": req.Model}},
			},
		})
	}))
	defer server.Close()

	mini, err := GPT4oMiniComplete(WithAPIKey("k"), WithBaseURL(server.URL))
	require.NoError(t, err)
	model, err := mini(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", model)

	full, err := GPT4oComplete(WithAPIKey("k"), WithBaseURL(server.URL))
	require.NoError(t, err)
	model, err = full(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", model)
}
