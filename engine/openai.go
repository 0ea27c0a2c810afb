package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no OpenAI API key is configured.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")

// CompleterOption configures an OpenAI-backed CompletionFunc.
type CompleterOption func(*completerOptions)

type completerOptions struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// WithAPIKey sets the API key. Defaults to the OPENAI_API_KEY environment
// variable.
func WithAPIKey(apiKey string) CompleterOption {
	return func(o *completerOptions) {
		o.apiKey = apiKey
	}
}

// WithBaseURL sets a non-default API base URL.
func WithBaseURL(baseURL string) CompleterOption {
	return func(o *completerOptions) {
		o.baseURL = baseURL
	}
}

// WithModel sets the completion model.
func WithModel(model string) CompleterOption {
	return func(o *completerOptions) {
		o.model = model
	}
}

// WithCompleterHTTPClient sets the HTTP client used for API calls.
func WithCompleterHTTPClient(client *http.Client) CompleterOption {
	return func(o *completerOptions) {
		o.httpClient = client
	}
}

// NewCompleter returns a CompletionFunc backed by the OpenAI chat completion
// API. The default model is gpt-4o-mini.
func NewCompleter(opts ...CompleterOption) (CompletionFunc, error) {
	options := &completerOptions{
		apiKey: os.Getenv("OPENAI_API_KEY"),
		model:  openai.GPT4oMini,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	cfg := openai.DefaultConfig(options.apiKey)
	if options.baseURL != "" {
		cfg.BaseURL = options.baseURL
	}
	if options.httpClient != nil {
		cfg.HTTPClient = options.httpClient
	}
	client := openai.NewClientWithConfig(cfg)
	model := options.model

	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat completion: empty response")
		}
		return resp.Choices[0].Message.Content, nil
	}, nil
}

// GPT4oMiniComplete returns a CompletionFunc bound to gpt-4o-mini.
func GPT4oMiniComplete(opts ...CompleterOption) (CompletionFunc, error) {
	return NewCompleter(append([]CompleterOption{WithModel(openai.GPT4oMini)}, opts...)...)
}

// GPT4oComplete returns a CompletionFunc bound to gpt-4o.
func GPT4oComplete(opts ...CompleterOption) (CompletionFunc, error) {
	return NewCompleter(append([]CompleterOption{WithModel(openai.GPT4o)}, opts...)...)
}
