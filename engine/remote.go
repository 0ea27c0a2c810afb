package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNoBaseURL is returned when a Remote is constructed without a server URL.
var ErrNoBaseURL = errors.New("engine base URL not set")

const (
	defaultInsertEndpoint = "/documents/text"
	defaultQueryEndpoint  = "/query"
)

// Remote is an Engine bound to a LightRAG-style HTTP server. The server owns
// the working directory and all persisted artifacts; this client only
// forwards inserts and queries.
type Remote struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Engine = (*Remote)(nil)

// RemoteOption configures a Remote.
type RemoteOption func(*remoteOptions)

type remoteOptions struct {
	apiKey     string
	httpClient *http.Client
}

// WithRemoteAPIKey sets the bearer token sent with every request.
func WithRemoteAPIKey(apiKey string) RemoteOption {
	return func(o *remoteOptions) {
		o.apiKey = apiKey
	}
}

// WithRemoteHTTPClient sets the HTTP client for server calls.
func WithRemoteHTTPClient(client *http.Client) RemoteOption {
	return func(o *remoteOptions) {
		o.httpClient = client
	}
}

// NewRemote creates a Remote engine client for the server at baseURL.
func NewRemote(baseURL string, opts ...RemoteOption) (*Remote, error) {
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}

	options := &remoteOptions{
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Remote{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     options.apiKey,
		httpClient: options.httpClient,
	}, nil
}

type insertRequest struct {
	Text string `json:"text"`
}

type queryRequest struct {
	Query  string `json:"query"`
	Mode   string `json:"mode"`
	TopK   int    `json:"top_k,omitempty"`
	Metric string `json:"metric,omitempty"`
}

type queryResponse struct {
	Response string `json:"response"`
}

// Insert sends one document's text to the server's insert endpoint.
func (r *Remote) Insert(ctx context.Context, text string) error {
	return r.post(ctx, defaultInsertEndpoint, insertRequest{Text: text}, nil)
}

// Query forwards the question and parameters to the server and returns its
// single synchronous answer. Errors propagate verbatim; there are no
// retries here.
func (r *Remote) Query(ctx context.Context, text string, param QueryParam) (string, error) {
	req := queryRequest{
		Query:  text,
		Mode:   string(param.Mode),
		TopK:   param.TopK,
		Metric: param.Metric,
	}

	var result queryResponse
	if err := r.post(ctx, defaultQueryEndpoint, req, &result); err != nil {
		return "", err
	}
	return result.Response, nil
}

func (r *Remote) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := r.baseURL + endpoint
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
