// Package fetch retrieves web pages as documents for index builds, with
// optional HTML-to-text conversion.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const defaultUserAgent = "lightpipe/1.0 (+https://github.com/aiproductguy/lightpipe)"

// Document is one fetched page.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Fetcher downloads pages over HTTP.
type Fetcher struct {
	client    *http.Client
	sanitizer *bluemonday.Policy
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a Fetcher with a 30s timeout unless a client is
// supplied.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		sanitizer: bluemonday.UGCPolicy(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads every URL and returns one document per page, in input
// order. When htmlToText is set the page is sanitized and reduced to its
// visible text; otherwise the raw body is kept. Any failed download fails
// the whole fetch: partial results are worse than none during an index
// build.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, htmlToText bool) ([]Document, error) {
	docs := make([]Document, 0, len(urls))
	for _, u := range urls {
		text, err := f.fetchOne(ctx, u, htmlToText)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{
			ID:   uuid.NewString(),
			Text: text,
			Metadata: map[string]any{
				"source":       u,
				"html_to_text": htmlToText,
			},
		})
	}
	return docs, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string, htmlToText bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	if !htmlToText {
		return string(body), nil
	}

	text, err := f.extractText(string(body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}
	if text == "" {
		return "", fmt.Errorf("no text content found in %s", url)
	}
	return text, nil
}

// extractText strips markup and returns the page's visible text, one line
// per block, blank lines dropped.
func (f *Fetcher) extractText(html string) (string, error) {
	sanitized := f.sanitizer.Sanitize(html)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	raw := doc.Text()
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
