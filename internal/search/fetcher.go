package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultProxyEndpoint = "https://api.brightdata.com/request"

// FetcherConfig holds scraping proxy configuration.
type FetcherConfig struct {
	APIKey   string
	Zone     string
	Endpoint string
	Timeout  time.Duration
}

// Fetcher retrieves raw SERP markup for a query through the Bright Data
// scraping proxy. One attempt per invocation; retry policy belongs to the
// caller.
type Fetcher struct {
	cfg    FetcherConfig
	http   *http.Client
	logger *zap.Logger
}

// NewFetcher creates a fetcher. An empty API key is allowed at construction
// time so the service can start without the proxy configured; Fetch then
// fails with ErrMissingCredential before any network call.
func NewFetcher(cfg FetcherConfig, logger *zap.Logger) *Fetcher {
	if cfg.Zone == "" {
		cfg.Zone = "serp"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultProxyEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Fetcher{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Configured reports whether the proxy credential is present.
func (f *Fetcher) Configured() bool {
	return strings.TrimSpace(f.cfg.APIKey) != ""
}

type proxyRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// Fetch returns the raw, unrendered markup of the search results page for
// the query. Non-success proxy responses and transport errors are reported
// as *UpstreamError with the upstream status and body for diagnostics.
func (f *Fetcher) Fetch(ctx context.Context, query string) (string, error) {
	if !f.Configured() {
		return "", ErrMissingCredential
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	body, _ := json.Marshal(proxyRequest{
		Zone:   f.cfg.Zone,
		URL:    SearchURL(query),
		Format: "raw",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &UpstreamError{Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		f.logger.Error("Scraping proxy request failed",
			zap.String("query", query),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", &UpstreamError{Body: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("Scraping proxy returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("query", query),
		)
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	f.logger.Debug("Fetched search results page",
		zap.String("query", query),
		zap.Int("bytes", len(payload)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return string(payload), nil
}

// SearchURL builds the target search engine URL for the query with a fixed
// English locale hint.
func SearchURL(query string) string {
	return fmt.Sprintf("https://www.google.com/search?q=%s&hl=en&gl=us", url.QueryEscape(query))
}
