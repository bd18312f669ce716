// Package duckduckgo provides a web search client backed by the
// DuckDuckGo Instant Answer API. The API needs no key, which keeps the
// web fallback usable out of the box.
package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

var _ driven.WebSearchClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL           = "https://api.duckduckgo.com"
	DefaultTimeout           = 10 * time.Second
	DefaultRequestsPerMinute = 30
)

// Config holds configuration for the DuckDuckGo client.
type Config struct {
	// BaseURL is the Instant Answer API endpoint (default: https://api.duckduckgo.com).
	BaseURL string

	// Timeout is the per-request timeout (default: 10s).
	Timeout time.Duration

	// RequestsPerMinute throttles outbound requests (default: 30).
	RequestsPerMinute int
}

// Client queries the DuckDuckGo Instant Answer API.
//
// Search never fails the caller's pipeline: network errors, non-200
// statuses and malformed payloads are logged and produce an empty
// result set so answers degrade to document-only context.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// instantAnswer is the subset of the Instant Answer response we use.
type instantAnswer struct {
	Heading       string `json:"Heading"`
	Abstract      string `json:"Abstract"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
		Topics   []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"Topics"`
	} `json:"RelatedTopics"`
}

// NewClient creates a new DuckDuckGo search client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
	}
}

// Search returns up to maxResults web results for the query. The empty
// slice is a valid outcome, not an error.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	if query == "" || maxResults <= 0 {
		return []domain.WebResult{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("web search rate limit: %w", err)
	}

	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("Web search unavailable, continuing without web results: %v", err)
		return []domain.WebResult{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Web search returned status %d, continuing without web results", resp.StatusCode)
		return []domain.WebResult{}, nil
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		logger.Warn("Web search returned malformed payload, continuing without web results: %v", err)
		return []domain.WebResult{}, nil
	}

	return collect(answer, maxResults), nil
}

// collect flattens an instant answer into ranked web results. The
// abstract comes first, then related topics in API order.
func collect(answer instantAnswer, maxResults int) []domain.WebResult {
	results := make([]domain.WebResult, 0, maxResults)

	abstract := answer.AbstractText
	if abstract == "" {
		abstract = answer.Abstract
	}
	if abstract != "" {
		results = append(results, domain.WebResult{
			Title:   answer.Heading,
			URL:     answer.AbstractURL,
			Snippet: abstract,
		})
	}

	for _, topic := range answer.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text != "" {
			results = append(results, domain.WebResult{
				Title:   topic.Text,
				URL:     topic.FirstURL,
				Snippet: topic.Text,
			})
			continue
		}
		// Categorised topics nest one level deeper.
		for _, sub := range topic.Topics {
			if len(results) >= maxResults {
				break
			}
			if sub.Text == "" {
				continue
			}
			results = append(results, domain.WebResult{
				Title:   sub.Text,
				URL:     sub.FirstURL,
				Snippet: sub.Text,
			})
		}
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// Close releases resources.
func (c *Client) Close() error {
	return nil
}
