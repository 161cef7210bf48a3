package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // 10 req/sec, Scryfall's published limit
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
	maxSearchPages = 50
)

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	userAgent      string
	baseURL        string
	initialBackoff time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the minimum delay between requests.
func WithRateLimit(every time.Duration) Option {
	return func(c *Client) { c.rateLimiter = rate.NewLimiter(rate.Every(every), 1) }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithBackoff sets the first retry delay. It doubles up to 16s.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.initialBackoff = d }
}

// NewClient creates a new Scryfall API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		rateLimiter:    rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:      "BoosterSim/1.0",
		baseURL:        DefaultBaseURL,
		initialBackoff: initialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetSets retrieves a list of all sets.
func (c *Client) GetSets(ctx context.Context) (*SetList, error) {
	var sets SetList
	if err := c.doRequest(ctx, c.baseURL+"/sets", &sets); err != nil {
		return nil, fmt.Errorf("failed to get sets: %w", err)
	}

	return &sets, nil
}

// GetSet retrieves set information by set code.
func (c *Client) GetSet(ctx context.Context, code string) (*Set, error) {
	u := fmt.Sprintf("%s/sets/%s", c.baseURL, url.PathEscape(code))

	var set Set
	if err := c.doRequest(ctx, u, &set); err != nil {
		return nil, fmt.Errorf("failed to get set %s: %w", code, err)
	}

	return &set, nil
}

// SearchCards fetches the first page of a full-text search.
func (c *Client) SearchCards(ctx context.Context, query string) (*SearchResult, error) {
	u := fmt.Sprintf("%s/cards/search?q=%s", c.baseURL, url.QueryEscape(query))

	var result SearchResult
	if err := c.doRequest(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("failed to search cards with query '%s': %w", query, err)
	}

	return &result, nil
}

// SearchAllCards follows next_page links and returns every matching card.
// A query with no matches yields an empty slice, not an error.
func (c *Client) SearchAllCards(ctx context.Context, query string) ([]Card, error) {
	result, err := c.SearchCards(ctx, query)
	if err != nil {
		if IsNotFound(err) {
			return []Card{}, nil
		}
		return nil, err
	}

	all := append([]Card{}, result.Data...)
	page := 1
	for result.HasMore && result.NextPage != "" {
		page++
		if page > maxSearchPages {
			log.Printf("[Scryfall] Stopping search '%s' after %d pages", query, maxSearchPages)
			break
		}

		var next SearchResult
		if err := c.doRequest(ctx, result.NextPage, &next); err != nil {
			return nil, fmt.Errorf("fetch page %d for query '%s': %w", page, query, err)
		}
		all = append(all, next.Data...)
		result = &next
	}

	return all, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if ctx.Err() != nil {
				return lastErr
			}

			// Retry on network errors
			if attempt < maxRetries {
				if err := sleep(ctx, backoff); err != nil {
					return lastErr
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		done, err := c.handleResponse(resp, url, result)
		if done {
			return err
		}
		lastErr = err

		if attempt < maxRetries {
			wait := backoff
			if d, ok := retryAfter(resp); ok {
				wait = d
			}
			if err := sleep(ctx, wait); err != nil {
				return lastErr
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// handleResponse consumes the body. done is false only for a retryable 429.
func (c *Client) handleResponse(resp *http.Response, url string, result interface{}) (done bool, err error) {
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, fmt.Errorf("failed to read response body: %w", err)
		}

		if err := json.Unmarshal(body, result); err != nil {
			return true, fmt.Errorf("failed to parse JSON response: %w", err)
		}

		return true, nil

	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("rate limited (HTTP 429)")

	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, &NotFoundError{URL: url}

	default:
		body, _ := io.ReadAll(resp.Body)

		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			return true, &apiErr
		}

		return true, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
