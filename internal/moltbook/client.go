// Package moltbook pulls the raw post stream from the Moltbook API.
package moltbook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ostegm/moltbook-study/internal/metrics"
)

// Client is a bearer-token client for the Moltbook v1 API.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://www.moltbook.com/api/v1"
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     newDefaultLimiter(),
		maxAttempts: getEnvInt("MOLTBOOK_API_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(getEnvInt("MOLTBOOK_API_BASE_BACKOFF_MS", 500)) * time.Millisecond,
	}
}

// newDefaultLimiter creates a rate limiter using env overrides if present.
func newDefaultLimiter() *rate.Limiter {
	rps := 3.0
	burst := 5
	if v := os.Getenv("MOLTBOOK_API_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	if v := os.Getenv("MOLTBOOK_API_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (c *Client) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

// Page is one slice of the paginated post stream. Posts stay raw JSON; the
// pull writes them through unchanged.
type Page struct {
	Posts   []json.RawMessage `json:"posts"`
	HasMore bool              `json:"has_more"`
}

// FetchPage returns posts at the given offset, newest-first pagination.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) (Page, error) {
	var page Page
	u := fmt.Sprintf("%s/posts?sort=new&limit=%d&offset=%d", c.baseURL, limit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return page, err
	}
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return page, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return page, fmt.Errorf("moltbook api status %d at offset %d", resp.StatusCode, offset)
	}
	metrics.PullPages.Inc()
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("decode page at offset %d: %w", offset, err)
	}
	return page, nil
}

func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				metrics.IncPullRetry(req.URL.Path)
				wait := backoff
				if ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					} else if t, err := http.ParseTime(ra); err == nil {
						if d := time.Until(t); d > 0 {
							wait = d
						}
					}
				}
				// jitter +/-20%
				jitter := time.Duration(float64(wait) * 0.2)
				if jitter > 0 {
					wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
				}
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		lastErr = err
		metrics.IncPullRetry(req.URL.Path)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("retries exhausted for %s", req.URL.Path)
	}
	return nil, lastErr
}
