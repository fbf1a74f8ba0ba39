package http

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kosarica/pricehist/internal/http/ratelimit"
)

// userAgent identifies this crawler to upstream chain servers.
const userAgent = "pricehist/1.0"

// Client wraps net/http with the rate limiter and retry/backoff policy
// every chain adapter shares.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.RateLimiter
	config      ratelimit.Config
}

// NewClient builds a Client governed by config.
func NewClient(config ratelimit.Config) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: ratelimit.NewRateLimiter(config),
		config:      config,
	}
}

// NewClientDefault builds a Client with ratelimit.DefaultConfig.
func NewClientDefault() *Client {
	return NewClient(ratelimit.DefaultConfig())
}

// Get issues a throttled, retried GET request.
func (c *Client) Get(url string) (*http.Response, error) {
	return c.Do(http.MethodGet, url, nil)
}

// lastOutcome tracks the most recent attempt so a final failure can be
// reported with the right status/cause even when it stems from an
// exhausted retry loop rather than the last iteration directly.
type lastOutcome struct {
	status int
	err    error
}

func (c *Client) retryError(url string, attempts int, o lastOutcome) error {
	return &ratelimit.FetchRetryError{
		URL:        url,
		Attempts:   attempts,
		LastStatus: o.status,
		LastError:  o.err,
	}
}

// Do runs method against url, retrying on transport errors and
// retryable HTTP statuses (429, 5xx) up to config.MaxRetries times,
// with exponential backoff between attempts.
func (c *Client) Do(method, url string, body io.Reader) (*http.Response, error) {
	var last lastOutcome

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Throttle(); err != nil {
			return nil, fmt.Errorf("http: throttle: %w", err)
		}

		req, err := http.NewRequest(method, url, body)
		if err != nil {
			last = lastOutcome{status: last.status, err: err}
			if attempt == c.config.MaxRetries {
				return nil, c.retryError(url, attempt+1, last)
			}
			ratelimit.Sleep(int(ratelimit.CalculateBackoff(attempt, c.config).Milliseconds()))
			continue
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "*/*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			last = lastOutcome{status: last.status, err: err}
			if attempt == c.config.MaxRetries {
				return nil, c.retryError(url, attempt+1, last)
			}
			ratelimit.Sleep(int(ratelimit.CalculateBackoff(attempt, c.config).Milliseconds()))
			continue
		}

		last = lastOutcome{status: resp.StatusCode}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		if !ratelimit.IsRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, c.retryError(url, attempt+1, last)
		}
		if attempt == c.config.MaxRetries {
			resp.Body.Close()
			return nil, c.retryError(url, attempt+1, last)
		}

		backoff := ratelimit.CalculateBackoff(attempt, c.config)
		if resp.StatusCode == http.StatusTooManyRequests {
			var retryAfter *string
			if v := resp.Header.Get("Retry-After"); v != "" {
				retryAfter = &v
			}
			backoff = ratelimit.CalculateRateLimitBackoff(attempt, c.config, retryAfter)
		}

		resp.Body.Close()
		ratelimit.Sleep(int(backoff.Milliseconds()))
	}

	// Unreachable: the loop above always returns on its final iteration.
	return nil, c.retryError(url, c.config.MaxRetries+1, last)
}

// GetBytes issues a GET request and reads the whole response body.
func (c *Client) GetBytes(url string) ([]byte, error) {
	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: read response body: %w", err)
	}
	return data, nil
}

// GetConfig returns the client's current rate limit configuration.
func (c *Client) GetConfig() ratelimit.Config {
	return c.config
}

// SetConfig replaces the client's rate limit configuration, including
// the underlying rate limiter's.
func (c *Client) SetConfig(config ratelimit.Config) {
	c.config = config
	c.rateLimiter.SetConfig(config)
}

// ComputeSha256 hex-encodes the SHA-256 digest of data.
func ComputeSha256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
