// Package request provides the resilient HTTP client shared by the platform
// connectors. Every remote call goes through Client.Do, which retries rate
// limited and transient failures with linear backoff and returns a
// *RequestError otherwise.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the number of attempts when none is configured.
	DefaultMaxAttempts = 3

	// DefaultRateLimitBackoff is the 429 base wait when no Retry-After is sent.
	DefaultRateLimitBackoff = time.Second

	// DefaultTransientBackoff is the base wait after a reset or timeout.
	DefaultTransientBackoff = 2000 * time.Millisecond

	// maxMessageBytes bounds the response excerpt kept in a RequestError.
	maxMessageBytes = 512
)

// Retry describes a backoff decision. Passed to Config.OnRetry.
type Retry struct {
	// Attempt is the 1-based attempt that failed.
	Attempt int
	// Wait is how long the client sleeps before the next attempt.
	Wait time.Duration
	// Status is the HTTP status that caused the retry. Zero for transport errors.
	Status int
	URL    string
	Err    error
}

// Config holds client configuration.
type Config struct {
	// Name labels log lines, e.g. "source" or "target".
	Name string

	// MaxAttempts bounds attempts per request, 429 retries included.
	MaxAttempts int

	// RateLimitBackoff is the 429 base wait when Retry-After is absent.
	RateLimitBackoff time.Duration

	// TransientBackoff is the base wait after a reset or timeout.
	TransientBackoff time.Duration

	// Timeout applies to each attempt when HTTPClient is nil.
	Timeout time.Duration

	// RateLimit configures proactive throttling.
	RateLimit RateLimitConfig

	// Headers are sent with every request.
	Headers map[string]string

	// HTTPClient overrides the underlying client, e.g. an oauth2 client.
	HTTPClient *http.Client

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each backoff.
	OnRetry func(Retry)
}

// Client wraps an HTTP client with retry logic and rate limit handling.
type Client struct {
	http    *http.Client
	config  Config
	limiter *RateLimiter
}

// New creates a new client with the given configuration.
func New(cfg Config) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = DefaultRateLimitBackoff
	}
	if cfg.TransientBackoff <= 0 {
		cfg.TransientBackoff = DefaultTransientBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Name == "" {
		cfg.Name = "http"
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		http:    hc,
		config:  cfg,
		limiter: NewRateLimiter(cfg.RateLimit),
	}
}

// Get performs a GET request with retry logic.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, url, nil, nil)
}

// GetJSON performs a GET request and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{Status: http.StatusOK, Message: "decode response: " + err.Error(), URL: url, Attempts: 1, Err: err}
	}
	return nil
}

// Do performs an HTTP request with retry logic and rate limit handling.
// A non-nil payload is sent as JSON. The response body of a 2xx reply is
// returned. Any other outcome is a *RequestError.
//
//nolint:gocyclo // Retry loop with necessary classification branches
func (c *Client) Do(
	ctx context.Context,
	method, url string,
	payload any,
	headers map[string]string,
) ([]byte, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, &RequestError{Message: "encode payload: " + err.Error(), URL: url, Err: err}
		}
		body = encoded
	}

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.fail(&RequestError{Message: err.Error(), URL: url, Attempts: attempt - 1, Err: err})
		}

		resp, err := c.attempt(ctx, method, url, body, headers)

		var wait time.Duration
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, c.fail(&RequestError{Message: ctx.Err().Error(), URL: url, Attempts: attempt, Err: ctx.Err()})

		case err != nil && isTransient(err):
			wait = scaleBackoff(c.config.TransientBackoff, attempt)

		case err != nil:
			return nil, c.fail(&RequestError{Message: err.Error(), URL: url, Attempts: attempt, Err: err})

		case resp.status >= 200 && resp.status < 300:
			return resp.body, nil

		case resp.status == http.StatusTooManyRequests:
			base, ok := parseRetryAfter(resp.header)
			if !ok {
				base = c.config.RateLimitBackoff
			}
			wait = scaleBackoff(base, attempt)
			err = domain.ErrRateLimited

		default:
			return nil, c.fail(&RequestError{
				Status:   resp.status,
				Message:  excerpt(resp.body),
				URL:      url,
				Attempts: attempt,
			})
		}

		if attempt >= c.config.MaxAttempts {
			reqErr := &RequestError{Message: "attempts exhausted: " + err.Error(), URL: url, Attempts: attempt, Err: err}
			if resp != nil {
				reqErr.Status = resp.status
				if len(resp.body) > 0 {
					reqErr.Message = excerpt(resp.body)
				}
			}
			return nil, c.fail(reqErr)
		}

		status := 0
		if resp != nil {
			status = resp.status
		}
		logger.Warn("%s: %s %s attempt %d/%d failed (%v), retrying in %s",
			c.config.Name, method, url, attempt, c.config.MaxAttempts, err, wait)
		if c.config.OnRetry != nil {
			c.config.OnRetry(Retry{Attempt: attempt, Wait: wait, Status: status, URL: url, Err: err})
		}

		if err := c.config.Sleep(ctx, wait); err != nil {
			return nil, c.fail(&RequestError{Message: err.Error(), URL: url, Attempts: attempt, Err: err})
		}
	}
}

// Close closes idle HTTP connections.
func (c *Client) Close() error {
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
	return nil
}

// response is the buffered outcome of one attempt.
type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) attempt(
	ctx context.Context,
	method, url string,
	body []byte,
	headers map[string]string,
) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: respBody}, nil
}

func (c *Client) fail(err *RequestError) error {
	logger.Error("%s: %v", c.config.Name, err)
	return err
}

// isTransient reports whether err is a connection reset or timeout.
func isTransient(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	// Dial failures such as DNS errors or refused connections are not retried.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func excerpt(body []byte) string {
	if len(body) > maxMessageBytes {
		return string(body[:maxMessageBytes]) + "..."
	}
	return string(body)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
