package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/logging"
)

const (
	userAgent       = "Birthdays/1.0"
	maxErrorBodyLen = 256
)

// ClientOptions configures an HTTPClient.
type ClientOptions struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
}

// DefaultClientOptions returns a 30s timeout and three retries after 0s,
// 5s and 30s.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		RetryDelays: []time.Duration{0, 5 * time.Second, 30 * time.Second},
	}
}

// HTTPClient posts webhook payloads, retrying rate limits, server errors
// and transport failures.
type HTTPClient struct {
	client     *http.Client
	maxRetries int
	retryDelay []time.Duration
}

// NewHTTPClient creates a client from opts.
func NewHTTPClient(opts ClientOptions) *HTTPClient {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &HTTPClient{
		client:     &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelays,
	}
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Error      error
}

// delay returns the wait before the given retry. Retries past the end of
// the configured delays reuse the last one.
func (c *HTTPClient) delay(attempt int) time.Duration {
	if attempt == 0 || len(c.retryDelay) == 0 {
		return 0
	}
	return c.retryDelay[min(attempt, len(c.retryDelay)-1)]
}

// Send posts body to url. Failures are NetworkErrors.
func (c *HTTPClient) Send(ctx context.Context, url, contentType string, body []byte) *SendResult {
	result := &SendResult{}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		if d := c.delay(attempt); d > 0 {
			select {
			case <-ctx.Done():
				result.Error = apperrors.NewNetworkError("send webhook", result.StatusCode, ctx.Err())
				return result
			case <-time.After(d):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			result.Error = apperrors.NewNetworkError("send webhook", 0, err)
			return result
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			result.Error = apperrors.NewNetworkError("send webhook", 0, err)
			if ctx.Err() != nil {
				return result
			}
			logging.DebugContext(ctx, "webhook request failed",
				logging.KeyURL, logging.MaskURL(url), "attempt", result.Attempts, logging.KeyError, err)
			continue
		}

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		resp.Body.Close()
		result.StatusCode = resp.StatusCode

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result.Error = nil
			return result
		case resp.StatusCode == http.StatusTooManyRequests:
			result.Error = apperrors.NewNetworkError("send webhook", resp.StatusCode, fmt.Errorf("rate limited"))
		case resp.StatusCode >= 500:
			result.Error = apperrors.NewNetworkError("send webhook", resp.StatusCode, fmt.Errorf("server error: %s", snippet))
		default:
			// Client errors are not retried.
			result.Error = apperrors.NewNetworkError("send webhook", resp.StatusCode, fmt.Errorf("client error: %s", snippet))
			return result
		}
		logging.DebugContext(ctx, "webhook rejected",
			logging.KeyURL, logging.MaskURL(url), logging.KeyStatus, resp.StatusCode, "attempt", result.Attempts)
	}
	return result
}
