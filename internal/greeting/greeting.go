// Package greeting fetches a birthday greeting from a third-party message
// endpoint.
package greeting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/logging"
)

// Endpoint defaults.
const (
	DefaultURL      = "https://ajith-messages.p.rapidapi.com/getMsgs"
	DefaultHost     = "ajith-messages.p.rapidapi.com"
	DefaultCategory = "birthday"

	maxBodySize = 1 << 20
	op          = "fetch greeting"
)

// Options configures a Fetcher.
type Options struct {
	URL      string
	Host     string
	Key      string
	Category string
	// Client performs the request. It defaults to a client with no
	// timeout; the caller's context bounds the call.
	Client *http.Client
}

// Fetcher performs one greeting request per call. It never retries or
// caches.
type Fetcher struct {
	client   *http.Client
	endpoint string
	host     string
	key      string
	category string
}

// New creates a Fetcher, filling unset options with the defaults.
func New(opts Options) *Fetcher {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Category == "" {
		opts.Category = DefaultCategory
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	return &Fetcher{
		client:   opts.Client,
		endpoint: opts.URL,
		host:     opts.Host,
		key:      opts.Key,
		category: opts.Category,
	}
}

// requestURL appends the category filter to the endpoint.
func (f *Fetcher) requestURL() (string, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("category", f.category)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch returns the greeting text. ok is false, with a nil error, when the
// response is a JSON object without a string Message. Transport failures,
// non-2xx statuses and non-JSON bodies are NetworkErrors.
func (f *Fetcher) Fetch(ctx context.Context) (text string, ok bool, err error) {
	target, err := f.requestURL()
	if err != nil {
		return "", false, f.fail(ctx, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", false, f.fail(ctx, 0, err)
	}
	req.Header.Set("x-rapidapi-host", f.host)
	if f.key != "" {
		req.Header.Set("x-rapidapi-key", f.key)
	}

	logging.DebugContext(ctx, "fetching greeting",
		logging.KeyURL, logging.MaskString(target), "key", logging.MaskValue(f.key))

	resp, err := f.client.Do(req)
	if err != nil {
		return "", false, f.fail(ctx, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", false, f.fail(ctx, 0, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, f.fail(ctx, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	// Status 0 so the decode error is what gets reported.
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false, f.fail(ctx, 0, fmt.Errorf("decode response: %w", err))
	}

	raw, found := doc["Message"]
	if !found || string(raw) == "null" {
		logging.DebugContext(ctx, "greeting response has no message")
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &text); err != nil {
		logging.DebugContext(ctx, "greeting message is not a string")
		return "", false, nil
	}
	return text, true, nil
}

func (f *Fetcher) fail(ctx context.Context, status int, cause error) error {
	err := apperrors.NewNetworkError(op, status, cause)
	err.URL = logging.MaskURL(f.endpoint)
	logging.WarnContext(ctx, "greeting fetch failed", logging.KeyStatus, status, logging.KeyError, cause)
	return err
}
