// Package request provides the shared HTTP client used for every collaborator
// call: flight feed, template store, AI provider and asset probes.
package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"razglasgo/pkg/tracker"
	"razglasgo/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("Razglas Airport PA (razglasgo/%s)", version.Version)

// Client handles HTTP requests with retries, per-provider backoff and tracking.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	backoff    *ProviderBackoff
	retries    int
}

// New creates a new Client.
func New(t *tracker.Tracker, timeout time.Duration, retries int, backoff *ProviderBackoff) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if retries < 1 {
		retries = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tracker:    t,
		backoff:    backoff,
		retries:    retries,
	}
}

// Get performs a GET request and returns the body for 2xx responses.
func (c *Client) Get(ctx context.Context, u string) ([]byte, int, error) {
	return c.do(ctx, http.MethodGet, u, nil, "")
}

// Post performs a POST request with the given body and content type.
func (c *Client) Post(ctx context.Context, u string, body []byte, contentType string) ([]byte, int, error) {
	return c.do(ctx, http.MethodPost, u, body, contentType)
}

// Head probes a resource for existence. It returns true only for a 2xx
// response; network errors and non-2xx statuses both read as "absent".
func (c *Client) Head(ctx context.Context, u string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, contentType string) ([]byte, int, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	if c.backoff != nil && !c.backoff.Allowed(provider) {
		return nil, 0, fmt.Errorf("provider %s is backing off", provider)
	}

	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= c.retries; attempt++ {
		var reader io.Reader = http.NoBody
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", defaultUserAgent)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		data, status, err := c.roundTrip(req)
		lastStatus = status
		if err == nil {
			c.trackSuccess(provider)
			return data, status, nil
		}
		lastErr = err

		// 4xx responses are not transient, retrying will not help.
		if status >= 400 && status < 500 {
			break
		}

		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
	}

	c.trackFailure(provider)
	return nil, lastStatus, lastErr
}

func (c *Client) roundTrip(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return data, resp.StatusCode, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}

	return data, resp.StatusCode, nil
}

func (c *Client) trackSuccess(provider string) {
	if c.tracker != nil {
		c.tracker.TrackAPISuccess(provider)
	}
	if c.backoff != nil {
		c.backoff.RecordSuccess(provider)
	}
}

func (c *Client) trackFailure(provider string) {
	if c.tracker != nil {
		c.tracker.TrackAPIFailure(provider)
	}
	if c.backoff != nil {
		c.backoff.RecordFailure(provider)
	}
}

// normalizeProvider reduces a host to a stable provider key (strips port and
// leading www).
func normalizeProvider(host string) string {
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}
