// Package httpai implements llm.Provider against the plain HTTP generation
// endpoint.
package httpai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"razglasgo/pkg/llm"
	"razglasgo/pkg/request"
)

// Provider posts generation requests to a JSON endpoint.
type Provider struct {
	client  *request.Client
	url     string
	timeout time.Duration
}

// New creates a Provider.
func New(client *request.Client, url string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{client: client, url: url, timeout: timeout}
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "http" }

// GenerateAnnouncement implements llm.Provider. Non-200, timeout or malformed
// body all surface as errors; the failover chain decides what happens next.
func (p *Provider) GenerateAnnouncement(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, status, err := p.client.Post(callCtx, p.url, payload, "application/json")
	if err != nil {
		return nil, fmt.Errorf("ai endpoint failed (status %d): %w", status, err)
	}

	var resp llm.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ai endpoint returned malformed JSON: %w", err)
	}
	if resp.ShouldAnnounce && resp.Text == "" {
		return nil, fmt.Errorf("ai endpoint returned empty text")
	}

	return &resp, nil
}

// HealthCheck implements llm.Provider.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.url == "" {
		return fmt.Errorf("http ai provider not configured")
	}
	return nil
}
