// Package failover chains AI providers so a failing one degrades to the next
// instead of surfacing errors into the announcement flow.
package failover

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"razglasgo/pkg/llm"
	"razglasgo/pkg/tracker"
)

// maxConsecutiveFailures disables a provider for the rest of the process
// lifetime once it keeps failing; the chain then skips it.
const maxConsecutiveFailures = 5

// Provider wraps multiple llm providers and handles fallbacks.
type Provider struct {
	providers []llm.Provider
	failures  []int
	disabled  []bool
	tracker   *tracker.Tracker
	mu        sync.Mutex
}

// New creates a failover Provider over an ordered chain.
func New(providers []llm.Provider, t *tracker.Tracker) (*Provider, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider required for failover")
	}
	return &Provider{
		providers: providers,
		failures:  make([]int, len(providers)),
		disabled:  make([]bool, len(providers)),
		tracker:   t,
	}, nil
}

// Name implements llm.Provider.
func (f *Provider) Name() string { return "failover" }

// GenerateAnnouncement tries each enabled provider in order and returns the
// first success. All-failed returns the last error.
func (f *Provider) GenerateAnnouncement(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	var lastErr error

	for i, p := range f.providers {
		if f.isDisabled(i) {
			continue
		}

		resp, err := p.GenerateAnnouncement(ctx, req)
		if err == nil {
			f.recordSuccess(i)
			return resp, nil
		}

		lastErr = err
		f.recordFailure(i, p.Name(), err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all providers disabled")
	}
	return nil, fmt.Errorf("ai generation failed on all providers: %w", lastErr)
}

// HealthCheck verifies that at least one provider is healthy.
func (f *Provider) HealthCheck(ctx context.Context) error {
	var lastErr error
	for i, p := range f.providers {
		if f.isDisabled(i) {
			continue
		}
		if err := p.HealthCheck(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("no healthy ai provider: %w", lastErr)
}

func (f *Provider) isDisabled(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disabled[i]
}

func (f *Provider) recordSuccess(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[i] = 0
}

func (f *Provider) recordFailure(i int, name string, err error) {
	if f.tracker != nil {
		f.tracker.TrackFallback(name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[i]++
	slog.Warn("AI provider failed, trying next in chain", "provider", name, "consecutive", f.failures[i], "error", err)

	if f.failures[i] >= maxConsecutiveFailures && !f.disabled[i] {
		f.disabled[i] = true
		slog.Error("AI provider disabled after repeated failures", "provider", name)
	}
}
