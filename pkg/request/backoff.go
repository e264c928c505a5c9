package request

import (
	"math/rand"
	"sync"
	"time"
)

// ProviderBackoff gates outbound calls per provider after repeated failures.
// The delay doubles per consecutive failure up to maxDelay and unwinds one
// step per success, so a flapping upstream recovers gradually.
type ProviderBackoff struct {
	mu        sync.RWMutex
	entries   map[string]*backoffEntry
	baseDelay time.Duration
	maxDelay  time.Duration
}

type backoffEntry struct {
	failures    int
	nextAllowed time.Time
}

// NewProviderBackoff creates a backoff gate with the given delay bounds.
func NewProviderBackoff(baseDelay, maxDelay time.Duration) *ProviderBackoff {
	return &ProviderBackoff{
		entries:   make(map[string]*backoffEntry),
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
	}
}

// Allowed reports whether the provider may issue a request right now.
func (b *ProviderBackoff) Allowed(provider string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[provider]
	if !ok {
		return true
	}
	return !time.Now().Before(e.nextAllowed)
}

// RecordFailure pushes the provider's next allowed time further out.
func (b *ProviderBackoff) RecordFailure(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[provider]
	if !ok {
		e = &backoffEntry{}
		b.entries[provider] = e
	}
	e.failures++
	e.nextAllowed = time.Now().Add(b.delayFor(e.failures))
}

// RecordSuccess unwinds one failure step; at zero the gate opens fully.
func (b *ProviderBackoff) RecordSuccess(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[provider]
	if !ok {
		return
	}
	if e.failures > 0 {
		e.failures--
	}
	if e.failures == 0 {
		e.nextAllowed = time.Time{}
	}
}

func (b *ProviderBackoff) delayFor(failures int) time.Duration {
	delay := b.baseDelay
	for i := 1; i < failures && delay < b.maxDelay; i++ {
		delay *= 2
	}
	if delay > b.maxDelay {
		delay = b.maxDelay
	}
	// 10% jitter keeps retries from aligning across providers.
	return delay + time.Duration(rand.Float64()*0.1*float64(delay))
}

// GetState exposes the provider's current backoff for stats and debugging.
func (b *ProviderBackoff) GetState(provider string) (failures int, nextAllowed time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if e, ok := b.entries[provider]; ok {
		return e.failures, e.nextAllowed
	}
	return 0, time.Time{}
}
