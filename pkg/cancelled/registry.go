// Package cancelled keeps the long-lived registry of cancelled flights and
// re-announces them on their own coarse cadence, separate from the per-cycle
// eligibility checks.
package cancelled

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"razglasgo/pkg/config"
	"razglasgo/pkg/model"
	"razglasgo/pkg/texts"
)

// Enqueuer is the playback pipeline surface the registry pushes into.
type Enqueuer interface {
	Enqueue(items ...model.Announcement)
}

// entry is one cancelled flight. Text is resolved once at creation and
// reused for every push.
type entry struct {
	flight      model.Flight
	text        string
	addedAt     time.Time
	endAt       time.Time // end-of-day boundary for this entry
	lastSeenAt  time.Time
	lastFiredAt time.Time
	pushed      bool
}

// Registry tracks cancelled flights for the rest of the day. The sweep ticker
// starts lazily with the first entry and stops once the registry empties.
type Registry struct {
	cfg      config.CancelledConfig
	resolver *texts.Resolver
	pipeline Enqueuer

	mu      sync.Mutex
	entries map[string]*entry
	stopCh  chan struct{}

	now func() time.Time
}

// New creates a Registry. The config must have passed config.Validate.
func New(cfg config.CancelledConfig, resolver *texts.Resolver, pipeline Enqueuer) *Registry {
	return &Registry{
		cfg:      cfg,
		resolver: resolver,
		pipeline: pipeline,
		entries:  make(map[string]*entry),
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (r *Registry) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Observe registers a flight seen in Cancelled state. Idempotent: a known
// key only refreshes its activity timestamp.
func (r *Registry) Observe(ctx context.Context, f *model.Flight) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	key := f.Key()
	if e, ok := r.entries[key]; ok {
		e.lastSeenAt = now
		return
	}

	var text string
	if r.resolver != nil {
		text, _, _ = r.resolver.Resolve(ctx, f, model.KindCancelled)
	}
	if text == "" {
		text = texts.DefaultText(model.KindCancelled, f)
	}

	r.entries[key] = &entry{
		flight:     *f,
		text:       text,
		addedAt:    now,
		endAt:      r.endOfDay(now),
		lastSeenAt: now,
	}
	slog.Info("Cancelled: flight registered", "flight", f.Ident, "destination", f.CityCode)

	if r.stopCh == nil {
		r.stopCh = make(chan struct{})
		go r.run(r.stopCh)
	}
}

// Remove drops a flight from the registry, typically because the feed no
// longer reports it as cancelled. An announcement already playing is not
// recalled.
func (r *Registry) Remove(flightKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[flightKey]; !ok {
		return
	}
	delete(r.entries, flightKey)
	slog.Info("Cancelled: flight removed", "key", flightKey)
	r.stopIfEmptyLocked()
}

// Contains reports whether the flight key has an active entry.
func (r *Registry) Contains(flightKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[flightKey]
	return ok
}

// Len returns the number of active entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stop halts the sweep ticker. Safe to call repeatedly.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
}

// Sweep pushes every active entry that has never been announced, or whose
// last announcement is at least a sweep interval old, into the pipeline.
// Expired and stale entries are dropped.
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var batch []model.Announcement
	for key, e := range r.entries {
		if now.After(e.endAt) || now.Sub(e.lastSeenAt) > time.Duration(r.cfg.MaxInactivity) {
			delete(r.entries, key)
			slog.Info("Cancelled: entry expired", "key", key)
			continue
		}
		if !e.pushed || now.Sub(e.lastFiredAt) >= time.Duration(r.cfg.SweepInterval) {
			e.pushed = true
			e.lastFiredAt = now
			snap := e.flight
			batch = append(batch, model.Announcement{
				Kind:     model.KindCancelled,
				Text:     e.text,
				Flight:   &snap,
				Priority: model.KindCancelled.Priority(),
			})
		}
	}
	r.stopIfEmptyLocked()

	if len(batch) > 0 && r.pipeline != nil {
		model.SortByPriority(batch)
		r.pipeline.Enqueue(batch...)
	}
}

func (r *Registry) run(stop chan struct{}) {
	ticker := time.NewTicker(time.Duration(r.cfg.SweepInterval))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) stopIfEmptyLocked() {
	if len(r.entries) == 0 && r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
}

// endOfDay returns the next end-of-day boundary after t. An entry created
// past the boundary lives until the boundary of the following day.
func (r *Registry) endOfDay(t time.Time) time.Time {
	parsed, err := time.Parse("15:04", r.cfg.EndOfDay)
	if err != nil {
		// Validate catches this at startup; fall back to midnight just in case.
		return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
	}
	end := time.Date(t.Year(), t.Month(), t.Day(), parsed.Hour(), parsed.Minute(), 0, 0, t.Location())
	if !end.After(t) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}
