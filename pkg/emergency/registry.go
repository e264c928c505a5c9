// Package emergency is the operator-triggered announcement channel. Entries
// repeat on their own interval, independent of the flight feed, until their
// repeat cap or an explicit deactivation.
package emergency

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"razglasgo/pkg/model"
)

// Entry is one active or exhausted emergency announcement.
type Entry struct {
	ID             string        `json:"id"`
	Kind           model.Kind    `json:"kind"`
	Text           string        `json:"text"`
	Priority       int           `json:"priority"`
	LastFiredAt    time.Time     `json:"last_fired_at"`
	IsActive       bool          `json:"is_active"`
	RepeatInterval time.Duration `json:"repeat_interval"`
	MaxRepeats     int           `json:"max_repeats"`
	CurrentRepeats int           `json:"current_repeats"`
}

// Registry holds emergency entries. Safe for concurrent use: the control
// surface and the scheduler tick touch it from different goroutines.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (r *Registry) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// AddSecurityAlert registers a security alert: priority 0, every 5 minutes,
// up to 10 times.
func (r *Registry) AddSecurityAlert(level, message string) *Entry {
	text := "Attention please. This is a security announcement."
	if strings.TrimSpace(level) != "" {
		text = fmt.Sprintf("Attention please. This is a %s level security announcement.", strings.ToLower(level))
	}
	if strings.TrimSpace(message) != "" {
		text += " " + message
	}
	return r.add(model.KindSecurityAlert, text, 0, 5*time.Minute, 10)
}

// AddEvacuation registers an evacuation order: priority 0, every 5 minutes,
// up to 15 times.
func (r *Registry) AddEvacuation(area, reason string) *Entry {
	text := "Attention please. This is an emergency announcement. Please evacuate"
	if strings.TrimSpace(area) != "" {
		text += " " + area
	}
	text += " immediately and follow the instructions of airport staff."
	if strings.TrimSpace(reason) != "" {
		text += " Reason: " + reason + "."
	}
	return r.add(model.KindEvacuation, text, 0, 5*time.Minute, 15)
}

// AddSecurityLevelChange registers a security level change: priority 1,
// every 10 minutes, up to 5 times.
func (r *Registry) AddSecurityLevelChange(newLevel, details string) *Entry {
	text := fmt.Sprintf("Attention please. The airport security level has changed to %s. Additional screening may be in effect.", newLevel)
	if strings.TrimSpace(details) != "" {
		text += " " + details
	}
	return r.add(model.KindSecurityLevelChange, text, 1, 10*time.Minute, 5)
}

// AddLostFound registers a lost-and-found notice: priority 4, every 10
// minutes, up to 3 times.
func (r *Registry) AddLostFound(item, location string) *Entry {
	text := fmt.Sprintf("Attention please. %s has been found", item)
	if strings.TrimSpace(location) != "" {
		text += " near " + location
	}
	text += ". The owner may collect it at the lost and found office."
	return r.add(model.KindLostFound, text, 4, 10*time.Minute, 3)
}

func (r *Registry) add(kind model.Kind, text string, priority int, interval time.Duration, maxRepeats int) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entry{
		ID:             uuid.NewString(),
		Kind:           kind,
		Text:           text,
		Priority:       priority,
		IsActive:       true,
		RepeatInterval: interval,
		MaxRepeats:     maxRepeats,
	}
	r.entries[e.ID] = e
	slog.Info("Emergency: entry registered", "id", e.ID, "kind", kind, "priority", priority)
	return r.snapshotLocked(e)
}

// Tick emits every active entry whose repeat interval has elapsed. Repeat
// counters only ever increase, one per emission; reaching the cap
// deactivates the entry.
func (r *Registry) Tick() []model.Announcement {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var out []model.Announcement
	for _, e := range r.entries {
		if !e.IsActive {
			continue
		}
		if !e.LastFiredAt.IsZero() && now.Sub(e.LastFiredAt) < e.RepeatInterval {
			continue
		}
		e.LastFiredAt = now
		e.CurrentRepeats++
		if e.CurrentRepeats >= e.MaxRepeats {
			e.IsActive = false
			slog.Info("Emergency: entry exhausted", "id", e.ID, "kind", e.Kind, "repeats", e.CurrentRepeats)
		}
		out = append(out, model.Announcement{
			Kind:        e.Kind,
			Text:        e.Text,
			Priority:    e.Priority,
			IsEmergency: true,
		})
	}
	model.SortByPriority(out)
	return out
}

// Deactivate stops an entry immediately. Idempotent; returns false for an
// unknown id.
func (r *Registry) Deactivate(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	if e.IsActive {
		e.IsActive = false
		slog.Info("Emergency: entry deactivated", "id", id, "kind", e.Kind)
	}
	return true
}

// ClearAll removes every entry, active or not. Idempotent.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) > 0 {
		slog.Info("Emergency: all entries cleared", "count", len(r.entries))
	}
	r.entries = make(map[string]*Entry)
}

// GetActive returns snapshots of all active entries.
func (r *Registry) GetActive() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.entries {
		if e.IsActive {
			out = append(out, *r.snapshotLocked(e))
		}
	}
	return out
}

func (r *Registry) snapshotLocked(e *Entry) *Entry {
	snap := *e
	return &snap
}
