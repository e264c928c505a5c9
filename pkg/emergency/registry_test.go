package emergency

import (
	"testing"
	"time"

	"razglasgo/pkg/model"
)

func TestSecurityAlertDefaults(t *testing.T) {
	r := New()
	e := r.AddSecurityAlert("high", "Report unattended baggage to staff.")

	if e.Priority != 0 {
		t.Errorf("priority = %d, want 0", e.Priority)
	}
	if e.RepeatInterval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", e.RepeatInterval)
	}
	if e.MaxRepeats != 10 {
		t.Errorf("max repeats = %d, want 10", e.MaxRepeats)
	}
	if !e.IsActive || e.CurrentRepeats != 0 {
		t.Error("fresh entry must be active with zero repeats")
	}
}

func TestKindDefaults(t *testing.T) {
	r := New()
	tests := []struct {
		name     string
		entry    *Entry
		priority int
		interval time.Duration
		max      int
	}{
		{"evacuation", r.AddEvacuation("terminal two", "fire alarm"), 0, 5 * time.Minute, 15},
		{"security level change", r.AddSecurityLevelChange("orange", ""), 1, 10 * time.Minute, 5},
		{"lost found", r.AddLostFound("A black suitcase", "gate A3"), 4, 10 * time.Minute, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.entry.Priority != tt.priority {
				t.Errorf("priority = %d, want %d", tt.entry.Priority, tt.priority)
			}
			if tt.entry.RepeatInterval != tt.interval {
				t.Errorf("interval = %v, want %v", tt.entry.RepeatInterval, tt.interval)
			}
			if tt.entry.MaxRepeats != tt.max {
				t.Errorf("max repeats = %d, want %d", tt.entry.MaxRepeats, tt.max)
			}
			if tt.entry.Text == "" {
				t.Error("empty synthesized text")
			}
		})
	}
}

func TestTickRepeatsUntilExhausted(t *testing.T) {
	r := New()
	now := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	r.SetNowFunc(func() time.Time { return now })

	e := r.AddSecurityAlert("high", "test")

	emitted := 0
	// Tick every minute for two hours; the 5-minute interval caps emissions.
	for i := 0; i < 120; i++ {
		emitted += len(r.Tick())
		now = now.Add(time.Minute)
	}
	if emitted != e.MaxRepeats {
		t.Errorf("entry emitted %d times, want exactly %d", emitted, e.MaxRepeats)
	}
	if len(r.GetActive()) != 0 {
		t.Error("exhausted entry still active")
	}

	// Further ticks stay silent.
	now = now.Add(time.Hour)
	if len(r.Tick()) != 0 {
		t.Error("exhausted entry emitted after deactivation")
	}
}

func TestTickIntervalRespected(t *testing.T) {
	r := New()
	now := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	r.SetNowFunc(func() time.Time { return now })

	r.AddSecurityAlert("", "")
	if len(r.Tick()) != 1 {
		t.Fatal("fresh entry did not emit on first tick")
	}

	now = now.Add(4 * time.Minute)
	if len(r.Tick()) != 0 {
		t.Error("entry re-emitted before its interval")
	}

	now = now.Add(time.Minute)
	if len(r.Tick()) != 1 {
		t.Error("entry did not re-emit after its interval")
	}
}

func TestTickOutputSortedByPriority(t *testing.T) {
	r := New()
	now := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	r.SetNowFunc(func() time.Time { return now })

	r.AddLostFound("A wallet", "")
	r.AddSecurityAlert("high", "")

	out := r.Tick()
	if len(out) != 2 {
		t.Fatalf("got %d items, want 2", len(out))
	}
	if out[0].Kind != model.KindSecurityAlert || out[1].Kind != model.KindLostFound {
		t.Errorf("batch not priority sorted: %v then %v", out[0].Kind, out[1].Kind)
	}
	if !out[0].IsEmergency {
		t.Error("emergency item not flagged as emergency")
	}
}

func TestDeactivateIdempotent(t *testing.T) {
	r := New()
	e := r.AddEvacuation("", "")

	if !r.Deactivate(e.ID) {
		t.Fatal("deactivate of known id returned false")
	}
	if !r.Deactivate(e.ID) {
		t.Error("second deactivate of same id returned false")
	}
	if r.Deactivate("no-such-id") {
		t.Error("deactivate of unknown id returned true")
	}
	if len(r.GetActive()) != 0 {
		t.Error("deactivated entry still listed active")
	}
	if len(r.Tick()) != 0 {
		t.Error("deactivated entry still emits")
	}
}

func TestClearAll(t *testing.T) {
	r := New()
	r.AddSecurityAlert("", "")
	r.AddLostFound("A phone", "")

	r.ClearAll()
	r.ClearAll() // idempotent
	if len(r.GetActive()) != 0 {
		t.Error("entries survived clear-all")
	}
	if len(r.Tick()) != 0 {
		t.Error("cleared entries still emit")
	}
}
