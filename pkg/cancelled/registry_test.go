package cancelled

import (
	"context"
	"sync"
	"testing"
	"time"

	"razglasgo/pkg/config"
	"razglasgo/pkg/model"
)

type captureEnqueuer struct {
	mu    sync.Mutex
	items []model.Announcement
}

func (c *captureEnqueuer) Enqueue(items ...model.Announcement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, items...)
}

func (c *captureEnqueuer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func cancelledFlight() *model.Flight {
	return &model.Flight{
		AirlineIATA:   "JU",
		AirlineName:   "Air Serbia",
		Ident:         "150",
		Movement:      model.MovementDeparture,
		CityName:      "Vienna",
		CityCode:      "VIE",
		ScheduledTime: "14:30",
		Status:        "Cancelled",
	}
}

func newTestRegistry(t *testing.T, start time.Time) (*Registry, *captureEnqueuer, *time.Time) {
	t.Helper()
	now := start
	sink := &captureEnqueuer{}
	r := New(config.DefaultConfig().Cancelled, nil, sink)
	r.SetNowFunc(func() time.Time { return now })
	t.Cleanup(r.Stop)
	return r, sink, &now
}

func TestObserveIdempotent(t *testing.T) {
	r, _, _ := newTestRegistry(t, time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC))

	f := cancelledFlight()
	r.Observe(context.Background(), f)
	r.Observe(context.Background(), f)
	if r.Len() != 1 {
		t.Errorf("registry has %d entries after double Observe, want 1", r.Len())
	}
}

func TestSweepPushesOnCadence(t *testing.T) {
	r, sink, now := newTestRegistry(t, time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC))
	r.Observe(context.Background(), cancelledFlight())

	// First sweep pushes the never-announced entry.
	*now = now.Add(30 * time.Minute)
	r.Sweep()
	if sink.count() != 1 {
		t.Fatalf("first sweep enqueued %d items, want 1", sink.count())
	}

	// A sweep before the cadence elapses pushes nothing.
	*now = now.Add(10 * time.Minute)
	r.Sweep()
	if sink.count() != 1 {
		t.Errorf("early sweep enqueued again, total %d", sink.count())
	}

	// Past the cadence it re-pushes.
	*now = now.Add(21 * time.Minute)
	r.Sweep()
	if sink.count() != 2 {
		t.Errorf("sweep after cadence enqueued total %d, want 2", sink.count())
	}
}

func TestRemoveStopsPushes(t *testing.T) {
	r, sink, now := newTestRegistry(t, time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC))
	f := cancelledFlight()
	r.Observe(context.Background(), f)

	*now = now.Add(30 * time.Minute)
	r.Sweep()
	if sink.count() != 1 {
		t.Fatalf("sweep enqueued %d items, want 1", sink.count())
	}

	r.Remove(f.Key())
	if r.Contains(f.Key()) {
		t.Error("entry still present after Remove")
	}

	*now = now.Add(time.Hour)
	r.Sweep()
	if sink.count() != 1 {
		t.Errorf("removed entry still pushed, total %d", sink.count())
	}
}

func TestEndOfDayExpiry(t *testing.T) {
	r, sink, now := newTestRegistry(t, time.Date(2026, 3, 10, 20, 45, 0, 0, time.UTC))
	r.Observe(context.Background(), cancelledFlight())

	// Past 21:00 the entry expires without being announced.
	*now = now.Add(20 * time.Minute)
	r.Sweep()
	if r.Len() != 0 {
		t.Error("entry survived the end-of-day boundary")
	}
	if sink.count() != 0 {
		t.Errorf("expired entry was enqueued %d times", sink.count())
	}
}

func TestEntryCreatedAfterEndOfDayRollsOver(t *testing.T) {
	// 22:00: the boundary rolls to 21:00 the next day.
	r, sink, now := newTestRegistry(t, time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC))
	f := cancelledFlight()
	r.Observe(context.Background(), f)

	*now = now.Add(30 * time.Minute)
	r.Sweep()
	if sink.count() != 1 {
		t.Errorf("late-night entry not announced, got %d", sink.count())
	}
	if !r.Contains(f.Key()) {
		t.Error("late-night entry expired prematurely")
	}
}

func TestInactivityExpiry(t *testing.T) {
	// Early morning so the 12h inactivity line is hit before 21:00.
	r, _, now := newTestRegistry(t, time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC))
	r.Observe(context.Background(), cancelledFlight())

	*now = now.Add(13 * time.Hour)
	r.Sweep()
	if r.Len() != 0 {
		t.Error("entry survived 13 hours of inactivity")
	}
}

func TestResolvedTextReused(t *testing.T) {
	r, sink, now := newTestRegistry(t, time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC))
	r.Observe(context.Background(), cancelledFlight())

	*now = now.Add(30 * time.Minute)
	r.Sweep()
	*now = now.Add(30 * time.Minute)
	r.Sweep()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.items) != 2 {
		t.Fatalf("got %d items, want 2", len(sink.items))
	}
	if sink.items[0].Text == "" || sink.items[0].Text != sink.items[1].Text {
		t.Error("cancelled text not resolved once and reused")
	}
	if sink.items[0].Kind != model.KindCancelled {
		t.Errorf("item kind = %q, want cancelled", sink.items[0].Kind)
	}
}
