package model

import (
	"testing"
	"time"
)

func TestFlightKey(t *testing.T) {
	f := Flight{AirlineIATA: "JU", Ident: "JU150", CityCode: "BEG"}
	if got := f.Key(); got != "JUJU150BEG" {
		t.Errorf("Key() = %q, want %q", got, "JUJU150BEG")
	}
}

func TestFlightGates(t *testing.T) {
	tests := []struct {
		name string
		gate string
		want int
	}{
		{"empty", "", 0},
		{"single", "3", 1},
		{"multiple", "3, 4", 2},
		{"trailing comma", "3,4,", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Flight{Gate: tt.gate}
			if got := len(f.Gates()); got != tt.want {
				t.Errorf("Gates() len = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMinutesToScheduled(t *testing.T) {
	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	f := Flight{ScheduledTime: "14:30"}
	got, err := f.MinutesToScheduled(now)
	if err != nil {
		t.Fatalf("MinutesToScheduled: %v", err)
	}
	if got != 90 {
		t.Errorf("MinutesToScheduled = %d, want 90", got)
	}

	// Past scheduled time goes negative.
	late := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	got, err = f.MinutesToScheduled(late)
	if err != nil {
		t.Fatalf("MinutesToScheduled: %v", err)
	}
	if got != -30 {
		t.Errorf("MinutesToScheduled = %d, want -30", got)
	}
}

func TestMinutesToScheduledInvalid(t *testing.T) {
	f := Flight{ScheduledTime: "garbage"}
	if _, err := f.MinutesToScheduled(time.Now()); err == nil {
		t.Error("expected error for invalid scheduled time")
	}
}

func TestKindPriority(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindEvacuation, 0},
		{KindSecurityAlert, 0},
		{KindCancelled, 2},
		{KindDelay, 3},
		{KindBoarding, 4},
		{KindOnTime, 5},
		{KindCheckIn, 6},
		{KindArrived, 7},
		{KindAIAssistance, 8},
		{KindGeneric, 9},
		{Kind("made-up"), 10},
	}
	for _, tt := range tests {
		if got := tt.kind.Priority(); got != tt.want {
			t.Errorf("Priority(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestSortByPriorityStable(t *testing.T) {
	batch := []Announcement{
		NewAnnouncement(KindCheckIn, "a", nil),
		NewAnnouncement(KindDelay, "b", nil),
		NewAnnouncement(KindDelay, "c", nil),
		NewAnnouncement(KindEvacuation, "d", nil),
	}
	SortByPriority(batch)

	wantTexts := []string{"d", "b", "c", "a"}
	for i, w := range wantTexts {
		if batch[i].Text != w {
			t.Errorf("batch[%d].Text = %q, want %q", i, batch[i].Text, w)
		}
	}
}
