package model

import (
	"fmt"
	"strings"
	"time"
)

// Movement distinguishes departures from arrivals.
type Movement string

const (
	MovementDeparture Movement = "departure"
	MovementArrival   Movement = "arrival"
)

// Flight is one scheduled movement as delivered by the feed. Flights are
// ephemeral: every fetch cycle produces a fresh snapshot, and identity across
// cycles is reconstructed via Key().
type Flight struct {
	AirlineIATA string   `json:"airline_iata"`
	AirlineICAO string   `json:"airline_icao"`
	AirlineName string   `json:"airline_name"`
	Ident       string   `json:"ident"` // flight number, e.g. "JU150"
	Movement    Movement `json:"movement"`
	CityName    string   `json:"city_name"` // origin or destination city
	CityCode    string   `json:"city_code"` // origin or destination IATA code

	ScheduledTime string `json:"scheduled_time"` // HH:MM
	EstimatedTime string `json:"estimated_time,omitempty"`
	ActualTime    string `json:"actual_time,omitempty"`
	DelayMinutes  int    `json:"delay_minutes,omitempty"`

	Gate            string `json:"gate,omitempty"`             // may list multiple, comma-separated
	CheckInCounters string `json:"checkin_counters,omitempty"` // may list multiple

	// Raw status text from the feed. Must go through status.Normalize before
	// any decision logic reads it.
	Status string `json:"status"`
}

// Key returns the composite identity used to track a flight across fetch
// cycles: airline code + flight ident + origin/destination code.
func (f *Flight) Key() string {
	return f.AirlineIATA + f.Ident + f.CityCode
}

// Gates splits the gate field into individual gate identifiers.
func (f *Flight) Gates() []string {
	if strings.TrimSpace(f.Gate) == "" {
		return nil
	}
	parts := strings.Split(f.Gate, ",")
	gates := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			gates = append(gates, g)
		}
	}
	return gates
}

// ScheduledMinutes parses ScheduledTime into minutes-of-day.
func (f *Flight) ScheduledMinutes() (int, error) {
	return parseMinutesOfDay(f.ScheduledTime)
}

// MinutesToScheduled returns scheduled minutes-of-day minus now's
// minutes-of-day. Negative once the scheduled time has passed.
func (f *Flight) MinutesToScheduled(now time.Time) (int, error) {
	sched, err := f.ScheduledMinutes()
	if err != nil {
		return 0, err
	}
	return sched - (now.Hour()*60 + now.Minute()), nil
}

func parseMinutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return 0, fmt.Errorf("invalid HH:MM time %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Schedule is one fetch cycle's snapshot of the flight board.
type Schedule struct {
	Departures []Flight `json:"departures"`
	Arrivals   []Flight `json:"arrivals"`
}

// All returns departures followed by arrivals.
func (s *Schedule) All() []Flight {
	out := make([]Flight, 0, len(s.Departures)+len(s.Arrivals))
	out = append(out, s.Departures...)
	out = append(out, s.Arrivals...)
	return out
}
