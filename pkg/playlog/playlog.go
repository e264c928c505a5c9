// Package playlog records every announcement actually played, for audit.
// Writes are fire-and-forget: a failed insert is logged and never blocks or
// fails playback.
package playlog

import (
	"log/slog"
	"sync"

	"razglasgo/pkg/db"
)

// Entry describes one attempted play.
type Entry struct {
	AirlineICAO     string
	FlightNumber    string
	DestinationCode string
	Kind            string
	Gate            string
	Filename        string
}

// Sink receives play records. The pipeline depends on this interface so tests
// can substitute a recorder.
type Sink interface {
	Record(e Entry)
}

// Logger writes entries to the local sqlite play_log table.
type Logger struct {
	db *db.DB
	wg sync.WaitGroup
}

// New creates a Logger. A nil db makes Record a no-op.
func New(d *db.DB) *Logger {
	return &Logger{db: d}
}

// Record inserts the entry asynchronously. Errors are swallowed, console-only.
func (l *Logger) Record(e Entry) {
	if l.db == nil {
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		_, err := l.db.Exec(
			`INSERT INTO play_log (airline_icao, flight_number, destination_code, kind, gate, filename)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.AirlineICAO, e.FlightNumber, e.DestinationCode, e.Kind, e.Gate, e.Filename,
		)
		if err != nil {
			slog.Warn("PlayLog: insert failed", "flight", e.FlightNumber, "kind", e.Kind, "error", err)
		}
	}()
}

// Flush waits for in-flight writes. Used on shutdown and in tests.
func (l *Logger) Flush() {
	l.wg.Wait()
}
