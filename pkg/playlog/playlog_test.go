package playlog

import (
	"path/filepath"
	"testing"

	"razglasgo/pkg/db"
)

func TestRecordInsertsRow(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	defer d.Close()

	l := New(d)
	l.Record(Entry{
		AirlineICAO:     "JAT",
		FlightNumber:    "JU150",
		DestinationCode: "BEG",
		Kind:            "boarding",
		Gate:            "3",
		Filename:        "JAT_boarding_3.mp3",
	})
	l.Flush()

	var count int
	if err := d.QueryRow("SELECT count(*) FROM play_log WHERE flight_number = 'JU150'").Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestRecordNilDB(t *testing.T) {
	l := New(nil)
	// Must not panic or block.
	l.Record(Entry{FlightNumber: "JU150"})
	l.Flush()
}
