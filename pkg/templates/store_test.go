package templates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"razglasgo/pkg/model"
	"razglasgo/pkg/request"
	"razglasgo/pkg/tracker"
)

func newStore(t *testing.T, handler http.HandlerFunc) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := request.New(tracker.New(), 5*time.Second, 1, nil)
	return New(client, srv.URL, "en", time.Minute, tracker.New()), srv
}

func TestFetchTemplate(t *testing.T) {
	var calls int32
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("airline") != "JAT" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"template":"Flight {flightNumber} to {destination} is now boarding at gate {gate}."}`))
	})

	tmpl, ok := store.Fetch(context.Background(), "JAT", model.KindBoarding)
	if !ok {
		t.Fatal("expected template")
	}
	if tmpl == "" {
		t.Fatal("empty template")
	}

	// Second fetch is served from cache.
	if _, ok := store.Fetch(context.Background(), "JAT", model.KindBoarding); !ok {
		t.Fatal("expected cached template")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("store calls = %d, want 1", calls)
	}
}

func TestFetchNotFound(t *testing.T) {
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, ok := store.Fetch(context.Background(), "XXX", model.KindDelay); ok {
		t.Error("expected no template for 404")
	}
}

func TestFetchStoreDown(t *testing.T) {
	store, srv := newStore(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	if _, ok := store.Fetch(context.Background(), "JAT", model.KindDelay); ok {
		t.Error("expected fallback when store is unreachable")
	}
}
