package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"razglasgo/pkg/tracker"
)

func newTestClient() *Client {
	return New(tracker.New(), 5*time.Second, 3, NewProviderBackoff(time.Millisecond, 10*time.Millisecond))
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, status, err := newTestClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %s", body)
	}
}

func TestGetRetriesOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, _, err := newTestClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %s", body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestGetNoRetryOn404(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, status, err := newTestClient().Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if status != http.StatusNotFound {
		t.Errorf("status = %d", status)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/exists.mp3" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient()
	if !c.Head(context.Background(), srv.URL+"/exists.mp3") {
		t.Error("expected probe success for existing asset")
	}
	if c.Head(context.Background(), srv.URL+"/missing.mp3") {
		t.Error("expected probe failure for missing asset")
	}
}

func TestBackoffBlocksProvider(t *testing.T) {
	b := NewProviderBackoff(time.Hour, time.Hour)
	b.RecordFailure("example.com")

	if b.Allowed("example.com") {
		t.Error("provider should be backing off after failure")
	}
	if !b.Allowed("other.com") {
		t.Error("unrelated provider should not be affected")
	}
}

func TestBackoffRecovery(t *testing.T) {
	b := NewProviderBackoff(time.Millisecond, time.Millisecond)
	b.RecordFailure("example.com")
	b.RecordSuccess("example.com")

	if count, _ := b.GetState("example.com"); count != 0 {
		t.Errorf("failureCount = %d, want 0", count)
	}
	if !b.Allowed("example.com") {
		t.Error("provider should be allowed after recovery")
	}
}

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"localhost:3000", "localhost"},
		{"www.example.com", "example.com"},
		{"api.example.com:8080", "api.example.com"},
	}
	for _, tt := range tests {
		if got := normalizeProvider(tt.host); got != tt.want {
			t.Errorf("normalizeProvider(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
