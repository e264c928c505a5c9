package httpai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"razglasgo/pkg/llm"
	"razglasgo/pkg/model"
	"razglasgo/pkg/request"
	"razglasgo/pkg/tracker"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := request.New(tracker.New(), 5*time.Second, 1, nil)
	return New(client, srv.URL, 5*time.Second)
}

func TestGenerateAnnouncement(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req llm.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Kind != model.KindAIDelayReason {
			t.Errorf("Kind = %s", req.Kind)
		}
		w.Write([]byte(`{"text":"We apologize for the delay.","tone":"apologetic","priority":3,"shouldAnnounce":true,"estimatedDuration":8}`))
	})

	resp, err := p.GenerateAnnouncement(context.Background(), &llm.Request{
		Flight:       model.Flight{Ident: "JU150"},
		Kind:         model.KindAIDelayReason,
		DelayMinutes: 45,
	})
	if err != nil {
		t.Fatalf("GenerateAnnouncement: %v", err)
	}
	if !resp.ShouldAnnounce || resp.Text == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGenerateAnnouncementDeclines(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"shouldAnnounce":false}`))
	})

	resp, err := p.GenerateAnnouncement(context.Background(), &llm.Request{})
	if err != nil {
		t.Fatalf("GenerateAnnouncement: %v", err)
	}
	if resp.ShouldAnnounce {
		t.Error("expected shouldAnnounce=false")
	}
}

func TestGenerateAnnouncementErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("nope"))
		}},
		{"empty text", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"shouldAnnounce":true,"text":""}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t, tt.handler)
			if _, err := p.GenerateAnnouncement(context.Background(), &llm.Request{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
