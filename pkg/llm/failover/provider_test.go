package failover

import (
	"context"
	"errors"
	"testing"

	"razglasgo/pkg/llm"
	"razglasgo/pkg/tracker"
)

type fakeProvider struct {
	name  string
	resp  *llm.Response
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) GenerateAnnouncement(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	p.calls++
	return p.resp, p.err
}

func (p *fakeProvider) HealthCheck(ctx context.Context) error { return p.err }

func TestFailoverFirstSuccess(t *testing.T) {
	first := &fakeProvider{name: "a", resp: &llm.Response{Text: "from a", ShouldAnnounce: true}}
	second := &fakeProvider{name: "b", resp: &llm.Response{Text: "from b", ShouldAnnounce: true}}

	f, err := New([]llm.Provider{first, second}, tracker.New())
	if err != nil {
		t.Fatal(err)
	}

	resp, err := f.GenerateAnnouncement(context.Background(), &llm.Request{})
	if err != nil {
		t.Fatalf("GenerateAnnouncement: %v", err)
	}
	if resp.Text != "from a" {
		t.Errorf("Text = %q", resp.Text)
	}
	if second.calls != 0 {
		t.Error("second provider should not have been called")
	}
}

func TestFailoverFallsThrough(t *testing.T) {
	first := &fakeProvider{name: "a", err: errors.New("down")}
	second := &fakeProvider{name: "b", resp: &llm.Response{Text: "from b", ShouldAnnounce: true}}

	f, _ := New([]llm.Provider{first, second}, tracker.New())

	resp, err := f.GenerateAnnouncement(context.Background(), &llm.Request{})
	if err != nil {
		t.Fatalf("GenerateAnnouncement: %v", err)
	}
	if resp.Text != "from b" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestFailoverAllFail(t *testing.T) {
	f, _ := New([]llm.Provider{
		&fakeProvider{name: "a", err: errors.New("down")},
		&fakeProvider{name: "b", err: errors.New("also down")},
	}, tracker.New())

	if _, err := f.GenerateAnnouncement(context.Background(), &llm.Request{}); err == nil {
		t.Error("expected error when all providers fail")
	}
}

func TestFailoverDisablesAfterRepeatedFailures(t *testing.T) {
	bad := &fakeProvider{name: "a", err: errors.New("down")}
	good := &fakeProvider{name: "b", resp: &llm.Response{Text: "ok", ShouldAnnounce: true}}
	f, _ := New([]llm.Provider{bad, good}, tracker.New())

	for i := 0; i < maxConsecutiveFailures+2; i++ {
		if _, err := f.GenerateAnnouncement(context.Background(), &llm.Request{}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if bad.calls != maxConsecutiveFailures {
		t.Errorf("bad provider calls = %d, want %d (disabled afterwards)", bad.calls, maxConsecutiveFailures)
	}
}

func TestNewRequiresProviders(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("expected error for empty chain")
	}
}
