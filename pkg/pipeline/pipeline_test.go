package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"razglasgo/pkg/config"
	"razglasgo/pkg/model"
	"razglasgo/pkg/playlog"
	"razglasgo/pkg/request"
)

// fakeDevice records call ordering and tracks playback concurrency.
type fakeDevice struct {
	mu        sync.Mutex
	calls     []string
	onRestore func() // invoked once, mid-restore
	playErr   error
	playDelay time.Duration
	inFlight  int32
	maxFlight int32
}

func (d *fakeDevice) Play(ctx context.Context, path string) error {
	cur := atomic.AddInt32(&d.inFlight, 1)
	defer atomic.AddInt32(&d.inFlight, -1)
	for {
		max := atomic.LoadInt32(&d.maxFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&d.maxFlight, max, cur) {
			break
		}
	}
	if d.playDelay > 0 {
		time.Sleep(d.playDelay)
	}
	d.record("play:" + path)
	return d.playErr
}

func (d *fakeDevice) Duck() { d.record("duck") }

func (d *fakeDevice) Restore() {
	d.record("restore")
	d.mu.Lock()
	hook := d.onRestore
	d.onRestore = nil
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (d *fakeDevice) record(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, s)
}

func (d *fakeDevice) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

type fakeSynth struct {
	mu     sync.Mutex
	spoken []string
	err    error
}

func (s *fakeSynth) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return s.err
}

type recordSink struct {
	mu      sync.Mutex
	entries []playlog.Entry
}

func (r *recordSink) Record(e playlog.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func testCfg() config.AudioConfig {
	cfg := config.DefaultConfig().Audio
	cfg.GongPath = "gong.mp3"
	cfg.GongTimeout = config.Duration(time.Second)
	cfg.ContentTimeout = config.Duration(time.Second)
	cfg.InterItemDelay = config.Duration(time.Millisecond)
	return cfg
}

func speechItem(text string) model.Announcement {
	return model.NewAnnouncement(model.KindSafety, text, nil)
}

func waitIdle(t *testing.T, p *Pipeline) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !p.IsProcessing() && p.Pending() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("pipeline did not go idle")
}

func TestDrainOrdering(t *testing.T) {
	device := &fakeDevice{}
	synth := &fakeSynth{}
	p := New(testCfg(), device, synth, nil, nil)

	p.Enqueue(speechItem("first"), speechItem("second"))
	waitIdle(t, p)
	p.Shutdown()

	want := []string{"duck", "play:gong.mp3", "play:gong.mp3", "restore"}
	got := device.snapshot()
	if len(got) != len(want) {
		t.Fatalf("device calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("device calls = %v, want %v", got, want)
		}
	}
	if len(synth.spoken) != 2 || synth.spoken[0] != "first" || synth.spoken[1] != "second" {
		t.Errorf("spoken = %v, want [first second]", synth.spoken)
	}
}

func TestAtMostOnePlaying(t *testing.T) {
	device := &fakeDevice{playDelay: 5 * time.Millisecond}
	p := New(testCfg(), device, &fakeSynth{}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Enqueue(speechItem("concurrent"))
		}()
	}
	wg.Wait()
	waitIdle(t, p)
	p.Shutdown()

	if max := atomic.LoadInt32(&device.maxFlight); max != 1 {
		t.Errorf("observed %d concurrent plays, want 1", max)
	}
}

func TestMidDrainEnqueuePickedUpBySameDrain(t *testing.T) {
	device := &fakeDevice{playDelay: 10 * time.Millisecond}
	p := New(testCfg(), device, &fakeSynth{}, nil, nil)

	p.Enqueue(speechItem("one"))
	time.Sleep(3 * time.Millisecond) // drain now busy with the gong
	p.Enqueue(speechItem("two"))
	waitIdle(t, p)
	p.Shutdown()

	ducks := 0
	for _, c := range device.snapshot() {
		if c == "duck" {
			ducks++
		}
	}
	if ducks != 1 {
		t.Errorf("drain started %d times, want 1", ducks)
	}
}

func TestEnqueueDuringRestoreStaysDucked(t *testing.T) {
	device := &fakeDevice{}
	p := New(testCfg(), device, &fakeSynth{}, nil, nil)

	// Land three more items while the first drain is fading music back up.
	device.onRestore = func() {
		p.Enqueue(speechItem("late-1"), speechItem("late-2"), speechItem("late-3"))
	}

	p.Enqueue(speechItem("first"))
	waitIdle(t, p)
	p.Shutdown()

	calls := device.snapshot()

	// Every play must happen with the music ducked; a play after a restore
	// means announcements are competing with full-volume music.
	depth := 0
	for i, c := range calls {
		switch c {
		case "duck":
			depth++
		case "restore":
			depth--
		default:
			if depth == 0 {
				t.Fatalf("call %d (%s) played with music restored: %v", i, c, calls)
			}
		}
	}

	plays := 0
	for _, c := range calls {
		if c == "play:gong.mp3" {
			plays++
		}
	}
	if plays != 4 {
		t.Errorf("played %d items, want 4: %v", plays, calls)
	}
	if calls[len(calls)-1] != "restore" {
		t.Errorf("music not restored at end: %v", calls)
	}
}

func TestPlaybackFailuresDegrade(t *testing.T) {
	device := &fakeDevice{playErr: errors.New("device stalled")}
	synth := &fakeSynth{err: errors.New("engine down")}
	sink := &recordSink{}
	p := New(testCfg(), device, synth, nil, sink)

	p.Enqueue(speechItem("doomed"), speechItem("also doomed"))
	waitIdle(t, p)
	p.Shutdown()

	// Both items completed despite every step failing, and both were logged.
	if len(sink.entries) != 2 {
		t.Errorf("play log got %d entries, want 2", len(sink.entries))
	}
}

func TestAssetPlaybackWithSpeechFallback(t *testing.T) {
	// Asset server knows only the boarding announcement for gate a3.
	known := "/audio/ju150_boarding_a3.mp3"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == known {
			w.Write([]byte("mp3 bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := request.New(nil, time.Second, 0, nil)
	assets := NewAssetStore(client, srv.URL+"/audio", t.TempDir())

	device := &fakeDevice{}
	synth := &fakeSynth{}
	sink := &recordSink{}
	p := New(testCfg(), device, synth, assets, sink)

	flight := &model.Flight{
		AirlineIATA: "JU", AirlineICAO: "ASL", Ident: "150",
		CityCode: "VIE", Gate: "A3", ScheduledTime: "14:30",
	}
	p.Enqueue(model.NewAnnouncement(model.KindBoarding, "boarding text", flight))
	p.Enqueue(model.NewAnnouncement(model.KindDelay, "delay text", flight))
	waitIdle(t, p)
	p.Shutdown()

	// Boarding played from the asset, delay fell back to speech.
	if len(synth.spoken) != 1 || synth.spoken[0] != "delay text" {
		t.Errorf("spoken = %v, want only the delay text", synth.spoken)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.entries) != 2 {
		t.Fatalf("play log got %d entries, want 2", len(sink.entries))
	}
	filenames := map[string]bool{}
	for _, e := range sink.entries {
		filenames[e.Filename] = true
	}
	if !filenames["ju150_boarding_a3.mp3"] || !filenames["tts"] {
		t.Errorf("logged filenames = %v, want asset name and tts", filenames)
	}
}

func TestAssetNameDeterministic(t *testing.T) {
	f := &model.Flight{AirlineIATA: "JU", Ident: "150"}
	if got := AssetName(f, model.KindBoarding, "A3"); got != "ju150_boarding_a3.mp3" {
		t.Errorf("AssetName = %q", got)
	}
	if got := AssetName(f, model.KindDelay, ""); got != "ju150_delay.mp3" {
		t.Errorf("gate-less AssetName = %q", got)
	}
}

func TestEnqueueAfterShutdownDropped(t *testing.T) {
	p := New(testCfg(), &fakeDevice{}, &fakeSynth{}, nil, nil)
	p.Shutdown()
	p.Enqueue(speechItem("late"))
	if p.Pending() != 0 {
		t.Error("item accepted after shutdown")
	}
}
