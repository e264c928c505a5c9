// Package pipeline serializes announcement playback: one item at a time,
// background music ducked around each drain, gong before content, asset
// playback with a speech fallback.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"razglasgo/pkg/config"
	"razglasgo/pkg/model"
	"razglasgo/pkg/playlog"
)

// Device is the audio capability surface the pipeline drives. Production
// binds to the beep-backed audio.Manager; tests record calls.
type Device interface {
	Play(ctx context.Context, path string) error
	Duck()
	Restore()
}

// Synthesizer speaks announcement text when no pre-recorded asset exists.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Pipeline is the single-lane playback queue. Enqueue never blocks; a drain
// goroutine empties the queue and exits. The processing flag guarantees at
// most one drain, and therefore at most one playing item, system-wide.
type Pipeline struct {
	cfg    config.AudioConfig
	device Device
	synth  Synthesizer
	assets *AssetStore // nil disables asset lookup
	log    playlog.Sink

	mu         sync.Mutex
	queue      []model.Announcement
	processing bool
	closed     bool

	wg sync.WaitGroup
}

// New creates a Pipeline.
func New(cfg config.AudioConfig, device Device, synth Synthesizer, assets *AssetStore, log playlog.Sink) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		device: device,
		synth:  synth,
		assets: assets,
		log:    log,
	}
}

// Enqueue adds items to the queue and starts a drain if none is running.
// Items enqueued mid-drain are picked up by the running drain; a second
// drain never starts.
func (p *Pipeline) Enqueue(items ...model.Announcement) {
	if len(items) == 0 {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		slog.Warn("Pipeline: enqueue after shutdown dropped", "items", len(items))
		return
	}
	p.queue = append(p.queue, items...)
	start := !p.processing
	if start {
		p.processing = true
		p.wg.Add(1)
	}
	p.mu.Unlock()

	if start {
		go p.drain()
	}
}

// Pending returns the number of queued, not yet played items.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// IsProcessing reports whether a drain is currently running.
func (p *Pipeline) IsProcessing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processing
}

// Shutdown stops accepting items and waits for the running drain to finish.
func (p *Pipeline) Shutdown() {
	p.mu.Lock()
	p.closed = true
	p.queue = nil
	p.mu.Unlock()
	p.wg.Wait()
}

// drain plays queued items until the queue empties. Music is ducked before
// the first item and restored after the last. The processing flag stays set
// until after the restore, so an enqueue racing the restore lands in this
// drain's queue instead of starting a second drain whose duck the late
// restore would undo.
func (p *Pipeline) drain() {
	defer p.wg.Done()

	p.device.Duck()

	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.mu.Unlock()
			p.device.Restore()

			p.mu.Lock()
			if len(p.queue) == 0 {
				p.processing = false
				p.mu.Unlock()
				return
			}
			// Items arrived while the music was fading back up.
			p.mu.Unlock()
			p.device.Duck()
			continue
		}
		item := p.queue[0]
		p.queue = p.queue[1:]
		more := len(p.queue) > 0
		p.mu.Unlock()

		p.playItem(item)

		if more {
			time.Sleep(time.Duration(p.cfg.InterItemDelay))
		}
	}
}

// playItem runs one item through the gong-then-content state machine. Every
// step is individually bounded; failures degrade to the next strategy and
// never stop the drain.
func (p *Pipeline) playItem(item model.Announcement) {
	p.playGong()

	filename := p.playContent(item)

	if p.log != nil {
		entry := playlog.Entry{
			Kind:     string(item.Kind),
			Filename: filename,
		}
		if item.Flight != nil {
			entry.AirlineICAO = item.Flight.AirlineICAO
			entry.FlightNumber = item.Flight.Ident
			entry.DestinationCode = item.Flight.CityCode
			entry.Gate = item.Flight.Gate
		}
		p.log.Record(entry)
	}
}

func (p *Pipeline) playGong() {
	if p.cfg.GongPath == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.GongTimeout))
	defer cancel()
	if err := p.device.Play(ctx, p.cfg.GongPath); err != nil {
		slog.Warn("Pipeline: gong playback failed, continuing", "error", err)
	}
}

// playContent plays the item's pre-recorded assets when they resolve, one
// per gate in sequence, and falls back to speech otherwise. Returns the
// filename reported to the play log.
func (p *Pipeline) playContent(item model.Announcement) string {
	if item.Flight != nil && p.assets != nil {
		if paths, names, ok := p.resolveAssets(item); ok {
			for _, path := range paths {
				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.ContentTimeout))
				err := p.device.Play(ctx, path)
				cancel()
				if err != nil {
					slog.Warn("Pipeline: asset playback failed, continuing", "path", path, "error", err)
				}
			}
			return names[0]
		}
	}

	p.speak(item.Text)
	return "tts"
}

// resolveAssets probes one asset per gate. A gate-less flight probes a
// single path. Only a fully resolved set plays as assets; any miss sends
// the whole item to speech so passengers never hear a partial announcement.
func (p *Pipeline) resolveAssets(item model.Announcement) (paths, names []string, ok bool) {
	gates := item.Flight.Gates()
	if len(gates) == 0 {
		gates = []string{""}
	}

	for _, gate := range gates {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.ContentTimeout))
		path, name, found := p.assets.Resolve(ctx, item.Flight, item.Kind, gate)
		cancel()
		if !found {
			return nil, nil, false
		}
		paths = append(paths, path)
		names = append(names, name)
	}
	return paths, names, true
}

func (p *Pipeline) speak(text string) {
	if p.synth == nil || text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.ContentTimeout))
	defer cancel()
	if err := p.synth.Speak(ctx, text); err != nil {
		slog.Warn("Pipeline: speech synthesis failed, item skipped", "error", err)
	}
}
