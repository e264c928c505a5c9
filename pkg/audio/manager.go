// Package audio provides playback for announcements and background music
// using gopxl/beep. The Manager is a process-wide singleton owned by the
// playback pipeline; no other component touches the speaker.
package audio

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"razglasgo/pkg/config"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const targetSampleRate = beep.SampleRate(48000)

// musicVolume is the resting level of the background music bed.
const musicVolume = 0.6

// Manager implements announcement playback plus background-music ducking.
type Manager struct {
	cfg config.AudioConfig

	mu                 sync.Mutex
	speakerInitialized bool

	musicCtrl   *beep.Ctrl
	musicVolume *effects.Volume
	musicFile   beep.StreamSeekCloser
	ducked      bool

	announceCtrl *beep.Ctrl
}

// New creates a Manager. The speaker is initialized lazily on first play so
// construction never touches the audio device.
func New(cfg config.AudioConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Play plays one audio file to completion, bounded by ctx. On cancellation
// or deadline the stream is stopped and ctx's error returned; decode errors
// are returned without touching the speaker.
func (m *Manager) Play(ctx context.Context, path string) error {
	streamer, format, err := decodeMedia(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if err := m.ensureSpeakerLocked(); err != nil {
		m.mu.Unlock()
		streamer.Close()
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, targetSampleRate, streamer)
	ctrl := &beep.Ctrl{Streamer: resampled}
	m.announceCtrl = ctrl

	done := make(chan struct{})
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		close(done)
	})))
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.announceCtrl == ctrl {
			m.announceCtrl = nil
		}
		m.mu.Unlock()
		streamer.Close()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
		slog.Warn("Audio: playback cut short", "path", path, "error", ctx.Err())
		return ctx.Err()
	}
}

// StartMusic starts the looping background music bed at resting volume.
// A no-op when no music path is configured.
func (m *Manager) StartMusic() error {
	if m.cfg.MusicPath == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.musicCtrl != nil {
		return nil
	}
	if err := m.ensureSpeakerLocked(); err != nil {
		return err
	}

	streamer, format, err := decodeMedia(m.cfg.MusicPath)
	if err != nil {
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, targetSampleRate, streamer)
	loop := beep.Loop(-1, seekWrapper{resampled, streamer})
	vol := &effects.Volume{
		Streamer: loop,
		Base:     2,
		Volume:   volumeToPower(musicVolume),
	}
	ctrl := &beep.Ctrl{Streamer: vol}

	m.musicFile = streamer
	m.musicVolume = vol
	m.musicCtrl = ctrl
	speaker.Play(ctrl)
	slog.Info("Audio: background music started", "path", m.cfg.MusicPath)
	return nil
}

// Duck fades the background music down to silence in bounded volume steps
// and pauses it. Idempotent; a no-op when no music is running.
func (m *Manager) Duck() {
	m.fadeMusic(musicVolume, 0, time.Duration(m.cfg.FadeStep), true)
}

// Restore unpauses the background music and fades it back up, slower than
// the duck so announcements end cleanly.
func (m *Manager) Restore() {
	m.fadeMusic(0, musicVolume, 2*time.Duration(m.cfg.FadeStep), false)
}

func (m *Manager) fadeMusic(from, to float64, step time.Duration, pauseAfter bool) {
	m.mu.Lock()
	ctrl, vol := m.musicCtrl, m.musicVolume
	if ctrl == nil || m.ducked == pauseAfter {
		m.mu.Unlock()
		return
	}
	m.ducked = pauseAfter
	m.mu.Unlock()

	if step <= 0 {
		step = 50 * time.Millisecond
	}

	if !pauseAfter {
		speaker.Lock()
		ctrl.Paused = false
		speaker.Unlock()
	}

	const steps = 10
	for i := 1; i <= steps; i++ {
		level := from + (to-from)*float64(i)/steps
		speaker.Lock()
		vol.Volume = volumeToPower(level)
		vol.Silent = level <= 0.01
		speaker.Unlock()
		time.Sleep(step)
	}

	if pauseAfter {
		speaker.Lock()
		ctrl.Paused = true
		speaker.Unlock()
	}
}

// Shutdown stops all playback and releases the music stream.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.speakerInitialized {
		speaker.Clear()
	}
	if m.musicFile != nil {
		m.musicFile.Close()
		m.musicFile = nil
	}
	m.musicCtrl = nil
	m.musicVolume = nil
	m.announceCtrl = nil
}

func (m *Manager) ensureSpeakerLocked() error {
	if m.speakerInitialized {
		return nil
	}
	if err := speaker.Init(targetSampleRate, targetSampleRate.N(time.Second/10)); err != nil {
		slog.Error("Audio: failed to initialize speaker", "error", err)
		return err
	}
	m.speakerInitialized = true
	return nil
}

// seekWrapper adapts a resampled stream back to the StreamSeeker interface
// beep.Loop requires, delegating seeks to the underlying file stream.
type seekWrapper struct {
	beep.Streamer
	seeker beep.StreamSeeker
}

func (s seekWrapper) Len() int         { return s.seeker.Len() }
func (s seekWrapper) Position() int    { return s.seeker.Position() }
func (s seekWrapper) Seek(p int) error { return s.seeker.Seek(p) }

// decodeMedia opens and decodes an audio file, trying MP3 first and WAV
// second.
func decodeMedia(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("Audio: failed to open file", "path", path, "error", err)
		return nil, beep.Format{}, err
	}

	streamer, format, err := mp3.Decode(f)
	if err == nil {
		return streamer, format, nil
	}

	// MP3 decode failure leaves the reader position uncertain, reopen.
	f.Close()
	f, err = os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	streamer, format, err = wav.Decode(f)
	if err != nil {
		f.Close()
		slog.Error("Audio: failed to decode file", "path", path, "error", err)
		return nil, beep.Format{}, errors.New("unsupported audio format: " + path)
	}

	return streamer, format, nil
}
