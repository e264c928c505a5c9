package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Player plays a local audio file to completion, bounded by ctx.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Speaker turns announcement text into audible speech: synthesize to a
// scratch file, play it, remove it. A FatalError from the provider latches
// the Speaker shut so a broken credential set is not hammered once per
// announcement.
type Speaker struct {
	provider Provider
	player   Player
	voice    string
	workDir  string

	mu    sync.Mutex
	fatal error
}

// NewSpeaker creates a Speaker. workDir is created on first use.
func NewSpeaker(provider Provider, player Player, voice, workDir string) *Speaker {
	return &Speaker{
		provider: provider,
		player:   player,
		voice:    voice,
		workDir:  workDir,
	}
}

// Speak synthesizes and plays the text. The scratch file is removed
// afterwards regardless of playback outcome.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty announcement text")
	}
	s.mu.Lock()
	fatal := s.fatal
	s.mu.Unlock()
	if fatal != nil {
		return fmt.Errorf("tts disabled after fatal error: %w", fatal)
	}
	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return fmt.Errorf("failed to create tts work dir: %w", err)
	}

	base := filepath.Join(s.workDir, "announcement-"+uuid.NewString()[:8])
	format, err := s.provider.Synthesize(ctx, text, s.voice, base)
	if err != nil {
		if IsFatalError(err) {
			s.mu.Lock()
			s.fatal = err
			s.mu.Unlock()
			slog.Error("TTS: provider returned a fatal error, disabling speech", "error", err)
		}
		return fmt.Errorf("synthesis failed: %w", err)
	}

	path := base
	if !strings.HasSuffix(strings.ToLower(path), "."+format) {
		path += "." + format
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("TTS: failed to remove scratch file", "path", path, "error", err)
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("synthesized file missing: %w", err)
	}
	if info.Size() < MinAudioSize {
		return fmt.Errorf("synthesized file suspiciously small (%d bytes)", info.Size())
	}

	return s.player.Play(ctx, path)
}
