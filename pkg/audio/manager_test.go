package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"razglasgo/pkg/config"
)

func TestVolumeToPower(t *testing.T) {
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.25, -2},
		{0.0, -10},
		{0.01, -10},
	}
	for _, tt := range tests {
		if got := volumeToPower(tt.vol); got != tt.want {
			t.Errorf("volumeToPower(%v) = %v, want %v", tt.vol, got, tt.want)
		}
	}
}

func TestPlayMissingFile(t *testing.T) {
	m := New(config.DefaultConfig().Audio)
	if err := m.Play(context.Background(), filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("Play with missing file returned nil error")
	}
}

func TestPlayUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.mp3")
	if err := os.WriteFile(path, []byte("not audio data"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := New(config.DefaultConfig().Audio)
	if err := m.Play(context.Background(), path); err == nil {
		t.Error("Play with undecodable file returned nil error")
	}
}

func TestStartMusicNoPathIsNoop(t *testing.T) {
	cfg := config.DefaultConfig().Audio
	cfg.MusicPath = ""
	m := New(cfg)
	if err := m.StartMusic(); err != nil {
		t.Errorf("StartMusic with no path: %v", err)
	}
	m.Duck()
	m.Restore()
	m.Shutdown()
}
