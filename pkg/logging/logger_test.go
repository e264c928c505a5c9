package logging

import (
	"os"
	"path/filepath"
	"testing"

	"razglasgo/pkg/config"
)

func TestInitCreatesLogFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: filepath.Join(dir, "server.log"), Level: "INFO"},
		Requests: config.LogSettings{Path: filepath.Join(dir, "requests.log"), Level: "INFO"},
	}

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer cleanup()

	for _, p := range []string{cfg.Server.Path, cfg.Requests.Path} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected log file %s: %v", p, err)
		}
	}

	if RequestLogger == nil {
		t.Error("RequestLogger should be set after Init")
	}
}

func TestRotatePaths(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "server.log")
	if err := os.WriteFile(p, []byte("previous run"), 0o644); err != nil {
		t.Fatal(err)
	}

	rotatePaths(p)

	if _, err := os.Stat(p + ".old"); err != nil {
		t.Errorf("expected rotated file: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("expected original file to be moved, got err=%v", err)
	}
}
