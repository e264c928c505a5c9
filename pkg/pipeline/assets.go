package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"razglasgo/pkg/model"
	"razglasgo/pkg/request"
)

// AssetStore resolves pre-recorded announcement audio. Asset names are
// deterministic from flight, kind and gate; existence is probed with a HEAD
// request before the file is downloaded for playback.
type AssetStore struct {
	client   *request.Client
	baseURL  string
	cacheDir string
}

// NewAssetStore creates an AssetStore downloading into cacheDir.
func NewAssetStore(client *request.Client, baseURL, cacheDir string) *AssetStore {
	return &AssetStore{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		cacheDir: cacheDir,
	}
}

// AssetName builds the deterministic asset filename for a flight, kind and
// gate, e.g. "ju150_boarding_a3.mp3".
func AssetName(f *model.Flight, kind model.Kind, gate string) string {
	name := strings.ToLower(f.AirlineIATA+f.Ident) + "_" + string(kind)
	if gate != "" {
		name += "_" + strings.ToLower(gate)
	}
	return name + ".mp3"
}

// Resolve probes for the asset and downloads it when present. Returns the
// local path to play, the asset name for the play log, and whether the asset
// exists. Cached downloads are reused.
func (s *AssetStore) Resolve(ctx context.Context, f *model.Flight, kind model.Kind, gate string) (path, name string, ok bool) {
	name = AssetName(f, kind, gate)
	url := s.baseURL + "/" + name

	local := filepath.Join(s.cacheDir, name)
	if _, err := os.Stat(local); err == nil {
		return local, name, true
	}

	if !s.client.Head(ctx, url) {
		return "", "", false
	}

	body, status, err := s.client.Get(ctx, url)
	if err != nil || status != 200 {
		slog.Warn("Assets: download failed after successful probe", "url", url, "status", status, "error", err)
		return "", "", false
	}

	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		slog.Warn("Assets: cannot create cache dir", "dir", s.cacheDir, "error", err)
		return "", "", false
	}
	tmp := local + ".partial"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		slog.Warn("Assets: cannot write asset", "path", local, "error", err)
		return "", "", false
	}
	if err := os.Rename(tmp, local); err != nil {
		slog.Warn("Assets: cannot finalize asset", "path", local, "error", err)
		return "", "", false
	}
	return local, name, true
}

// HealthCheck verifies the asset base URL answers at all. Any HTTP status
// counts as healthy; only transport failures are reported.
func (s *AssetStore) HealthCheck(ctx context.Context) error {
	if _, _, err := s.client.Get(ctx, s.baseURL+"/"); err != nil {
		return fmt.Errorf("asset store unreachable: %w", err)
	}
	return nil
}
