// Package templates fetches airline announcement templates from the template
// store. A 404 means "no template, use the built-in default".
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"razglasgo/pkg/cache"
	"razglasgo/pkg/model"
	"razglasgo/pkg/request"
	"razglasgo/pkg/tracker"
)

// Store is the template store client with an in-memory TTL cache.
type Store struct {
	client   *request.Client
	baseURL  string
	language string
	cache    *cache.TTLCache[string]
	tracker  *tracker.Tracker
}

// New creates a Store.
func New(client *request.Client, baseURL, language string, ttl time.Duration, t *tracker.Tracker) *Store {
	return &Store{
		client:   client,
		baseURL:  baseURL,
		language: language,
		cache:    cache.New[string](ttl),
		tracker:  t,
	}
}

// Fetch returns the template for (airline ICAO, kind) or ok=false when the
// store has none. Transient store failures also read as "no template" so the
// caller falls through to defaults.
func (s *Store) Fetch(ctx context.Context, airlineICAO string, kind model.Kind) (string, bool) {
	key := airlineICAO + "|" + string(kind) + "|" + s.language

	if tmpl, hit := s.cache.Get(key); hit {
		if s.tracker != nil {
			s.tracker.TrackCacheHit("templates")
		}
		return tmpl, tmpl != ""
	}
	if s.tracker != nil {
		s.tracker.TrackCacheMiss("templates")
	}

	u := fmt.Sprintf("%s?airline=%s&type=%s&language=%s",
		s.baseURL, url.QueryEscape(airlineICAO), url.QueryEscape(string(kind)), url.QueryEscape(s.language))

	body, httpStatus, err := s.client.Get(ctx, u)
	if err != nil {
		if httpStatus == http.StatusNotFound {
			// Negative result is cacheable too.
			s.cache.Set(key, "")
			return "", false
		}
		slog.Warn("Templates: store unavailable, falling back to defaults", "airline", airlineICAO, "kind", kind, "error", err)
		return "", false
	}

	var resp struct {
		Template string `json:"template"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Template == "" {
		slog.Warn("Templates: malformed response", "airline", airlineICAO, "kind", kind, "error", err)
		return "", false
	}

	s.cache.Set(key, resp.Template)
	return resp.Template, true
}

// HealthCheck verifies the template store answers at all. A 404 is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	_, httpStatus, err := s.client.Get(ctx, s.baseURL)
	if err != nil && httpStatus != http.StatusNotFound && httpStatus != http.StatusBadRequest {
		return err
	}
	return nil
}
