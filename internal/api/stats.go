package api

import (
	"net/http"

	"razglasgo/pkg/cancelled"
	"razglasgo/pkg/emergency"
	"razglasgo/pkg/engine"
	"razglasgo/pkg/pipeline"
	"razglasgo/pkg/tracker"
)

// StatsHandler reports provider counters and tracking table sizes.
type StatsHandler struct {
	tracker   *tracker.Tracker
	engine    *engine.Engine
	pipeline  *pipeline.Pipeline
	cancelled *cancelled.Registry
	emergency *emergency.Registry
	aiChain   []string
}

// NewStatsHandler creates the handler. aiChain names the configured AI
// failover order for display.
func NewStatsHandler(t *tracker.Tracker, eng *engine.Engine, p *pipeline.Pipeline, c *cancelled.Registry, e *emergency.Registry, aiChain []string) *StatsHandler {
	return &StatsHandler{
		tracker:   t,
		engine:    eng,
		pipeline:  p,
		cancelled: c,
		emergency: e,
		aiChain:   aiChain,
	}
}

type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	Fallbacks   int64 `json:"fallbacks"`
	HitRate     int64 `json:"hit_rate"`
}

type TrackingStats struct {
	OffsetEntries     int `json:"offset_entries"`
	TransitionEntries int `json:"transition_entries"`
	AutoOnTime        int `json:"auto_on_time"`
	CancelledFlights  int `json:"cancelled_flights"`
	ActiveEmergencies int `json:"active_emergencies"`
}

type PipelineStats struct {
	Pending    int  `json:"pending"`
	Processing bool `json:"processing"`
}

type StatsResponse struct {
	Tracking  TrackingStats               `json:"tracking"`
	Pipeline  PipelineStats               `json:"pipeline"`
	Providers map[string]ProviderStatsDTO `json:"providers"`
	AIChain   []string                    `json:"ai_chain"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Providers: make(map[string]ProviderStatsDTO),
		AIChain:   h.aiChain,
	}

	if h.engine != nil {
		offsets, tracks, auto := h.engine.Stats()
		resp.Tracking.OffsetEntries = offsets
		resp.Tracking.TransitionEntries = tracks
		resp.Tracking.AutoOnTime = auto
	}
	if h.cancelled != nil {
		resp.Tracking.CancelledFlights = h.cancelled.Len()
	}
	if h.emergency != nil {
		resp.Tracking.ActiveEmergencies = len(h.emergency.GetActive())
	}
	if h.pipeline != nil {
		resp.Pipeline.Pending = h.pipeline.Pending()
		resp.Pipeline.Processing = h.pipeline.IsProcessing()
	}

	if h.tracker != nil {
		for provider, stats := range h.tracker.Snapshot() {
			totalCache := stats.CacheHits + stats.CacheMisses
			hitRate := int64(0)
			if totalCache > 0 {
				hitRate = (stats.CacheHits * 100) / totalCache
			}
			resp.Providers[provider] = ProviderStatsDTO{
				CacheHits:   stats.CacheHits,
				CacheMisses: stats.CacheMisses,
				APISuccess:  stats.APISuccess,
				APIFailures: stats.APIFailures,
				Fallbacks:   stats.Fallbacks,
				HitRate:     hitRate,
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
