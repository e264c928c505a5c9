// Package llm defines the AI text provider interface used by text resolution.
package llm

import (
	"context"

	"razglasgo/pkg/model"
)

// Request carries the structured context for one announcement generation.
type Request struct {
	Flight       model.Flight `json:"flight"`
	Kind         model.Kind   `json:"announcementType"`
	DelayMinutes int          `json:"delayMinutes"`
	TimeOfDay    string       `json:"timeOfDay"` // morning, afternoon, evening
	PeakHour     bool         `json:"peakHour"`
	Sentiment    float64      `json:"sentiment"`
}

// Response is the provider's answer. ShouldAnnounce=false means the provider
// itself declined to announce; callers fall through to template/default text.
type Response struct {
	Text              string `json:"text"`
	Tone              string `json:"tone"`
	Priority          int    `json:"priority"`
	ShouldAnnounce    bool   `json:"shouldAnnounce"`
	EstimatedDuration int    `json:"estimatedDuration"`
}

// Provider defines the interface for AI announcement-text services.
type Provider interface {
	// GenerateAnnouncement produces announcement text for the request.
	GenerateAnnouncement(ctx context.Context, req *Request) (*Response, error)

	// Name identifies the provider in logs and stats.
	Name() string

	// HealthCheck verifies that the provider is configured and reachable.
	HealthCheck(ctx context.Context) error
}
