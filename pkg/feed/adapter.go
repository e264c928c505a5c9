// Package feed fetches the normalized flight board from the upstream source.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"razglasgo/pkg/model"
	"razglasgo/pkg/request"
)

// Adapter periodically pulls the current departures and arrivals.
type Adapter struct {
	client *request.Client
	url    string
}

// New creates an Adapter.
func New(client *request.Client, url string) *Adapter {
	return &Adapter{client: client, url: url}
}

// Fetch returns the current schedule snapshot. Any failure (non-200,
// malformed JSON) means "no data this cycle": the caller logs and waits for
// the next poll, nothing crashes.
func (a *Adapter) Fetch(ctx context.Context) (*model.Schedule, error) {
	body, status, err := a.client.Get(ctx, a.url)
	if err != nil {
		return nil, fmt.Errorf("feed fetch failed (status %d): %w", status, err)
	}

	var sched model.Schedule
	if err := json.Unmarshal(body, &sched); err != nil {
		return nil, fmt.Errorf("feed returned malformed JSON: %w", err)
	}

	return &sched, nil
}

// HealthCheck verifies the feed endpoint answers.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.Fetch(ctx)
	return err
}
