package core

import (
	"context"
	"log/slog"
	"time"

	"razglasgo/pkg/cancelled"
	"razglasgo/pkg/emergency"
	"razglasgo/pkg/engine"
	"razglasgo/pkg/feed"
	"razglasgo/pkg/model"
)

// FetchCycleJob drives one full decision cycle: fetch the flight board, run
// the eligibility engine, sort the batch by priority and hand it to the
// playback pipeline.
type FetchCycleJob struct {
	BaseJob
	feed     *feed.Adapter
	engine   *engine.Engine
	pipeline cancelled.Enqueuer
	interval time.Duration
	lastTime time.Time
	firstRun bool

	cycles int64
}

// NewFetchCycleJob creates the fetch cycle job.
func NewFetchCycleJob(adapter *feed.Adapter, eng *engine.Engine, pipeline cancelled.Enqueuer, interval time.Duration) *FetchCycleJob {
	return &FetchCycleJob{
		BaseJob:  NewBaseJob("FetchCycle"),
		feed:     adapter,
		engine:   eng,
		pipeline: pipeline,
		interval: interval,
		firstRun: true,
	}
}

func (j *FetchCycleJob) ShouldFire() bool {
	if j.IsRunning() {
		return false
	}
	if j.firstRun {
		return true
	}
	return time.Since(j.lastTime) >= j.interval
}

func (j *FetchCycleJob) Run(ctx context.Context) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastTime = time.Now()
	j.firstRun = false
	j.cycles++

	schedule, err := j.feed.Fetch(ctx)
	if err != nil {
		// No data this cycle; the next poll retries.
		slog.Warn("FetchCycle: feed unavailable, skipping cycle", "error", err)
		return
	}

	batch := j.engine.Evaluate(ctx, schedule)
	if len(batch) == 0 {
		return
	}

	model.SortByPriority(batch)
	slog.Info("FetchCycle: announcements due", "count", len(batch))
	j.pipeline.Enqueue(batch...)
}

// Cycles returns how many fetch cycles have run.
func (j *FetchCycleJob) Cycles() int64 {
	return j.cycles
}

// NewEmergencyTickJob emits due emergency announcements into the pipeline.
func NewEmergencyTickJob(registry *emergency.Registry, pipeline cancelled.Enqueuer, interval time.Duration) *TimeJob {
	return NewTimeJob("EmergencyTick", interval, func(ctx context.Context) {
		batch := registry.Tick()
		if len(batch) > 0 {
			slog.Info("EmergencyTick: emissions due", "count", len(batch))
			pipeline.Enqueue(batch...)
		}
	})
}

// NewSafetyJob enqueues the periodic safety announcement.
func NewSafetyJob(pipeline cancelled.Enqueuer, text string, interval time.Duration) *TimeJob {
	return NewTimeJob("Safety", interval, func(ctx context.Context) {
		pipeline.Enqueue(model.NewAnnouncement(model.KindSafety, text, nil))
	})
}

// NewCleanupJob runs the hourly sweep over long-lived tracking state.
func NewCleanupJob(interval time.Duration, sweep func(ctx context.Context)) *TimeJob {
	return NewTimeJob("Cleanup", interval, sweep)
}
