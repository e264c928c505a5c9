// Package core runs the cooperative scheduler: one heartbeat ticker driving
// named periodic jobs (fetch cycle, emergency tick, safety announcement,
// cleanup). Jobs are re-entry safe via an atomic running flag.
package core

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Job defines a scheduled task.
type Job interface {
	Name() string
	ShouldFire() bool
	Run(ctx context.Context)
}

// BaseJob provides atomic running state to prevent re-entry.
type BaseJob struct {
	name    string
	running int32 // 1 if running, 0 otherwise
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock attempts to set running to 1. Returns true if successful.
func (b *BaseJob) TryLock() bool {
	return atomic.CompareAndSwapInt32(&b.running, 0, 1)
}

func (b *BaseJob) Unlock() {
	atomic.StoreInt32(&b.running, 0)
}

// IsRunning reports whether the job is currently executing.
func (b *BaseJob) IsRunning() bool {
	return atomic.LoadInt32(&b.running) == 1
}

// TimeJob fires its action whenever the threshold has elapsed since the last
// run. The first tick fires immediately.
type TimeJob struct {
	BaseJob
	lastTime  time.Time
	threshold time.Duration
	action    func(context.Context)
	firstRun  bool
}

func NewTimeJob(name string, threshold time.Duration, action func(context.Context)) *TimeJob {
	return &TimeJob{
		BaseJob:   NewBaseJob(name),
		threshold: threshold,
		action:    action,
		firstRun:  true,
	}
}

func (j *TimeJob) ShouldFire() bool {
	if j.IsRunning() {
		return false
	}
	if j.firstRun {
		return true
	}
	return time.Since(j.lastTime) >= j.threshold
}

func (j *TimeJob) Run(ctx context.Context) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastTime = time.Now()
	j.firstRun = false

	j.action(ctx)
}

// Scheduler manages the central heartbeat and scheduled jobs.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
}

// NewScheduler creates a Scheduler ticking at the given interval.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{interval: interval}
}

// AddJob registers a job.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start runs the main loop. It blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Scheduler started", "interval", s.interval, "jobs", len(s.jobs))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	for _, job := range s.jobs {
		if job.ShouldFire() {
			// Fire and forget; BaseJob guards against re-entry.
			go job.Run(ctx)
		}
	}
}
