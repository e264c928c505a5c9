package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeJobFiresOnThreshold(t *testing.T) {
	var runs int32
	j := NewTimeJob("test", 50*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	if !j.ShouldFire() {
		t.Fatal("first tick should fire immediately")
	}
	j.Run(context.Background())

	if j.ShouldFire() {
		t.Error("job ready again right after running")
	}

	time.Sleep(60 * time.Millisecond)
	if !j.ShouldFire() {
		t.Error("job not ready after threshold elapsed")
	}
	j.Run(context.Background())

	if got := atomic.LoadInt32(&runs); got != 2 {
		t.Errorf("ran %d times, want 2", got)
	}
}

func TestBaseJobPreventsReentry(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var runs int32

	j := NewTimeJob("slow", time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
		close(started)
		<-release
	})

	go j.Run(context.Background())
	<-started

	if j.ShouldFire() {
		t.Error("running job reported ready to fire")
	}
	j.Run(context.Background()) // TryLock fails, no second execution
	close(release)

	time.Sleep(10 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("ran %d times, want 1", got)
	}
}

func TestSchedulerRunsJobsUntilCancelled(t *testing.T) {
	var runs int32
	s := NewScheduler(10 * time.Millisecond)
	s.AddJob(NewTimeJob("counter", 15*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	if got := atomic.LoadInt32(&runs); got < 2 {
		t.Errorf("job ran %d times in 100ms, want at least 2", got)
	}
}
