// Package engine decides, per flight and announcement kind, whether an
// announcement is due on the current fetch cycle. It owns all per-flight-key
// tracking state: offset sets, transition counters and the auto on-time
// repeater.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"razglasgo/pkg/config"
	"razglasgo/pkg/model"
	"razglasgo/pkg/status"
	"razglasgo/pkg/texts"
)

// CancelledSink is the handoff surface for flights observed in Cancelled
// state. Cancelled flights never go through the generic kind checks.
type CancelledSink interface {
	Observe(ctx context.Context, f *model.Flight)
	Remove(flightKey string)
	Contains(flightKey string) bool
}

// offsetEntry remembers which minute offsets already fired for a
// (flightKey, kind) pair. Offsets fire once each, ever.
type offsetEntry struct {
	fired    map[int]bool
	lastSeen time.Time
}

// trackEntry is the per-(flightKey, kind) memory for transition-driven kinds.
type trackEntry struct {
	repeatCount  int
	lastFiredAt  time.Time
	firstEntered time.Time
	lastSeen     time.Time
}

// autoEntry is one registration in the auto on-time repeater, a coarser
// schedule that runs alongside the on-time kind until the flight lands or
// goes stale.
type autoEntry struct {
	flight      model.Flight
	lastFiredAt time.Time
	lastSeenAt  time.Time
}

// Engine evaluates eligibility rules over fetch-cycle snapshots. One instance
// per process; all tracking maps are private to it.
type Engine struct {
	cfg       config.EngineConfig
	resolver  *texts.Resolver
	cancelled CancelledSink // nil disables the cancelled handoff

	mu         sync.Mutex
	offsets    map[string]*offsetEntry
	tracks     map[string]*trackEntry
	autoOnTime map[string]*autoEntry

	now func() time.Time
}

// New creates an Engine. The config must have passed config.Validate.
func New(cfg config.EngineConfig, resolver *texts.Resolver, cancelled CancelledSink) *Engine {
	return &Engine{
		cfg:        cfg,
		resolver:   resolver,
		cancelled:  cancelled,
		offsets:    make(map[string]*offsetEntry),
		tracks:     make(map[string]*trackEntry),
		autoOnTime: make(map[string]*autoEntry),
		now:        time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (e *Engine) SetNowFunc(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Evaluate runs one fetch cycle over the schedule snapshot and returns the
// announcements due right now, text already resolved. The caller merges the
// batch with emergency and cancelled output and sorts by priority before
// enqueueing.
func (e *Engine) Evaluate(ctx context.Context, schedule *model.Schedule) []model.Announcement {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	seen := make(map[string]bool)
	var out []model.Announcement

	for _, f := range schedule.All() {
		flight := f
		out = append(out, e.evaluateFlight(ctx, &flight, seen, now)...)
	}

	out = append(out, e.sweepAutoOnTime(now)...)
	return out
}

func (e *Engine) evaluateFlight(ctx context.Context, f *model.Flight, seen map[string]bool, now time.Time) []model.Announcement {
	state, ok := status.Normalize(f.Status)
	if !ok {
		slog.Warn("Engine: unknown flight status, skipping", "flight", f.Ident, "status", f.Status)
		return nil
	}
	key := f.Key()

	// Transition entries clear the instant the flight leaves the state, so a
	// late cycle never produces a trailing fire and a re-entry starts fresh.
	// This runs before the cancelled handoff: a cancelled flight has left
	// those states too.
	if state != model.StateEarlier {
		delete(e.tracks, key+"|"+string(model.KindEarlier))
	}
	if state != model.StateDelayed {
		delete(e.tracks, key+"|"+string(model.KindDelay))
	}
	if state != model.StateOnTime {
		delete(e.tracks, key+"|"+string(model.KindOnTime))
	}

	// Cancelled flights belong to the registry alone. No generic kinds fire
	// for them, ever, and leaving Cancelled retracts the registry entry.
	if state == model.StateCancelled {
		if e.cancelled != nil {
			e.cancelled.Observe(ctx, f)
		}
		return nil
	}
	if e.cancelled != nil && e.cancelled.Contains(key) {
		e.cancelled.Remove(key)
	}

	e.updateAutoOnTime(f, state, now)

	// Gate-less departures in early states produce no noise.
	if f.Movement == model.MovementDeparture && len(f.Gates()) == 0 {
		switch state {
		case model.StateOnTime, model.StateArrived, model.StateLanded, model.StateDelayed, model.StateEarlier:
		default:
			return nil
		}
	}

	mts, err := f.MinutesToScheduled(now)
	if err != nil {
		slog.Warn("Engine: unparseable scheduled time, skipping", "flight", f.Ident, "scheduled", f.ScheduledTime)
		return nil
	}

	var out []model.Announcement
	emit := func(kind model.Kind) {
		text, isAI, ok := e.resolver.Resolve(ctx, f, kind)
		if !ok {
			return
		}
		snap := *f
		out = append(out, model.Announcement{
			Kind:     kind,
			Text:     text,
			Flight:   &snap,
			Priority: kind.Priority(),
			IsAI:     isAI,
		})
	}

	// All kind conditions are tested, never short-circuited: a flight may
	// fire more than one kind in a cycle (delay plus ai-delay-reason).

	if claim(seen, key, model.KindCheckIn) {
		if (state == model.StateProcessing || state == model.StateCheckIn) &&
			e.fireOffset(key, model.KindCheckIn, mts, e.cfg.CheckInOffsets, now) {
			emit(model.KindCheckIn)
		}
	}

	boardingOffsetHit := containsInt(e.cfg.BoardingOffsets, mts)

	if claim(seen, key, model.KindBoarding) {
		if state == model.StateBoarding && boardingOffsetHit &&
			e.fireOffset(key, model.KindBoarding, mts, e.cfg.BoardingOffsets, now) {
			emit(model.KindBoarding)
		}
	}

	if claim(seen, key, model.KindClose) {
		if state == model.StateClose &&
			e.fireOffset(key, model.KindClose, mts, e.cfg.CloseOffsets, now) {
			emit(model.KindClose)
		}
	}

	if claim(seen, key, model.KindDiverted) {
		if state == model.StateDiverted &&
			e.fireOffset(key, model.KindDiverted, mts, e.cfg.DivertedOffsets, now) {
			emit(model.KindDiverted)
		}
	}

	if claim(seen, key, model.KindEarlier) {
		if state == model.StateEarlier &&
			e.fireTransition(key, model.KindEarlier, e.cfg.Earlier, now) {
			emit(model.KindEarlier)
		}
	}

	if claim(seen, key, model.KindArrived) {
		// Arrivals announce within a short window after scheduled time and
		// never again once the window has passed.
		windowMin := int(time.Duration(e.cfg.ArrivedWindow).Minutes())
		if (state == model.StateArrived || state == model.StateLanded) &&
			mts <= 0 && mts >= -windowMin {
			policy := config.KindPolicy{Interval: e.cfg.ArrivedInterval, MaxRepeats: e.cfg.ArrivedMax}
			if e.fireTransition(key, model.KindArrived, policy, now) {
				emit(model.KindArrived)
			}
		}
	}

	if claim(seen, key, model.KindDelay) {
		if state == model.StateDelayed &&
			e.fireTransition(key, model.KindDelay, e.cfg.Delay, now) {
			emit(model.KindDelay)
		}
	}

	if claim(seen, key, model.KindOnTime) {
		if state == model.StateOnTime && f.Movement == model.MovementArrival &&
			e.fireTransition(key, model.KindOnTime, e.cfg.OnTime, now) {
			emit(model.KindOnTime)
		}
	}

	// AI kinds carry their own 15-minute cooldown, stamped by the resolver on
	// every attempt, independent of the repeat counters above.

	if claim(seen, key, model.KindAIDelayReason) {
		if state == model.StateDelayed && f.DelayMinutes > 30 &&
			e.resolver.AICooldownReady(key, model.KindAIDelayReason) {
			emit(model.KindAIDelayReason)
		}
	}

	if claim(seen, key, model.KindAIWeatherUpdate) {
		if state == model.StateDelayed && f.DelayMinutes > 60 &&
			e.resolver.AICooldownReady(key, model.KindAIWeatherUpdate) {
			emit(model.KindAIWeatherUpdate)
		}
	}

	if claim(seen, key, model.KindAIAssistance) {
		due := (state == model.StateDelayed && f.DelayMinutes > 90) ||
			(state == model.StateBoarding && boardingOffsetHit)
		if due && e.resolver.AICooldownReady(key, model.KindAIAssistance) {
			emit(model.KindAIAssistance)
		}
	}

	return out
}

// claim marks (flightKey, kind) as processed this cycle before evaluation, so
// a duplicate flight in the same snapshot can never double-fire.
func claim(seen map[string]bool, key string, kind model.Kind) bool {
	id := key + "|" + string(kind)
	if seen[id] {
		return false
	}
	seen[id] = true
	return true
}

// fireOffset fires once per configured minute offset, ever.
func (e *Engine) fireOffset(key string, kind model.Kind, mts int, offsets []int, now time.Time) bool {
	if !containsInt(offsets, mts) {
		return false
	}
	id := key + "|" + string(kind)
	ent := e.offsets[id]
	if ent == nil {
		ent = &offsetEntry{fired: make(map[int]bool)}
		e.offsets[id] = ent
	}
	ent.lastSeen = now
	if ent.fired[mts] {
		return false
	}
	ent.fired[mts] = true
	return true
}

// fireTransition fires on first observation of the state, then on the
// policy's cadence up to its repeat cap. The cap is hard: once reached the
// pair stays silent until the entry clears on a state transition.
func (e *Engine) fireTransition(key string, kind model.Kind, policy config.KindPolicy, now time.Time) bool {
	id := key + "|" + string(kind)
	t := e.tracks[id]
	if t == nil {
		e.tracks[id] = &trackEntry{
			repeatCount:  1,
			lastFiredAt:  now,
			firstEntered: now,
			lastSeen:     now,
		}
		return true
	}
	t.lastSeen = now
	if t.repeatCount >= policy.MaxRepeats {
		return false
	}
	if now.Sub(t.lastFiredAt) < time.Duration(policy.Interval) {
		return false
	}
	t.repeatCount++
	t.lastFiredAt = now
	return true
}

func (e *Engine) updateAutoOnTime(f *model.Flight, state model.CanonicalState, now time.Time) {
	if f.Movement != model.MovementArrival {
		return
	}
	key := f.Key()
	switch state {
	case model.StateOnTime:
		if a := e.autoOnTime[key]; a != nil {
			a.lastSeenAt = now
			a.flight = *f
		} else {
			// Stamp lastFiredAt at registration: the on-time kind already
			// fires immediately on the transition, the repeater only adds
			// the coarser cadence afterwards.
			e.autoOnTime[key] = &autoEntry{flight: *f, lastFiredAt: now, lastSeenAt: now}
		}
	case model.StateArrived, model.StateLanded:
		delete(e.autoOnTime, key)
	}
}

// sweepAutoOnTime re-emits the default on-time phrasing for every registered
// arrival on its 30-minute cadence, and drops entries the feed stopped
// reporting.
func (e *Engine) sweepAutoOnTime(now time.Time) []model.Announcement {
	var out []model.Announcement
	for key, a := range e.autoOnTime {
		if now.Sub(a.lastSeenAt) > time.Duration(e.cfg.AutoOnTimeStale) {
			delete(e.autoOnTime, key)
			continue
		}
		if now.Sub(a.lastFiredAt) < time.Duration(e.cfg.AutoOnTimeInterval) {
			continue
		}
		a.lastFiredAt = now
		snap := a.flight
		out = append(out, model.Announcement{
			Kind:     model.KindOnTime,
			Text:     texts.DefaultText(model.KindOnTime, &snap),
			Flight:   &snap,
			Priority: model.KindOnTime.Priority(),
		})
	}
	return out
}

// Cleanup drops tracking state not touched for maxAge. Run once per
// wall-clock hour by the cleanup job.
func (e *Engine) Cleanup(maxAge time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	deadline := now.Add(-maxAge)
	for id, ent := range e.offsets {
		if ent.lastSeen.Before(deadline) {
			delete(e.offsets, id)
		}
	}
	for id, t := range e.tracks {
		if t.lastSeen.Before(deadline) {
			delete(e.tracks, id)
		}
	}
	staleLine := now.Add(-time.Duration(e.cfg.AutoOnTimeStale))
	for key, a := range e.autoOnTime {
		if a.lastSeenAt.Before(staleLine) {
			delete(e.autoOnTime, key)
		}
	}
}

// Stats reports tracking table sizes for the stats endpoint.
func (e *Engine) Stats() (offsets, tracks, autoOnTime int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.offsets), len(e.tracks), len(e.autoOnTime)
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
