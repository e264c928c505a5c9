// Package texts resolves the final spoken text for an announcement: AI
// provider first (for AI-eligible kinds), then airline templates, then
// built-in defaults.
package texts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"razglasgo/pkg/cache"
	"razglasgo/pkg/llm"
	"razglasgo/pkg/model"
	"razglasgo/pkg/templates"
	"razglasgo/pkg/tracker"
)

// Options configures a Resolver.
type Options struct {
	AICooldown        time.Duration
	AICacheTTL        time.Duration
	SentimentSuppress float64
	PeakHours         []int
}

// Resolver owns the AI cooldown table and response cache for announcement
// text. Safe for concurrent use.
type Resolver struct {
	store   *templates.Store // nil disables template lookup
	ai      llm.Provider     // nil disables the AI path
	tracker *tracker.Tracker
	opts    Options

	aiCache *cache.TTLCache[llm.Response]

	mu        sync.Mutex
	cooldowns map[string]time.Time // flightKey|kind -> last attempt

	now func() time.Time
}

// NewResolver creates a Resolver.
func NewResolver(store *templates.Store, ai llm.Provider, t *tracker.Tracker, opts Options) *Resolver {
	if opts.AICooldown <= 0 {
		opts.AICooldown = 15 * time.Minute
	}
	if opts.AICacheTTL <= 0 {
		opts.AICacheTTL = 30 * time.Minute
	}
	if opts.SentimentSuppress == 0 {
		opts.SentimentSuppress = -0.7
	}
	return &Resolver{
		store:     store,
		ai:        ai,
		tracker:   t,
		opts:      opts,
		aiCache:   cache.New[llm.Response](opts.AICacheTTL),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (r *Resolver) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	r.aiCache.SetNowFunc(now)
}

// Resolve produces the spoken text for (flight, kind). ok=false means the
// announcement must be suppressed entirely (AI sentiment policy); every other
// failure degrades to template or default text instead.
func (r *Resolver) Resolve(ctx context.Context, flight *model.Flight, kind model.Kind) (text string, isAI, ok bool) {
	if kind.IsAIKind() {
		if aiText, suppressed := r.resolveAI(ctx, flight, kind); suppressed {
			return "", false, false
		} else if aiText != "" {
			return aiText, true, true
		}
		// AI unavailable or declined: fall through to template/default.
	}

	if r.store != nil {
		if tmpl, found := r.store.Fetch(ctx, flight.AirlineICAO, kind); found {
			return Substitute(tmpl, flight), false, true
		}
	}

	return DefaultText(kind, flight), false, true
}

// AICooldownReady reports whether the per-(flightKey, kind) AI cooldown has
// elapsed. The eligibility engine gates AI kinds on this before emitting.
func (r *Resolver) AICooldownReady(flightKey string, kind model.Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	last, seen := r.cooldowns[flightKey+"|"+string(kind)]
	if !seen {
		return true
	}
	return r.now().Sub(last) >= r.opts.AICooldown
}

// PruneCooldowns drops cooldown entries older than maxAge. Called from the
// hourly cleanup sweep.
func (r *Resolver) PruneCooldowns(maxAge time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.now().Add(-maxAge)
	for k, t := range r.cooldowns {
		if t.Before(deadline) {
			delete(r.cooldowns, k)
		}
	}
}

// resolveAI runs the AI path. Empty text with suppressed=false means "fall
// through as if AI had not been attempted". The cooldown timestamp is stamped
// on every attempt, success or not, so a flaky provider cannot cause a retry
// storm.
func (r *Resolver) resolveAI(ctx context.Context, flight *model.Flight, kind model.Kind) (text string, suppressed bool) {
	if r.ai == nil {
		return "", false
	}

	now := r.currentTime()
	sentiment := Sentiment(flight.DelayMinutes, now, r.opts.PeakHours)

	// Extremely negative situations need human handling; suppress automation.
	if sentiment < r.opts.SentimentSuppress {
		slog.Info("Texts: AI announcement suppressed by sentiment", "flight", flight.Ident, "kind", kind, "sentiment", sentiment)
		return "", true
	}

	cacheKey := flight.AirlineIATA + "|" + flight.Ident + "|" + string(kind) + "|" + flight.Status
	if resp, hit := r.aiCache.Get(cacheKey); hit {
		if r.tracker != nil {
			r.tracker.TrackCacheHit("ai")
		}
		if resp.ShouldAnnounce {
			return resp.Text, false
		}
		return "", false
	}
	if r.tracker != nil {
		r.tracker.TrackCacheMiss("ai")
	}

	r.stampCooldown(flight.Key(), kind)

	req := &llm.Request{
		Flight:       *flight,
		Kind:         kind,
		DelayMinutes: flight.DelayMinutes,
		TimeOfDay:    timeOfDay(now),
		PeakHour:     isPeakHour(now, r.opts.PeakHours),
		Sentiment:    sentiment,
	}

	resp, err := r.ai.GenerateAnnouncement(ctx, req)
	if err != nil {
		slog.Warn("Texts: AI unavailable, using fallback text", "flight", flight.Ident, "kind", kind, "error", err)
		if r.tracker != nil {
			r.tracker.TrackFallback("ai")
		}
		return "", false
	}

	r.aiCache.Set(cacheKey, *resp)

	if !resp.ShouldAnnounce {
		slog.Debug("Texts: AI declined to announce", "flight", flight.Ident, "kind", kind)
		return "", false
	}

	return resp.Text, false
}

func (r *Resolver) stampCooldown(flightKey string, kind model.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cooldowns[flightKey+"|"+string(kind)] = r.now()
}

func (r *Resolver) currentTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now()
}
