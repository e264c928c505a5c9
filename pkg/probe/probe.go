// Package probe runs named startup checks before the engine begins announcing.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// checkTimeout bounds a single check so a hung collaborator cannot stall startup.
const checkTimeout = 5 * time.Second

// CheckFunc performs one health check. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Probe is a single named startup check. Critical probes abort startup on
// failure; the rest only log, since the engine degrades around them.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool
}

// Result is the outcome of one probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes the probes sequentially, each under its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, 0, len(probes))
	for _, p := range probes {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		start := time.Now()
		err := p.Check(checkCtx)
		cancel()

		results = append(results, Result{Probe: p, Error: err, Duration: time.Since(start)})
	}
	return results
}

// AnalyzeResults logs every outcome and returns a joined error if any
// critical probe failed.
func AnalyzeResults(results []Result) error {
	var critical []error

	slog.Info("Startup checks")
	for _, r := range results {
		elapsed := r.Duration.Round(time.Millisecond)
		if r.Error == nil {
			slog.Info(fmt.Sprintf("[PASS] %-20s (%v)", r.Probe.Name, elapsed))
			continue
		}

		slog.Error(fmt.Sprintf("[FAIL] %-20s (%v)", r.Probe.Name, elapsed), "error", r.Error)
		if r.Probe.Critical {
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		}
	}

	return errors.Join(critical...)
}
