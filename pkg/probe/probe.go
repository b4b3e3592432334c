// Package probe runs the dependency checks performed before the server starts
// accepting traffic.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a probe that sets no timeout of its own.
const DefaultTimeout = 5 * time.Second

// CheckFunc returns nil when the dependency is usable.
type CheckFunc func(ctx context.Context) error

// Probe is one startup check.
type Probe struct {
	Name  string
	Check CheckFunc
	// Critical failures abort startup. Others are logged and tolerated.
	Critical bool
	Timeout  time.Duration
}

// Result is the outcome of one probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes all probes concurrently. Results keep the order of probes.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			timeout := p.Timeout
			if timeout <= 0 {
				timeout = DefaultTimeout
			}
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := p.Check(pctx)
			results[i] = Result{Probe: p, Error: err, Duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Analyze logs every result and joins the errors of failed critical probes.
func Analyze(results []Result) error {
	var critical []error

	for _, r := range results {
		took := r.Duration.Round(time.Millisecond)
		if r.Error == nil {
			slog.Info("Startup check passed", "check", r.Probe.Name, "duration", took)
			continue
		}
		if r.Probe.Critical {
			slog.Error("Startup check failed", "check", r.Probe.Name, "duration", took, "error", r.Error)
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		} else {
			slog.Warn("Startup check failed, continuing", "check", r.Probe.Name, "duration", took, "error", r.Error)
		}
	}

	return errors.Join(critical...)
}
