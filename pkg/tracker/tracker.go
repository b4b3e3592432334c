package tracker

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Outcome classifies one call against an upstream dependency.
type Outcome int

const (
	Success Outcome = iota
	Failure
	RateLimited
	CreditsExhausted
	SchemaInvalid
)

// Tracker tracks usage statistics per provider (planner model, catalog cache, ...).
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*counters
}

type counters struct {
	cacheHits, cacheMisses                 atomic.Int64
	success, failures                      atomic.Int64
	rateLimited, creditsOut, schemaInvalid atomic.Int64
}

// ProviderStats is a point-in-time copy of one provider's counters.
type ProviderStats struct {
	CacheHits        int64 `json:"cache_hits"`
	CacheMisses      int64 `json:"cache_misses"`
	APISuccess       int64 `json:"api_success"`
	APIFailures      int64 `json:"api_errors"`
	RateLimited      int64 `json:"rate_limited"`
	CreditsExhausted int64 `json:"credits_exhausted"`
	SchemaInvalid    int64 `json:"schema_invalid"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{stats: make(map[string]*counters)}
}

func (t *Tracker) get(provider string) *counters {
	t.mu.RLock()
	c, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return c
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok = t.stats[provider]; ok {
		return c
	}
	c = &counters{}
	t.stats[provider] = c
	return c
}

func (t *Tracker) TrackCacheHit(provider string)  { t.get(provider).cacheHits.Add(1) }
func (t *Tracker) TrackCacheMiss(provider string) { t.get(provider).cacheMisses.Add(1) }

// TrackAPI records the outcome of one upstream call. Every non-success outcome
// also counts as a failure.
func (t *Tracker) TrackAPI(provider string, o Outcome) {
	c := t.get(provider)
	if o == Success {
		c.success.Add(1)
		return
	}
	c.failures.Add(1)
	switch o {
	case RateLimited:
		c.rateLimited.Add(1)
	case CreditsExhausted:
		c.creditsOut.Add(1)
	case SchemaInvalid:
		c.schemaInvalid.Add(1)
	}
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]ProviderStats, len(t.stats))
	for k, c := range t.stats {
		out[k] = ProviderStats{
			CacheHits:        c.cacheHits.Load(),
			CacheMisses:      c.cacheMisses.Load(),
			APISuccess:       c.success.Load(),
			APIFailures:      c.failures.Load(),
			RateLimited:      c.rateLimited.Load(),
			CreditsExhausted: c.creditsOut.Load(),
			SchemaInvalid:    c.schemaInvalid.Load(),
		}
	}
	return out
}

// Providers returns the tracked provider names in sorted order.
func (t *Tracker) Providers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.stats))
	for k := range t.stats {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
