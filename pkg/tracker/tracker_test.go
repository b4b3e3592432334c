package tracker

import (
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	tr := New()
	provider := "gemini-2.5-flash"

	if stats := tr.Snapshot(); len(stats) != 0 {
		t.Errorf("Expected empty stats, got %d", len(stats))
	}

	tr.TrackCacheHit("catalog")
	tr.TrackCacheMiss("catalog")
	tr.TrackAPI(provider, Success)
	tr.TrackAPI(provider, RateLimited)
	tr.TrackAPI(provider, CreditsExhausted)
	tr.TrackAPI(provider, SchemaInvalid)
	tr.TrackAPI(provider, Failure)

	stats := tr.Snapshot()
	p, ok := stats[provider]
	if !ok {
		t.Fatalf("Expected stats for provider %s", provider)
	}
	if p.APISuccess != 1 {
		t.Errorf("Expected 1 APISuccess, got %d", p.APISuccess)
	}
	if p.APIFailures != 4 {
		t.Errorf("Expected 4 APIFailures, got %d", p.APIFailures)
	}
	if p.RateLimited != 1 || p.CreditsExhausted != 1 || p.SchemaInvalid != 1 {
		t.Errorf("unexpected per-kind counters: %+v", p)
	}

	c := stats["catalog"]
	if c.CacheHits != 1 || c.CacheMisses != 1 {
		t.Errorf("unexpected cache counters: %+v", c)
	}

	names := tr.Providers()
	if len(names) != 2 || names[0] != "catalog" || names[1] != provider {
		t.Errorf("unexpected provider names: %v", names)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackAPI("p", Success)
			tr.TrackCacheHit("p")
		}()
	}
	wg.Wait()

	s := tr.Snapshot()["p"]
	if s.APISuccess != 50 || s.CacheHits != 50 {
		t.Errorf("lost updates: %+v", s)
	}
}
