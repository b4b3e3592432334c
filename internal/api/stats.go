package api

import (
	"net/http"
	"runtime"

	"itinera/pkg/tracker"
)

// StatsHandler serves per-provider call counters.
type StatsHandler struct {
	tracker  *tracker.Tracker
	sessions func() int
}

// NewStatsHandler creates a StatsHandler. sessions reports the number of live
// planning sessions and may be nil.
func NewStatsHandler(t *tracker.Tracker, sessions func() int) *StatsHandler {
	return &StatsHandler{tracker: t, sessions: sessions}
}

// ProviderStatsDTO is one provider's counters plus the derived cache hit rate.
type ProviderStatsDTO struct {
	tracker.ProviderStats
	HitRate int64 `json:"hit_rate"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Providers map[string]ProviderStatsDTO `json:"providers"`
	Order     []string                    `json:"order"`
	Sessions  int                         `json:"sessions"`
	MemoryMB  uint64                      `json:"memory_mb"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{
		Providers: make(map[string]ProviderStatsDTO, len(snapshot)),
		Order:     h.tracker.Providers(),
	}
	for provider, stats := range snapshot {
		hitRate := int64(0)
		if total := stats.CacheHits + stats.CacheMisses; total > 0 {
			hitRate = (stats.CacheHits * 100) / total
		}
		resp.Providers[provider] = ProviderStatsDTO{ProviderStats: stats, HitRate: hitRate}
	}

	if h.sessions != nil {
		resp.Sessions = h.sessions()
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	resp.MemoryMB = bToMb(ms.Alloc)

	writeJSON(w, http.StatusOK, resp)
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
