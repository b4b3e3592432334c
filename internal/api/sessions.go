package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"itinera/pkg/apisession"
	"itinera/pkg/geo"
	"itinera/pkg/geometry"
	"itinera/pkg/model"
	"itinera/pkg/pipeline"
	"itinera/pkg/ratelimit"
	"itinera/pkg/validation"
)

// SessionHandler serves planning sessions: generation, routes and the cart.
type SessionHandler struct {
	sessions  *apisession.Store[pipeline.Session]
	gen       *pipeline.Generator
	resolver  *geometry.Resolver
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
}

// NewSessionHandler creates a SessionHandler. limiter bounds generation
// requests per client; nil disables it.
func NewSessionHandler(sessions *apisession.Store[pipeline.Session], gen *pipeline.Generator, res *geometry.Resolver, limiter *ratelimit.KeyedRateLimiter) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		gen:       gen,
		resolver:  res,
		validator: validation.New(),
		limiter:   limiter,
	}
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (string, *pipeline.Session, bool) {
	sid := r.PathValue("sid")
	s, ok := h.sessions.Lookup(sid)
	if !ok {
		writeError(w, r, newError(CodeNotFound, "unknown session"))
		return "", nil, false
	}
	return sid, s, true
}

// HandleCreate starts a planning session.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sid, _ := h.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sid})
}

// HandleDelete ends a session and discards its ledger.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(r.PathValue("sid")) {
		writeError(w, r, newError(CodeNotFound, "unknown session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGenerate runs one generation for the session.
func (h *SessionHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	sid, s, ok := h.session(w, r)
	if !ok {
		return
	}
	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		writeError(w, r, newError(CodeRateLimited, "too many generation requests"))
		return
	}

	var prefs model.TripPreferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(prefs); err != nil {
		writeError(w, r, err)
		return
	}

	it, err := h.gen.Run(r.Context(), sid, s, prefs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// HandleGetItinerary returns the session's latest itinerary.
func (h *SessionHandler) HandleGetItinerary(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	it := s.Itinerary()
	if it == nil {
		writeError(w, r, newError(CodeNotFound, "no itinerary generated yet"))
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// HandleAbandon cancels an in-flight generation; its result is discarded.
func (h *SessionHandler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"abandoned": s.Guard.Abandon()})
}

// HandleRoute returns the map projection of one day, as JSON or GeoJSON.
func (h *SessionHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	it := s.Itinerary()
	if it == nil {
		writeError(w, r, newError(CodeNotFound, "no itinerary generated yet"))
		return
	}
	n, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		writeError(w, r, newError(CodeValidation, "day must be a number"))
		return
	}
	day, found := it.Day(n)
	if !found {
		writeError(w, r, newError(CodeNotFound, "no such day"))
		return
	}

	route, err := h.resolver.Route(it.City, *day)
	if err != nil {
		writeError(w, r, newError(CodeNotFound, "route unavailable: "+err.Error()))
		return
	}

	if r.URL.Query().Get("format") == "geojson" {
		writeGeoJSON(w, r, geo.RouteFeatures(route))
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func writeGeoJSON(w http.ResponseWriter, r *http.Request, fc *geojson.FeatureCollection) {
	data, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write geojson response", "error", err)
	}
}
