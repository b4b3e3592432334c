// Package api exposes the itinerary engine over HTTP.
package api

import (
	"net"
	"net/http"
	"time"

	"itinera/pkg/config"
	"itinera/pkg/logging"
	"itinera/pkg/version"
)

// NewServer creates and configures the HTTP server.
func NewServer(cfg config.ServerConfig, sessions *SessionHandler, stats *StatsHandler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      withRequestLog(NewMux(sessions, stats)),
		ReadTimeout:  cfg.ReadTimeout.Std(),
		WriteTimeout: cfg.WriteTimeout.Std(),
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every route.
func NewMux(sessions *SessionHandler, stats *StatsHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.Handle("GET /api/stats", stats)

	mux.HandleFunc("POST /api/sessions", sessions.HandleCreate)
	mux.HandleFunc("DELETE /api/sessions/{sid}", sessions.HandleDelete)

	mux.HandleFunc("POST /api/sessions/{sid}/itinerary", sessions.HandleGenerate)
	mux.HandleFunc("GET /api/sessions/{sid}/itinerary", sessions.HandleGetItinerary)
	mux.HandleFunc("DELETE /api/sessions/{sid}/generation", sessions.HandleAbandon)
	mux.HandleFunc("GET /api/sessions/{sid}/days/{day}/route", sessions.HandleRoute)

	mux.HandleFunc("GET /api/sessions/{sid}/cart", sessions.HandleCart)
	mux.HandleFunc("POST /api/sessions/{sid}/cart", sessions.HandleAdd)
	mux.HandleFunc("DELETE /api/sessions/{sid}/cart/{productID}", sessions.HandleRemove)
	mux.HandleFunc("POST /api/sessions/{sid}/dismissals", sessions.HandleDismiss)
	mux.HandleFunc("GET /api/sessions/{sid}/suggestions", sessions.HandleSuggestions)
	mux.HandleFunc("POST /api/sessions/{sid}/confirm", sessions.HandleConfirm)

	return mux
}

// handleHealth reports liveness plus the last server log line for operators.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"last_log": logging.GlobalLogCapture.LastLine(),
	})
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestLog writes one line per request to the request log.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.RequestLogger.Info("HTTP",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"client", clientKey(r),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// clientKey identifies the caller for rate limiting.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
