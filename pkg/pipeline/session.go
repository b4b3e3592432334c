package pipeline

import (
	"sync"
	"time"

	"itinera/pkg/config"
	"itinera/pkg/ledger"
	"itinera/pkg/model"
)

// Session is the state of one planning session: its generation guard, the
// latest itinerary and the selection ledger.
type Session struct {
	Guard  Guard
	Ledger *ledger.Ledger

	mu        sync.RWMutex
	itinerary *model.Itinerary
	prefs     model.TripPreferences
}

// NewSession creates an empty session.
func NewSession(cfg config.LedgerConfig, now func() time.Time) *Session {
	return &Session{Ledger: ledger.New(cfg, now)}
}

// Itinerary returns the latest applied itinerary, or nil.
func (s *Session) Itinerary() *model.Itinerary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itinerary
}

// Preferences returns the preferences of the latest applied itinerary.
func (s *Session) Preferences() model.TripPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// apply replaces the itinerary. Selections made against the old one no longer
// refer to its days, so the ledger starts over.
func (s *Session) apply(it *model.Itinerary, prefs model.TripPreferences) {
	s.mu.Lock()
	s.itinerary = it
	s.prefs = prefs
	s.mu.Unlock()
	s.Ledger.Reset()
}

// Close cancels any in-flight generation.
func (s *Session) Close() {
	s.Guard.Abandon()
}
