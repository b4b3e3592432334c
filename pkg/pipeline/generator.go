// Package pipeline runs one itinerary generation end to end: catalog load,
// plan request, materialization and product matching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"itinera/pkg/catalog"
	"itinera/pkg/events"
	"itinera/pkg/id"
	"itinera/pkg/itinerary"
	"itinera/pkg/model"
	"itinera/pkg/planner"
)

// ErrSuperseded is returned when a newer generation or an abandon made this
// result stale. The result is discarded.
var ErrSuperseded = errors.New("generation superseded")

// CatalogSource loads the approved catalog of a city.
type CatalogSource interface {
	Load(ctx context.Context, cityID string) (*catalog.Snapshot, error)
}

// Planner produces a validated plan.
type Planner interface {
	Request(ctx context.Context, prefs model.TripPreferences, snap *catalog.Snapshot) (*planner.Plan, error)
}

// Generator wires the stages together. It holds no per-run state.
type Generator struct {
	catalog CatalogSource
	planner Planner
	mat     *itinerary.Materializer
	pub     events.Publisher
	now     func() time.Time

	planTimeout time.Duration
}

// NewGenerator creates a generator. A nil publisher discards events.
func NewGenerator(c CatalogSource, p Planner, mat *itinerary.Materializer, pub events.Publisher) *Generator {
	if mat == nil {
		mat = itinerary.NewMaterializer(nil)
	}
	return &Generator{catalog: c, planner: p, mat: mat, pub: pub, now: time.Now}
}

// SetPlanTimeout bounds the planner call. Zero means no bound beyond the caller's context.
func (g *Generator) SetPlanTimeout(d time.Duration) {
	g.planTimeout = d
}

// Generate runs the stages in order. The planner is only called once the
// catalog is fully loaded, and never for a city without approved places.
func (g *Generator) Generate(ctx context.Context, prefs model.TripPreferences) (*model.Itinerary, error) {
	start := g.now()

	snap, err := g.catalog.Load(ctx, prefs.CityID)
	if err != nil {
		return nil, err
	}

	plan, err := g.requestPlan(ctx, prefs, snap)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	days, meta := g.mat.Materialize(plan, snap, prefs)
	meta.MatchedSlots = itinerary.AttachProducts(days, snap.Products)

	itinID, err := id.Generate("itin")
	if err != nil {
		return nil, fmt.Errorf("itinerary id: %w", err)
	}
	it := &model.Itinerary{
		ID:          itinID,
		City:        snap.City,
		Days:        days,
		Meta:        meta,
		GeneratedAt: g.now().UTC(),
	}

	slog.Info("Itinerary generated",
		"itinerary_id", it.ID,
		"city", prefs.CityID,
		"days", len(days),
		"places_used", meta.PlacesUsed,
		"dropped_refs", meta.DroppedReferences,
		"trimmed", meta.TrimmedActivities,
		"overlaps", meta.OverlappingSlots,
		"matched", meta.MatchedSlots,
		"duration", g.now().Sub(start).Round(time.Millisecond),
	)
	return it, nil
}

func (g *Generator) requestPlan(ctx context.Context, prefs model.TripPreferences, snap *catalog.Snapshot) (*planner.Plan, error) {
	if g.planTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.planTimeout)
		defer cancel()
	}
	return g.planner.Request(ctx, prefs, snap)
}

// Run generates for a session. The session's guard decides whether the
// result is still wanted and applies it under the same lock; a stale result
// returns ErrSuperseded and is not applied.
func (g *Generator) Run(ctx context.Context, sessionID string, s *Session, prefs model.TripPreferences) (*model.Itinerary, error) {
	genCtx, tok := s.Guard.Begin(ctx)
	it, err := g.Generate(genCtx, prefs)

	current := s.Guard.Finish(tok, func() {
		if err == nil {
			s.apply(it, prefs)
		}
	})
	if !current {
		slog.Info("Generation result discarded", "session_id", sessionID, "city", prefs.CityID)
		return nil, ErrSuperseded
	}
	if err != nil {
		g.publish(ctx, events.Event{
			Type:      events.TypeGenerationFailed,
			SessionID: sessionID,
			Data:      map[string]string{"city_id": prefs.CityID, "error": err.Error()},
		})
		return nil, err
	}

	g.publish(ctx, events.Event{
		Type:      events.TypeItineraryGenerated,
		SessionID: sessionID,
		Data: map[string]any{
			"itinerary_id": it.ID,
			"city_id":      it.City.ID,
			"days":         len(it.Days),
			"meta":         it.Meta,
		},
	})
	return it, nil
}

// Confirm marks the session's ledger as checked out and emits cart.confirmed.
func (g *Generator) Confirm(ctx context.Context, sessionID string, s *Session) (model.Cart, bool) {
	if !s.Ledger.Confirm() {
		return s.Ledger.Cart(), false
	}
	cart := s.Ledger.Cart()
	data := map[string]any{"total": cart.Total, "days": len(cart.Days)}
	if it := s.Itinerary(); it != nil {
		data["itinerary_id"] = it.ID
	}
	g.publish(ctx, events.Event{Type: events.TypeCartConfirmed, SessionID: sessionID, Data: data})
	return cart, true
}

func (g *Generator) publish(ctx context.Context, e events.Event) {
	if g.pub == nil {
		return
	}
	e.At = g.now().UTC()
	// Request cancellation must not drop the event.
	if err := g.pub.Publish(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("Event publish failed", "type", e.Type, "error", err)
	}
}
