// Package itinerary turns a parsed plan into catalog-backed days and attaches
// add-on products to the slots the planner left without any.
package itinerary

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"itinera/pkg/catalog"
	"itinera/pkg/model"
	"itinera/pkg/planner"
	"itinera/pkg/scorer"
)

// DateLayout formats the per-day date label.
const DateLayout = "Monday, 2 January 2006"

const maxAlternatives = 2

// Materializer reconciles planner output with the catalog snapshot.
type Materializer struct {
	now func() time.Time
}

// NewMaterializer creates a materializer. now anchors day 1; nil means time.Now.
func NewMaterializer(now func() time.Time) *Materializer {
	if now == nil {
		now = time.Now
	}
	return &Materializer{now: now}
}

// Materialize resolves every id of the plan against snap. Unknown ids are
// dropped, never kept dangling. Activity slots above the rhythm ceiling are
// trimmed. Overlapping slot times are counted and logged but left as planned.
func (m *Materializer) Materialize(plan *planner.Plan, snap *catalog.Snapshot, prefs model.TripPreferences) ([]model.GeneratedDay, model.ItineraryMeta) {
	meta := model.ItineraryMeta{ProductsAvailable: len(snap.Products)}
	ceiling := planner.ActivityCeiling(prefs.Rhythm)
	today := m.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	planDays := make([]planner.PlanDay, len(plan.Days))
	copy(planDays, plan.Days)
	sort.SliceStable(planDays, func(i, j int) bool { return planDays[i].DayNumber < planDays[j].DayNumber })

	used := make(map[string]bool)
	days := make([]model.GeneratedDay, 0, len(planDays))
	for _, pd := range planDays {
		day := model.GeneratedDay{
			DayNumber: pd.DayNumber,
			Date:      today.AddDate(0, 0, pd.DayNumber-1).Format(DateLayout),
			Summary:   strings.TrimSpace(pd.Summary),
			Slots:     make([]model.GeneratedSlot, 0, len(pd.Slots)),
		}

		activities := 0
		for _, ps := range pd.Slots {
			if model.SlotType(ps.Type) == model.SlotActivity {
				activities++
				if activities > ceiling.Max {
					meta.TrimmedActivities++
					slog.Info("Materializer: trimming activity above rhythm ceiling",
						"day", pd.DayNumber, "place", ps.PlaceID, "ceiling", ceiling.Max)
					continue
				}
			}

			slot, dropped := resolveSlot(ps, snap)
			meta.DroppedReferences += dropped
			if slot.Place != nil {
				used[slot.Place.ID] = true
			}
			slot.ID = fmt.Sprintf("d%d-s%d", pd.DayNumber, len(day.Slots)+1)
			day.Slots = append(day.Slots, slot)
		}

		if n := countOverlaps(day.Slots); n > 0 {
			meta.OverlappingSlots += n
			slog.Warn("Materializer: overlapping slots left as planned", "day", pd.DayNumber, "count", n)
		}
		days = append(days, day)
	}

	meta.PlacesUsed = len(used)
	if meta.DroppedReferences > 0 {
		slog.Info("Materializer: dropped unknown catalog references", "count", meta.DroppedReferences)
	}
	return days, meta
}

// resolveSlot copies a plan slot, replacing ids with catalog records.
func resolveSlot(ps planner.PlanSlot, snap *catalog.Snapshot) (slot model.GeneratedSlot, dropped int) {
	slot = model.GeneratedSlot{
		Type:           model.SlotType(ps.Type),
		StartTime:      ps.StartTime,
		EndTime:        ps.EndTime,
		Reason:         strings.TrimSpace(ps.Reason),
		WalkingMinutes: ps.WalkingMinutes,
		Notes:          strings.TrimSpace(ps.Notes),
	}

	if ps.PlaceID != "" {
		if p, ok := snap.Place(ps.PlaceID); ok {
			place := *p
			slot.Place = &place
		} else {
			dropped++
		}
	}

	seen := make(map[string]bool)
	if slot.Place != nil {
		seen[slot.Place.ID] = true
	}
	for _, id := range ps.AlternativeIDs {
		p, ok := snap.Place(id)
		if !ok {
			dropped++
			continue
		}
		if seen[id] || len(slot.Alternatives) == maxAlternatives {
			continue
		}
		seen[id] = true
		slot.Alternatives = append(slot.Alternatives, *p)
	}

	seenProducts := make(map[string]bool)
	for _, id := range ps.ProductIDs {
		p, ok := snap.Product(id)
		if !ok {
			dropped++
			continue
		}
		if seenProducts[id] || len(slot.Products) == scorer.MaxCandidates {
			continue
		}
		seenProducts[id] = true
		slot.Products = append(slot.Products, *p)
	}
	if len(slot.Products) > 0 {
		slot.ProductSource = model.SourcePlanner
	}

	return slot, dropped
}

// countOverlaps counts slots starting before the previous slot ended.
func countOverlaps(slots []model.GeneratedSlot) int {
	n := 0
	prevEnd := -1
	for _, s := range slots {
		start, ok1 := minutes(s.StartTime)
		end, ok2 := minutes(s.EndTime)
		if !ok1 || !ok2 {
			continue
		}
		if prevEnd >= 0 && start < prevEnd {
			n++
		}
		prevEnd = end
	}
	return n
}

func minutes(hhmm string) (int, bool) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, false
	}
	hi, err1 := strconv.Atoi(h)
	mi, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return hi*60 + mi, true
}
