package model

import "time"

// SlotType is the kind of a scheduled block.
type SlotType string

const (
	SlotActivity SlotType = "activity"
	SlotMeal     SlotType = "meal"
	SlotBreak    SlotType = "break"
	SlotTransfer SlotType = "transfer"
)

// ProductSource records who attached a product to a slot.
type ProductSource string

const (
	SourcePlanner ProductSource = "planner"
	SourceMatcher ProductSource = "matcher"
)

// GeneratedSlot is one scheduled block of a day.
type GeneratedSlot struct {
	ID             string           `json:"id"`
	Type           SlotType         `json:"type"`
	StartTime      string           `json:"start_time"`
	EndTime        string           `json:"end_time"`
	Place          *CatalogPlace    `json:"place,omitempty"`
	Reason         string           `json:"reason"`
	Alternatives   []CatalogPlace   `json:"alternatives,omitempty"`
	WalkingMinutes *int             `json:"walking_minutes,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Products       []CatalogProduct `json:"products,omitempty"`
	ProductSource  ProductSource    `json:"product_source,omitempty"`
}

// GeneratedDay is the ordered schedule for one calendar day.
type GeneratedDay struct {
	DayNumber int             `json:"day_number"`
	Date      string          `json:"date"`
	Slots     []GeneratedSlot `json:"slots"`
	Summary   string          `json:"summary"`
}

// ItineraryMeta carries observability counters for one generation run.
type ItineraryMeta struct {
	PlacesUsed        int `json:"places_used"`
	ProductsAvailable int `json:"products_available"`
	DroppedReferences int `json:"dropped_references"`
	TrimmedActivities int `json:"trimmed_activities"`
	OverlappingSlots  int `json:"overlapping_slots"`
	MatchedSlots      int `json:"matched_slots"`
}

// Itinerary is the output of one generation run.
type Itinerary struct {
	ID          string         `json:"id"`
	City        City           `json:"city"`
	Days        []GeneratedDay `json:"days"`
	Meta        ItineraryMeta  `json:"meta"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Day returns the day with the given 1-based number.
func (it *Itinerary) Day(n int) (*GeneratedDay, bool) {
	for i := range it.Days {
		if it.Days[i].DayNumber == n {
			return &it.Days[i], true
		}
	}
	return nil, false
}
