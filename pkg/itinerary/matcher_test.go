package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/pkg/model"
	"itinera/pkg/planner"
)

func TestAttachProducts(t *testing.T) {
	snap := romeSnapshot()
	plan := &planner.Plan{Days: []planner.PlanDay{{
		DayNumber: 1,
		Summary:   "s",
		Slots: []planner.PlanSlot{
			slot("activity", "09:00", "11:00", "colosseum"),
			{Type: "meal", StartTime: "12:30", EndTime: "14:00", PlaceID: "roscioli", Reason: "r", ProductIDs: []string{"ticket"}},
			slot("break", "14:00", "15:00", ""),
			slot("meal", "20:00", "22:00", "armando"),
		},
	}}}

	days, _ := NewMaterializer(fixedNow).Materialize(plan, snap, model.TripPreferences{Rhythm: 3})
	matched := AttachProducts(days, snap.Products)
	assert.Equal(t, 2, matched)

	s := days[0].Slots
	require.NotEmpty(t, s[0].Products)
	assert.Equal(t, model.SourceMatcher, s[0].ProductSource)
	assert.Equal(t, "tour", s[0].Products[0].ID, "guided tour in its morning bucket scores highest")
	hasTourOrTicket := false
	for _, p := range s[0].Products {
		if p.Type == model.ProductGuidedTour || p.Type == model.ProductTicket {
			hasTourOrTicket = true
		}
	}
	assert.True(t, hasTourOrTicket)

	require.Len(t, s[1].Products, 1)
	assert.Equal(t, "ticket", s[1].Products[0].ID, "planner products are used verbatim")
	assert.Equal(t, model.SourcePlanner, s[1].ProductSource)

	assert.Empty(t, s[2].Products, "slots without a place get nothing")

	require.Len(t, s[3].Products, 1)
	assert.Equal(t, "tasting", s[3].Products[0].ID)
}

func TestAttachProducts_NoCatalogProducts(t *testing.T) {
	snap := romeSnapshot()
	plan := &planner.Plan{Days: []planner.PlanDay{{
		DayNumber: 1,
		Summary:   "s",
		Slots:     []planner.PlanSlot{slot("activity", "09:00", "11:00", "colosseum")},
	}}}
	days, _ := NewMaterializer(fixedNow).Materialize(plan, snap, model.TripPreferences{Rhythm: 3})
	assert.Zero(t, AttachProducts(days, nil))
	assert.Empty(t, days[0].Slots[0].ProductSource)
}
