package planner

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlan = `{
  "days": [
    {
      "dayNumber": 1,
      "summary": "Ancient Rome and a long lunch.",
      "slots": [
        {"type": "activity", "startTime": "09:00", "endTime": "11:30", "placeId": "colosseum", "reason": "Beat the crowds", "alternativeIds": ["forum"], "productIds": ["tour"]},
        {"type": "meal", "startTime": "12:30", "endTime": "14:00", "placeId": "roscioli", "reason": "Carbonara", "walkingMinutes": 18},
        {"type": "break", "startTime": "14:00", "endTime": "15:00", "reason": "Siesta", "notes": "Hotel"}
      ]
    }
  ]
}`

func TestParse_Valid(t *testing.T) {
	plan, err := Parse([]byte(validPlan))
	require.NoError(t, err)
	require.Len(t, plan.Days, 1)

	d := plan.Days[0]
	assert.Equal(t, 1, d.DayNumber)
	require.Len(t, d.Slots, 3)
	assert.Equal(t, "colosseum", d.Slots[0].PlaceID)
	assert.Equal(t, []string{"forum"}, d.Slots[0].AlternativeIDs)
	require.NotNil(t, d.Slots[1].WalkingMinutes)
	assert.Equal(t, 18, *d.Slots[1].WalkingMinutes)
	assert.Empty(t, d.Slots[2].PlaceID)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `Sure! Here is your plan`},
		{"empty object", `{}`},
		{"null", `null`},
		{"no days", `{"days": []}`},
		{"unknown top-level field", `{"days": [], "note": "x"}`},
		{"unknown slot field", `{"days":[{"dayNumber":1,"summary":"s","slots":[{"type":"meal","startTime":"12:00","endTime":"13:00","reason":"r","price":3}]}]}`},
		{"slot type", `{"days":[{"dayNumber":1,"summary":"s","slots":[{"type":"nap","startTime":"12:00","endTime":"13:00","reason":"r"}]}]}`},
		{"bad time", `{"days":[{"dayNumber":1,"summary":"s","slots":[{"type":"meal","startTime":"noon","endTime":"13:00","reason":"r"}]}]}`},
		{"missing reason", `{"days":[{"dayNumber":1,"summary":"s","slots":[{"type":"meal","startTime":"12:00","endTime":"13:00"}]}]}`},
		{"missing summary", `{"days":[{"dayNumber":1,"slots":[]}]}`},
		{"missing slots", `{"days":[{"dayNumber":1,"summary":"s"}]}`},
		{"day zero", `{"days":[{"dayNumber":0,"summary":"s","slots":[]}]}`},
		{"dayNumber as string", `{"days":[{"dayNumber":"1","summary":"s","slots":[]}]}`},
		{"three alternatives", `{"days":[{"dayNumber":1,"summary":"s","slots":[{"type":"meal","startTime":"12:00","endTime":"13:00","reason":"r","alternativeIds":["a","b","c"]}]}]}`},
		{"negative walking", `{"days":[{"dayNumber":1,"summary":"s","slots":[{"type":"meal","startTime":"12:00","endTime":"13:00","reason":"r","walkingMinutes":-4}]}]}`},
		{"duplicate day", `{"days":[{"dayNumber":1,"summary":"s","slots":[]},{"dayNumber":1,"summary":"t","slots":[]}]}`},
		{"trailing data", `{"days":[{"dayNumber":1,"summary":"s","slots":[]}]} {"days":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Parse([]byte(tt.body))
			assert.Nil(t, plan)
			assert.True(t, errors.Is(err, ErrSchemaInvalid), "got %v", err)
		})
	}
}

func TestSchema_IsSerializable(t *testing.T) {
	b, err := json.Marshal(Schema())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"alternativeIds"`)
	assert.Contains(t, string(b), `"enum":["activity","meal","break","transfer"]`)
}

func TestActivityCeiling(t *testing.T) {
	tests := []struct {
		rhythm int
		want   Ceiling
	}{
		{1, Ceiling{1, 2}},
		{2, Ceiling{1, 2}},
		{3, Ceiling{3, 4}},
		{4, Ceiling{4, 5}},
		{5, Ceiling{4, 5}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ActivityCeiling(tt.rhythm), "rhythm %d", tt.rhythm)
	}
}
