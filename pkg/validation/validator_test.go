package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/pkg/model"
	"itinera/pkg/validation"
)

func validPrefs() model.TripPreferences {
	return model.TripPreferences{
		CityID:      "rome",
		Days:        3,
		Composition: model.CompositionCouple,
		Rhythm:      3,
		Budget:      2,
	}
}

func TestValidator_Preferences(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(*model.TripPreferences)
		wantField string
	}{
		{name: "valid", mutate: func(*model.TripPreferences) {}},
		{name: "days too many", mutate: func(p *model.TripPreferences) { p.Days = 15 }, wantField: "days"},
		{name: "days missing", mutate: func(p *model.TripPreferences) { p.Days = 0 }, wantField: "days"},
		{name: "rhythm out of range", mutate: func(p *model.TripPreferences) { p.Rhythm = 6 }, wantField: "rhythm"},
		{name: "budget out of range", mutate: func(p *model.TripPreferences) { p.Budget = 4 }, wantField: "budget"},
		{name: "unknown composition", mutate: func(p *model.TripPreferences) { p.Composition = "coworkers" }, wantField: "composition"},
		{name: "bad start band", mutate: func(p *model.TripPreferences) { p.StartTime = "noon" }, wantField: "start_time"},
		{name: "missing city", mutate: func(p *model.TripPreferences) { p.CityID = "" }, wantField: "city_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPrefs()
			tt.mutate(&p)
			err := v.Validate(p)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *validation.Error
			require.True(t, errors.As(err, &verr), "want *validation.Error, got %v", err)
			assert.Contains(t, verr.Fields, tt.wantField)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestValidator_CatalogRows(t *testing.T) {
	v := validation.New()
	lat := 123.0

	err := v.Validate(model.CatalogPlace{ID: "p1", CityID: "rome", Name: "X", Type: "castle"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be one of: attraction restaurant bar club experience view zone", verr.Fields["type"])

	err = v.Validate(model.CatalogPlace{ID: "p1", CityID: "rome", Name: "X", Type: model.PlaceView, Lat: &lat})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "lat")

	err = v.Validate(model.CatalogProduct{ID: "t1", CityID: "rome", Title: "T", Type: model.ProductTicket,
		TimeBuckets: []model.TimeBucket{"brunch"}})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "time_buckets[0]")
}

func TestValidator_HHMM(t *testing.T) {
	v := validation.New()
	type slot struct {
		Start string `json:"startTime" validate:"hhmm"`
	}

	for _, ok := range []string{"00:00", "09:30", "23:59"} {
		assert.NoError(t, v.Validate(slot{Start: ok}), ok)
	}
	for _, bad := range []string{"9:30", "24:00", "12:60", "noon", ""} {
		assert.Error(t, v.Validate(slot{Start: bad}), bad)
	}
}
