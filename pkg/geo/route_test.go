package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/pkg/model"
)

func TestRouteFeatures(t *testing.T) {
	route := model.DayRoute{
		DayNumber: 2,
		Points: []model.MapPoint{
			{ID: "p1", Name: "Colosseum", Category: model.PlaceAttraction, Lat: 41.8902, Lng: 12.4922, Sequence: 1, Source: model.CoordStored},
			{ID: "p2", Name: "Roscioli", Category: model.PlaceRestaurant, Lat: 41.8940, Lng: 12.4745, Sequence: 2, Source: model.CoordSynthetic},
		},
		TotalWalkingMinutes: 19,
	}

	fc := RouteFeatures(route)
	require.Len(t, fc.Features, 3)

	first := fc.Features[0]
	assert.Equal(t, "p1", first.ID)
	assert.Equal(t, orb.Point{12.4922, 41.8902}, first.Geometry)
	assert.Equal(t, "stored", first.Properties["source"])
	assert.Equal(t, 1, first.Properties["sequence"])

	line, ok := fc.Features[2].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, line, 2)
	assert.Equal(t, 19, fc.Features[2].Properties["total_walking_minutes"])
}

func TestRouteFeatures_SinglePointHasNoLine(t *testing.T) {
	fc := RouteFeatures(model.DayRoute{Points: []model.MapPoint{{ID: "p1", Lat: 1, Lng: 2, Sequence: 1}}})
	require.Len(t, fc.Features, 1)
	_, isPoint := fc.Features[0].Geometry.(orb.Point)
	assert.True(t, isPoint)
}
