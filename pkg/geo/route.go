package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"itinera/pkg/model"
)

// RouteFeatures renders a day route as a GeoJSON FeatureCollection: one Point
// feature per stop in sequence order, then a LineString through all stops when
// there are at least two.
func RouteFeatures(route model.DayRoute) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	line := make(orb.LineString, 0, len(route.Points))

	for _, p := range route.Points {
		pt := orb.Point{p.Lng, p.Lat}
		line = append(line, pt)

		f := geojson.NewFeature(pt)
		f.ID = p.ID
		f.Properties["name"] = p.Name
		f.Properties["category"] = string(p.Category)
		f.Properties["sequence"] = p.Sequence
		f.Properties["source"] = string(p.Source)
		fc.Append(f)
	}

	if len(line) >= 2 {
		f := geojson.NewFeature(line)
		f.Properties["day_number"] = route.DayNumber
		f.Properties["total_walking_minutes"] = route.TotalWalkingMinutes
		fc.Append(f)
	}
	return fc
}
