// Package geometry turns a generated day into map points and walking segments.
// Catalog coordinates are not trusted; every stop still gets a point.
package geometry

import (
	"errors"
	"log/slog"
	"math"

	"itinera/pkg/config"
	"itinera/pkg/geo"
	"itinera/pkg/logging"
	"itinera/pkg/model"
)

// ErrNoCenter is returned when neither the city, the gazetteer nor the day's
// stored coordinates yield a city center.
var ErrNoCenter = errors.New("city center unknown")

// Resolver resolves coordinates in three tiers: stored, gazetteer, synthetic.
// It holds no mutable state; the same input always gives the same route.
type Resolver struct {
	gaz       *geo.Gazetteer
	maxCenter float64
	speedKmh  float64
	radius    float64
	step      float64
}

// NewResolver creates a resolver. A nil gazetteer disables the middle tier.
func NewResolver(cfg config.GeometryConfig, gaz *geo.Gazetteer) *Resolver {
	if gaz == nil {
		gaz = geo.NewGazetteer()
	}
	speed := cfg.WalkingSpeedKmh
	if speed <= 0 {
		speed = 5
	}
	return &Resolver{
		gaz:       gaz,
		maxCenter: cfg.MaxCenterDistance.Meters(),
		speedKmh:  speed,
		radius:    cfg.SyntheticRadius.Meters(),
		step:      cfg.SyntheticStep.Meters(),
	}
}

// Center returns the reference point for a city. Order: the city's own
// coordinates, the gazetteer by name then id, the centroid of the given places'
// stored coordinates.
func (r *Resolver) Center(city model.City, places []model.CatalogPlace) (geo.Point, error) {
	if city.Lat != nil && city.Lng != nil {
		if p := (geo.Point{Lat: *city.Lat, Lon: *city.Lng}); p.Valid() {
			return p, nil
		}
	}
	if p, ok := r.gaz.CityCenter(city.Name); ok {
		return p, nil
	}
	if p, ok := r.gaz.CityCenter(city.ID); ok {
		return p, nil
	}

	var stored []geo.Point
	for i := range places {
		if p, ok := storedPoint(&places[i]); ok {
			stored = append(stored, p)
		}
	}
	if p, ok := geo.Centroid(stored); ok {
		return p, nil
	}
	return geo.Point{}, ErrNoCenter
}

// Locate resolves one place. index is the 0-based position of the stop within
// its day and only matters for the synthetic tier.
func (r *Resolver) Locate(center geo.Point, place *model.CatalogPlace, index int) (geo.Point, model.CoordSource) {
	if p, ok := storedPoint(place); ok {
		if r.maxCenter <= 0 || geo.Distance(center, p) <= r.maxCenter {
			return p, model.CoordStored
		}
		slog.Debug("Stored coordinate rejected", "place_id", place.ID, "km_from_center", math.Round(geo.Distance(center, p)/1000))
	}

	if p, err := r.gaz.Lookup(place.Name, center, r.maxCenter); err == nil {
		return p, model.CoordGazetteer
	}

	logging.Trace(slog.Default(), "Synthetic coordinate", "place_id", place.ID, "index", index)
	return r.Synthetic(center, index), model.CoordSynthetic
}

// Synthetic places stop index on a circle around the center. Consecutive
// indices are 72 degrees apart and the radius grows with the index, so no two
// indices share a point.
func (r *Resolver) Synthetic(center geo.Point, index int) geo.Point {
	bearing := math.Mod(float64(index)*72+30, 360)
	return geo.DestinationPoint(center, r.radius+r.step*float64(index), bearing)
}

// Route resolves one day. Slots without a resolved place are not drawn.
func (r *Resolver) Route(city model.City, day model.GeneratedDay) (model.DayRoute, error) {
	var places []model.CatalogPlace
	for _, s := range day.Slots {
		if s.Place != nil {
			places = append(places, *s.Place)
		}
	}

	route := model.DayRoute{
		DayNumber: day.DayNumber,
		Points:    []model.MapPoint{},
		Segments:  []model.WalkingSegment{},
	}
	if len(places) == 0 {
		return route, nil
	}

	center, err := r.Center(city, places)
	if err != nil {
		return route, err
	}

	prev := geo.Point{}
	for i := range places {
		pl := &places[i]
		p, src := r.Locate(center, pl, i)
		route.Points = append(route.Points, model.MapPoint{
			ID:       pl.ID,
			Name:     pl.Name,
			Category: pl.Type,
			Lat:      p.Lat,
			Lng:      p.Lon,
			Sequence: i + 1,
			Source:   src,
		})

		if i > 0 {
			meters := geo.Distance(prev, p)
			minutes := WalkingMinutes(meters, r.speedKmh)
			route.Segments = append(route.Segments, model.WalkingSegment{
				FromID:  places[i-1].ID,
				ToID:    pl.ID,
				Meters:  math.Round(meters),
				Minutes: minutes,
			})
			route.TotalWalkingMinutes += minutes
		}
		prev = p
	}
	return route, nil
}

// Routes resolves every day of an itinerary. A day whose center cannot be
// found is returned without points.
func (r *Resolver) Routes(it *model.Itinerary) []model.DayRoute {
	out := make([]model.DayRoute, 0, len(it.Days))
	for _, d := range it.Days {
		route, err := r.Route(it.City, d)
		if err != nil {
			slog.Warn("Route unavailable", "itinerary_id", it.ID, "day", d.DayNumber, "error", err)
		}
		out = append(out, route)
	}
	return out
}

// WalkingMinutes converts a distance to whole walking minutes at speedKmh.
// The result never drops below one minute and never decreases with distance.
func WalkingMinutes(meters, speedKmh float64) int {
	if speedKmh <= 0 {
		speedKmh = 5
	}
	m := int(math.Round(meters / 1000 / speedKmh * 60))
	if m < 1 {
		return 1
	}
	return m
}

func storedPoint(p *model.CatalogPlace) (geo.Point, bool) {
	if p.Lat == nil || p.Lng == nil {
		return geo.Point{}, false
	}
	pt := geo.Point{Lat: *p.Lat, Lon: *p.Lng}
	return pt, pt.Valid()
}
