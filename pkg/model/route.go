package model

// CoordSource records which resolution tier produced a map coordinate.
type CoordSource string

const (
	CoordStored    CoordSource = "stored"
	CoordGazetteer CoordSource = "gazetteer"
	CoordSynthetic CoordSource = "synthetic"
)

// MapPoint is the display projection of a slot.
type MapPoint struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Category PlaceType   `json:"category"`
	Lat      float64     `json:"lat"`
	Lng      float64     `json:"lng"`
	Sequence int         `json:"sequence"`
	Source   CoordSource `json:"source"`
}

// WalkingSegment is the walking estimate between two consecutive points.
type WalkingSegment struct {
	FromID  string  `json:"from_id"`
	ToID    string  `json:"to_id"`
	Meters  float64 `json:"meters"`
	Minutes int     `json:"minutes"`
}

// DayRoute is everything the map and timeline views need to draw one day.
type DayRoute struct {
	DayNumber           int              `json:"day_number"`
	Points              []MapPoint       `json:"points"`
	Segments            []WalkingSegment `json:"segments"`
	TotalWalkingMinutes int              `json:"total_walking_minutes"`
}
