package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "Same Point",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 0},
			want: 0,
		},
		{
			name: "London to Paris",
			p1:   Point{Lat: 51.5074, Lon: -0.1278},
			p2:   Point{Lat: 48.8566, Lon: 2.3522},
			want: 344000, // Approx 344km
		},
		{
			name: "Equator 1 degree",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 1},
			want: 111319, // Approx 111km
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			// Allow 1% margin of error due to float precision/earth radius var
			margin := tt.want * 0.01
			if math.Abs(got-tt.want) > margin && tt.want != 0 {
				t.Errorf("Distance() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
		})
	}
}

func TestDestinationPoint_RoundTrip(t *testing.T) {
	rome := Point{Lat: 41.9028, Lon: 12.4964}
	for _, brg := range []float64{30, 102, 174, 246, 318} {
		p := DestinationPoint(rome, 900, brg)
		if d := Distance(rome, p); math.Abs(d-900) > 1 {
			t.Errorf("bearing %v: distance = %v, want 900", brg, d)
		}
		if b := Bearing(rome, p); math.Abs(b-brg) > 0.1 {
			t.Errorf("bearing = %v, want %v", b, brg)
		}
	}
}

func TestCentroid(t *testing.T) {
	if _, ok := Centroid(nil); ok {
		t.Fatal("expected no centroid for empty input")
	}
	c, ok := Centroid([]Point{{Lat: 40, Lon: 10}, {Lat: 42, Lon: 14}})
	if !ok || c.Lat != 41 || c.Lon != 12 {
		t.Errorf("Centroid() = %v, %v", c, ok)
	}
}

func TestPoint_Valid(t *testing.T) {
	if !(Point{Lat: 41.9, Lon: 12.5}).Valid() {
		t.Error("expected Rome to be valid")
	}
	if (Point{Lat: 91, Lon: 0}).Valid() || (Point{Lat: 0, Lon: -181}).Valid() {
		t.Error("expected out of range points to be invalid")
	}
}
