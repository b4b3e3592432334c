package geo

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Gazetteer maps landmark and city names to coordinates.
// The same name may exist in several cities ("duomo"); lookups pick the entry
// nearest to the caller's city center.
type Gazetteer struct {
	mu        sync.RWMutex
	landmarks map[string][]Point
	cities    map[string]Point
	keys      []string // landmark keys, longest first
}

// NewGazetteer returns an empty gazetteer.
func NewGazetteer() *Gazetteer {
	return &Gazetteer{
		landmarks: make(map[string][]Point),
		cities:    make(map[string]Point),
	}
}

// Default returns a gazetteer seeded with the built-in landmark table.
func Default() *Gazetteer {
	g := NewGazetteer()
	for _, c := range builtinCities {
		g.AddCity(c.name, c.pt)
	}
	for _, l := range builtinLandmarks {
		g.Add(l.pt, l.names...)
	}
	return g
}

// Add registers a landmark under one or more names.
func (g *Gazetteer) Add(p Point, names ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range names {
		key := Normalize(n)
		if key == "" {
			continue
		}
		if _, ok := g.landmarks[key]; !ok {
			g.keys = append(g.keys, key)
		}
		g.landmarks[key] = append(g.landmarks[key], p)
	}
	sort.Slice(g.keys, func(i, j int) bool {
		if len(g.keys[i]) != len(g.keys[j]) {
			return len(g.keys[i]) > len(g.keys[j])
		}
		return g.keys[i] < g.keys[j]
	})
}

// AddCity registers a city center.
func (g *Gazetteer) AddCity(name string, p Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if key := Normalize(name); key != "" {
		g.cities[key] = p
	}
}

// CityCenter returns the registered center for a city name.
func (g *Gazetteer) CityCenter(name string) (Point, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.cities[Normalize(name)]
	return p, ok
}

// Len returns the number of distinct landmark names.
func (g *Gazetteer) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.keys)
}

// Lookup resolves a place name to a landmark within maxMeters of near.
// Exact matches win over word-bounded substring matches; among substring
// matches the longest key wins. maxMeters <= 0 disables the radius check.
func (g *Gazetteer) Lookup(name string, near Point, maxMeters float64) (Point, error) {
	q := Normalize(name)
	if q == "" {
		return Point{}, ErrGeocodeUnresolvable
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if p, ok := g.nearest(g.landmarks[q], near, maxMeters); ok {
		return p, nil
	}

	padded := " " + q + " "
	// Key inside the name: "Colosseum (Flavian Amphitheatre)" -> "colosseum".
	for _, k := range g.keys {
		if strings.Contains(padded, " "+k+" ") {
			if p, ok := g.nearest(g.landmarks[k], near, maxMeters); ok {
				return p, nil
			}
		}
	}
	// Name inside the key: "Trevi" -> "trevi fountain". Short names are too ambiguous.
	if len(q) >= 4 {
		for _, k := range g.keys {
			if strings.Contains(" "+k+" ", padded) {
				if p, ok := g.nearest(g.landmarks[k], near, maxMeters); ok {
					return p, nil
				}
			}
		}
	}
	return Point{}, ErrGeocodeUnresolvable
}

func (g *Gazetteer) nearest(candidates []Point, near Point, maxMeters float64) (Point, bool) {
	best, bestDist := Point{}, math.MaxFloat64
	for _, c := range candidates {
		d := Distance(near, c)
		if maxMeters > 0 && d > maxMeters {
			continue
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist != math.MaxFloat64
}

// LoadGeoJSON merges Point features from a GeoJSON FeatureCollection.
// Features need a "name" property; "aliases" (string array) and
// "kind": "city" are optional.
func (g *Gazetteer) LoadGeoJSON(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read gazetteer %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse gazetteer %s: %w", path, err)
	}

	n := 0
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		name := getStringProp(f.Properties, "name")
		if name == "" {
			continue
		}
		p := Point{Lat: pt.Lat(), Lon: pt.Lon()}
		if !p.Valid() {
			continue
		}
		if getStringProp(f.Properties, "kind") == "city" {
			g.AddCity(name, p)
		} else {
			g.Add(p, append([]string{name}, getStringsProp(f.Properties, "aliases")...)...)
		}
		n++
	}
	return n, nil
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds a name for lookup: accents stripped, lower case,
// punctuation turned into single spaces.
func Normalize(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	fields := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func getStringProp(props geojson.Properties, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func getStringsProp(props geojson.Properties, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
