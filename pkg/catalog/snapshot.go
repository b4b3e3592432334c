// Package catalog loads the approved per-city catalog the engine plans against.
package catalog

import (
	"errors"
	"fmt"

	"itinera/pkg/model"
)

// ErrNoCatalog matches any *NoCatalogError.
var ErrNoCatalog = errors.New("no approved catalog")

// NoCatalogError reports a city without a single approved place. Generation
// must stop before the planner is called.
type NoCatalogError struct {
	CityID string
}

func (e *NoCatalogError) Error() string {
	return fmt.Sprintf("city %q has no approved places", e.CityID)
}

func (e *NoCatalogError) Is(target error) bool {
	return target == ErrNoCatalog
}

// Snapshot is the immutable catalog for one generation run.
// Slices keep catalog order; lookups go through the id indexes.
type Snapshot struct {
	City     model.City             `json:"city"`
	Places   []model.CatalogPlace   `json:"places"`
	Products []model.CatalogProduct `json:"products"`
	Zones    []model.Zone           `json:"zones"`

	places   map[string]*model.CatalogPlace
	products map[string]*model.CatalogProduct
	zones    map[string]*model.Zone
}

// NewSnapshot builds a snapshot and its indexes. Duplicate ids keep the first row.
func NewSnapshot(city model.City, places []model.CatalogPlace, products []model.CatalogProduct, zones []model.Zone) *Snapshot {
	s := &Snapshot{City: city, Places: places, Products: products, Zones: zones}
	s.index()
	return s
}

func (s *Snapshot) index() {
	s.places = make(map[string]*model.CatalogPlace, len(s.Places))
	for i := range s.Places {
		if _, dup := s.places[s.Places[i].ID]; !dup {
			s.places[s.Places[i].ID] = &s.Places[i]
		}
	}
	s.products = make(map[string]*model.CatalogProduct, len(s.Products))
	for i := range s.Products {
		if _, dup := s.products[s.Products[i].ID]; !dup {
			s.products[s.Products[i].ID] = &s.Products[i]
		}
	}
	s.zones = make(map[string]*model.Zone, len(s.Zones))
	for i := range s.Zones {
		s.zones[s.Zones[i].ID] = &s.Zones[i]
	}
}

// Place looks up an approved place by id.
func (s *Snapshot) Place(id string) (*model.CatalogPlace, bool) {
	p, ok := s.places[id]
	return p, ok
}

// Product looks up an approved product by id.
func (s *Snapshot) Product(id string) (*model.CatalogProduct, bool) {
	p, ok := s.products[id]
	return p, ok
}

// ZoneName returns the zone's display name, or "" when unknown.
func (s *Snapshot) ZoneName(id string) string {
	if z, ok := s.zones[id]; ok {
		return z.Name
	}
	return ""
}
