package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"itinera/pkg/model"
	"itinera/pkg/store"
)

// Fixture is a city catalog as written by curators in YAML.
type Fixture struct {
	City     FixtureCity      `yaml:"city"`
	Zones    []FixtureZone    `yaml:"zones"`
	Places   []FixturePlace   `yaml:"places"`
	Products []FixtureProduct `yaml:"products"`
}

type FixtureCity struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Country string   `yaml:"country"`
	Lat     *float64 `yaml:"lat"`
	Lng     *float64 `yaml:"lng"`
}

type FixtureZone struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type FixturePlace struct {
	ID            string   `yaml:"id"`
	Status        string   `yaml:"status"`
	Name          string   `yaml:"name"`
	Type          string   `yaml:"type"`
	Zone          string   `yaml:"zone"`
	Address       string   `yaml:"address"`
	LocalOneLiner string   `yaml:"local_one_liner"`
	DurationMin   int      `yaml:"duration_min"`
	PriceTier     int      `yaml:"price_tier"`
	Cuisine       string   `yaml:"cuisine"`
	IndoorOutdoor string   `yaml:"indoor_outdoor"`
	CrowdLevel    int      `yaml:"crowd_level"`
	LocalScore    int      `yaml:"local_score"`
	BestTimes     []string `yaml:"best_times"`
	Lat           *float64 `yaml:"lat"`
	Lng           *float64 `yaml:"lng"`
}

type FixtureProduct struct {
	ID          string   `yaml:"id"`
	Status      string   `yaml:"status"`
	Title       string   `yaml:"title"`
	Pitch       string   `yaml:"pitch"`
	Price       int64    `yaml:"price"`
	DurationMin int      `yaml:"duration_min"`
	Type        string   `yaml:"type"`
	TimeBuckets []string `yaml:"time_buckets"`
}

// LoadFixture reads and sanity-checks a catalog fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if f.City.ID == "" || f.City.Name == "" {
		return nil, errors.New("fixture: city.id and city.name are required")
	}
	return &f, nil
}

// ImportFixture replaces the stored catalog of the fixture's city.
// Entries without a status are imported as approved.
func ImportFixture(ctx context.Context, w store.CatalogWriter, f *Fixture) (places, products int, err error) {
	cityID := f.City.ID
	if err := w.SaveCity(ctx, &model.City{
		ID: cityID, Name: f.City.Name, Country: f.City.Country, Lat: f.City.Lat, Lng: f.City.Lng,
	}); err != nil {
		return 0, 0, fmt.Errorf("save city: %w", err)
	}
	if err := w.ClearCity(ctx, cityID); err != nil {
		return 0, 0, fmt.Errorf("clear city: %w", err)
	}

	for i, z := range f.Zones {
		if err := w.SaveZone(ctx, &model.Zone{ID: z.ID, CityID: cityID, Name: z.Name, Description: z.Description}, i); err != nil {
			return 0, 0, fmt.Errorf("save zone %s: %w", z.ID, err)
		}
	}

	for i := range f.Places {
		p := &f.Places[i]
		rec := &store.PlaceRecord{
			Place: model.CatalogPlace{
				ID: p.ID, CityID: cityID, Name: p.Name, Type: model.PlaceType(p.Type), ZoneID: p.Zone,
				Address: p.Address, LocalOneLiner: p.LocalOneLiner, DurationMin: p.DurationMin,
				PriceTier: p.PriceTier, Cuisine: p.Cuisine, IndoorOutdoor: p.IndoorOutdoor,
				CrowdLevel: p.CrowdLevel, LocalScore: p.LocalScore, BestTimes: p.BestTimes,
				Lat: p.Lat, Lng: p.Lng,
			},
			Status:   statusOrApproved(p.Status),
			Position: i,
		}
		if err := w.SavePlace(ctx, rec); err != nil {
			return places, products, fmt.Errorf("save place %s: %w", p.ID, err)
		}
		places++
	}

	for i := range f.Products {
		p := &f.Products[i]
		buckets := make([]model.TimeBucket, 0, len(p.TimeBuckets))
		for _, b := range p.TimeBuckets {
			buckets = append(buckets, model.TimeBucket(b))
		}
		rec := &store.ProductRecord{
			Product: model.CatalogProduct{
				ID: p.ID, CityID: cityID, Title: p.Title, Pitch: p.Pitch, Price: p.Price,
				DurationMin: p.DurationMin, Type: model.ProductType(p.Type), TimeBuckets: buckets,
			},
			Status:   statusOrApproved(p.Status),
			Position: i,
		}
		if err := w.SaveProduct(ctx, rec); err != nil {
			return places, products, fmt.Errorf("save product %s: %w", p.ID, err)
		}
		products++
	}

	return places, products, nil
}

func statusOrApproved(s string) string {
	if s == "" {
		return model.StatusApproved
	}
	return s
}
