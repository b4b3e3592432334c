package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"itinera/pkg/db"
	"itinera/pkg/model"
	"itinera/pkg/store"
)

const romeFixture = `
city:
  id: rome
  name: Rome
  country: IT
  lat: 41.9028
  lng: 12.4964
zones:
  - id: monti
    name: Monti
places:
  - id: colosseum
    name: Colosseum
    type: attraction
    zone: monti
    lat: 41.8902
    lng: 12.4922
  - id: roscioli
    name: Roscioli
    type: restaurant
    cuisine: roman
  - id: hidden
    status: draft
    name: Not Yet
    type: bar
products:
  - id: underground
    title: Colosseum Underground Tour
    price: 6500
    type: guided_tour
    time_buckets: [morning, afternoon]
`

func TestMaintenance(t *testing.T) {
	tempDir := t.TempDir()
	d, err := db.Init(filepath.Join(tempDir, "maint_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	s := store.NewSQLiteStore(d)
	ctx := context.Background()

	fixtureDir := filepath.Join(tempDir, "catalog")
	if err := os.MkdirAll(fixtureDir, 0o755); err != nil {
		t.Fatal(err)
	}
	fixturePath := filepath.Join(fixtureDir, "rome.yaml")
	if err := os.WriteFile(fixturePath, []byte(romeFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	// One expired and one live cache row.
	now := time.Now()
	if _, err := d.Exec("INSERT INTO cache (key, value, expires_at) VALUES (?, ?, ?)", "old-key", "old-val", now.Add(-time.Hour).Unix()); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec("INSERT INTO cache (key, value, expires_at) VALUES (?, ?, ?)", "new-key", "new-val", now.Add(time.Hour).Unix()); err != nil {
		t.Fatal(err)
	}

	if err := Run(ctx, s, d, fixtureDir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	places, err := s.ListPlaces(ctx, "rome", model.StatusApproved)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 approved places, got %d", len(places))
	}
	if places[0].ID != "colosseum" || places[0].ZoneID != "monti" {
		t.Errorf("unexpected first place: %+v", places[0])
	}

	products, err := s.ListProducts(ctx, "rome", model.StatusApproved)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].Type != model.ProductGuidedTour {
		t.Errorf("unexpected products: %+v", products)
	}

	if _, found := s.GetState(ctx, fixtureStatePrefix+"rome.yaml"); !found {
		t.Error("state not updated after import")
	}

	var count int
	if err := d.QueryRow("SELECT count(*) FROM cache WHERE key = ?", "old-key").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("expired cache row should be pruned")
	}
	if err := d.QueryRow("SELECT count(*) FROM cache WHERE key = ?", "new-key").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Error("live cache row should be kept")
	}

	// An unchanged fixture is not re-imported: a manual edit to the DB survives.
	if _, err := d.Exec("UPDATE places SET name = 'Edited' WHERE id = 'colosseum'"); err != nil {
		t.Fatal(err)
	}
	if err := Run(ctx, s, d, fixtureDir); err != nil {
		t.Fatal(err)
	}
	places, _ = s.ListPlaces(ctx, "rome", model.StatusApproved)
	if places[0].Name != "Edited" {
		t.Errorf("unchanged fixture was re-imported, name = %q", places[0].Name)
	}
}

func TestLoadFixture_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("places: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Error("expected error for fixture without city")
	}
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
