package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"itinera/pkg/db"
	"itinera/pkg/store"
)

const fixtureStatePrefix = "catalog_fixture_mtime:"

// Store is what maintenance needs from the repository.
type Store interface {
	store.CatalogWriter
	store.StateStore
}

// Run executes all maintenance tasks: fixture import and cache pruning.
// Failures are logged, never fatal for startup. It blocks until completion.
func Run(ctx context.Context, s Store, d *db.DB, fixtureDir string) error {
	slog.Info("Starting database maintenance...")

	if fixtureDir != "" {
		if err := importFixtures(ctx, s, fixtureDir); err != nil {
			slog.Error("Catalog fixture import failed", "error", err)
		} else {
			slog.Info("Catalog fixture check completed")
		}
	}

	n, err := d.PruneCache(time.Now())
	if err != nil {
		slog.Error("Cache pruning failed", "error", err)
	} else {
		slog.Info("Cache pruning completed", "removed", n)
	}

	return nil
}

// importFixtures imports every *.yaml fixture in dir whose modification time
// differs from the one recorded at the previous import.
func importFixtures(ctx context.Context, s Store, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat fixture: %w", err)
		}

		stateKey := fixtureStatePrefix + filepath.Base(path)
		mtime := info.ModTime().UTC().Format(time.RFC3339Nano)
		if stored, found := s.GetState(ctx, stateKey); found && stored == mtime {
			continue
		}

		f, err := LoadFixture(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		places, products, err := ImportFixture(ctx, s, f)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		slog.Info("Imported catalog fixture", "path", path, "city", f.City.ID, "places", places, "products", products)

		if err := s.SetState(ctx, stateKey, mtime); err != nil {
			return fmt.Errorf("failed to update state: %w", err)
		}
	}
	return nil
}
