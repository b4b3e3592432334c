package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"itinera/pkg/cache"
	"itinera/pkg/model"
	"itinera/pkg/store"
	"itinera/pkg/tracker"
	"itinera/pkg/validation"
)

const trackerName = "catalog"

// Loader reads a city's approved catalog through the store, optionally via a cache.
type Loader struct {
	st      store.CatalogStore
	cache   cache.Cacher
	ttl     time.Duration
	v       *validation.Validator
	tracker *tracker.Tracker
}

// NewLoader creates a loader. A nil cacher disables caching.
func NewLoader(st store.CatalogStore, c cache.Cacher, ttl time.Duration, t *tracker.Tracker) *Loader {
	if c == nil {
		c = cache.Noop{}
	}
	return &Loader{st: st, cache: c, ttl: ttl, v: validation.New(), tracker: t}
}

func cacheKey(cityID string) string {
	return "catalog:" + cityID
}

// Load returns the approved snapshot for cityID. Places, products, zones and the
// city row are read concurrently. A city without approved places yields
// *NoCatalogError.
func (l *Loader) Load(ctx context.Context, cityID string) (*Snapshot, error) {
	if snap, ok := l.fromCache(ctx, cityID); ok {
		return snap, nil
	}

	var (
		city     *model.City
		places   []model.CatalogPlace
		products []model.CatalogProduct
		zones    []model.Zone
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		city, err = l.st.GetCity(gctx, cityID)
		return err
	})
	g.Go(func() (err error) {
		places, err = l.st.ListPlaces(gctx, cityID, model.StatusApproved)
		return err
	})
	g.Go(func() (err error) {
		products, err = l.st.ListProducts(gctx, cityID, model.StatusApproved)
		return err
	})
	g.Go(func() (err error) {
		zones, err = l.st.ListZones(gctx, cityID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load catalog for %s: %w", cityID, err)
	}

	places = keepValid(l.v, cityID, "place", places, func(p model.CatalogPlace) (string, string) { return p.ID, p.CityID })
	products = keepValid(l.v, cityID, "product", products, func(p model.CatalogProduct) (string, string) { return p.ID, p.CityID })
	zones = keepValid(l.v, cityID, "zone", zones, func(z model.Zone) (string, string) { return z.ID, z.CityID })

	if len(places) == 0 {
		return nil, &NoCatalogError{CityID: cityID}
	}

	if city == nil {
		slog.Warn("Catalog: city row missing, using id as name", "city", cityID)
		city = &model.City{ID: cityID, Name: cityID}
	}

	snap := NewSnapshot(*city, places, products, zones)
	l.toCache(ctx, snap)

	slog.Debug("Catalog loaded", "city", cityID, "places", len(places), "products", len(products), "zones", len(zones))
	return snap, nil
}

// Invalidate drops the cached snapshot for a city.
func (l *Loader) Invalidate(ctx context.Context, cityID string) error {
	return l.cache.DeleteCache(ctx, cacheKey(cityID))
}

func (l *Loader) fromCache(ctx context.Context, cityID string) (*Snapshot, bool) {
	data, ok := l.cache.GetCache(ctx, cacheKey(cityID))
	if !ok {
		l.trackMiss()
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil || len(snap.Places) == 0 {
		slog.Warn("Catalog: discarding unreadable cache entry", "city", cityID, "error", err)
		l.trackMiss()
		return nil, false
	}
	snap.index()
	if l.tracker != nil {
		l.tracker.TrackCacheHit(trackerName)
	}
	return &snap, true
}

func (l *Loader) toCache(ctx context.Context, snap *Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := l.cache.SetCache(ctx, cacheKey(snap.City.ID), data, l.ttl); err != nil {
		slog.Warn("Catalog: cache write failed", "city", snap.City.ID, "error", err)
	}
}

func (l *Loader) trackMiss() {
	if l.tracker != nil {
		l.tracker.TrackCacheMiss(trackerName)
	}
}

// keepValid drops rows that fail validation or belong to another city.
func keepValid[T any](v *validation.Validator, cityID, kind string, rows []T, ident func(T) (id, city string)) []T {
	out := rows[:0:0]
	for _, r := range rows {
		id, city := ident(r)
		if city != cityID {
			slog.Warn("Catalog: skipping row from another city", "kind", kind, "id", id, "city", city)
			continue
		}
		if err := v.Validate(r); err != nil {
			slog.Warn("Catalog: skipping invalid row", "kind", kind, "id", id, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out
}
