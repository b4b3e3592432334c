package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/pkg/model"
	"itinera/pkg/tracker"
)

type fakeStore struct {
	city     *model.City
	places   []model.CatalogPlace
	products []model.CatalogProduct
	zones    []model.Zone
	err      error
	reads    atomic.Int32
}

func (f *fakeStore) GetCity(context.Context, string) (*model.City, error) {
	f.reads.Add(1)
	return f.city, nil
}

func (f *fakeStore) ListPlaces(_ context.Context, cityID, status string) ([]model.CatalogPlace, error) {
	f.reads.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	var out []model.CatalogPlace
	for _, p := range f.places {
		if p.CityID == cityID && status == model.StatusApproved {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListProducts(context.Context, string, string) ([]model.CatalogProduct, error) {
	f.reads.Add(1)
	return f.products, nil
}

func (f *fakeStore) ListZones(context.Context, string) ([]model.Zone, error) {
	f.reads.Add(1)
	return f.zones, nil
}

type mapCache struct {
	data map[string][]byte
}

func (m *mapCache) GetCache(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mapCache) SetCache(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.data[key] = val
	return nil
}

func (m *mapCache) DeleteCache(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func romeStore() *fakeStore {
	return &fakeStore{
		city: &model.City{ID: "rome", Name: "Rome"},
		places: []model.CatalogPlace{
			{ID: "colosseum", CityID: "rome", Name: "Colosseum", Type: model.PlaceAttraction, ZoneID: "z1"},
			{ID: "bad", CityID: "rome", Name: "Broken", Type: "castle"},
			{ID: "roscioli", CityID: "rome", Name: "Roscioli", Type: model.PlaceRestaurant},
		},
		products: []model.CatalogProduct{
			{ID: "tour", CityID: "rome", Title: "Underground tour", Type: model.ProductGuidedTour, Price: 4500},
			{ID: "foreign", CityID: "milan", Title: "Duomo roof", Type: model.ProductTicket},
		},
		zones: []model.Zone{{ID: "z1", CityID: "rome", Name: "Monti"}},
	}
}

func TestLoad(t *testing.T) {
	st := romeStore()
	l := NewLoader(st, nil, 0, nil)

	snap, err := l.Load(context.Background(), "rome")
	require.NoError(t, err)

	assert.Equal(t, "Rome", snap.City.Name)
	require.Len(t, snap.Places, 2, "invalid place type must be skipped")
	assert.Equal(t, "colosseum", snap.Places[0].ID)
	assert.Equal(t, "roscioli", snap.Places[1].ID)
	require.Len(t, snap.Products, 1, "rows of another city must be skipped")

	p, ok := snap.Place("colosseum")
	require.True(t, ok)
	assert.Equal(t, "Colosseum", p.Name)
	_, ok = snap.Place("bad")
	assert.False(t, ok)
	_, ok = snap.Product("tour")
	assert.True(t, ok)
	assert.Equal(t, "Monti", snap.ZoneName("z1"))
	assert.Equal(t, "", snap.ZoneName("nope"))
}

func TestLoad_NoCatalog(t *testing.T) {
	st := romeStore()
	l := NewLoader(st, nil, 0, nil)

	_, err := l.Load(context.Background(), "naples")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCatalog))

	var nce *NoCatalogError
	require.ErrorAs(t, err, &nce)
	assert.Equal(t, "naples", nce.CityID)
}

func TestLoad_StoreError(t *testing.T) {
	st := romeStore()
	st.err = errors.New("disk on fire")
	l := NewLoader(st, nil, 0, nil)

	_, err := l.Load(context.Background(), "rome")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCatalog))
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestLoad_MissingCityRow(t *testing.T) {
	st := romeStore()
	st.city = nil
	snap, err := NewLoader(st, nil, 0, nil).Load(context.Background(), "rome")
	require.NoError(t, err)
	assert.Equal(t, "rome", snap.City.Name)
}

func TestLoad_Cache(t *testing.T) {
	st := romeStore()
	mc := &mapCache{data: map[string][]byte{}}
	tr := tracker.New()
	l := NewLoader(st, mc, time.Minute, tr)
	ctx := context.Background()

	first, err := l.Load(ctx, "rome")
	require.NoError(t, err)
	readsAfterFirst := st.reads.Load()
	assert.Equal(t, int32(4), readsAfterFirst)

	second, err := l.Load(ctx, "rome")
	require.NoError(t, err)
	assert.Equal(t, readsAfterFirst, st.reads.Load(), "second load must be served from cache")
	assert.Equal(t, first.Places, second.Places)
	_, ok := second.Place("roscioli")
	assert.True(t, ok, "indexes are rebuilt after decoding")

	stats := tr.Snapshot()["catalog"]
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)

	require.NoError(t, l.Invalidate(ctx, "rome"))
	_, err = l.Load(ctx, "rome")
	require.NoError(t, err)
	assert.Equal(t, 2*readsAfterFirst, st.reads.Load())
}

func TestLoad_CorruptCacheEntry(t *testing.T) {
	st := romeStore()
	mc := &mapCache{data: map[string][]byte{"catalog:rome": []byte("not json")}}
	snap, err := NewLoader(st, mc, time.Minute, nil).Load(context.Background(), "rome")
	require.NoError(t, err)
	assert.Len(t, snap.Places, 2)
}
