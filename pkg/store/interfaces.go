package store

import (
	"context"
	"time"

	"itinera/pkg/model"
)

// CatalogStore is the read side of the catalog backend.
// Rows are returned in catalog order (position, then insertion).
type CatalogStore interface {
	GetCity(ctx context.Context, cityID string) (*model.City, error)
	ListPlaces(ctx context.Context, cityID, status string) ([]model.CatalogPlace, error)
	ListProducts(ctx context.Context, cityID, status string) ([]model.CatalogProduct, error)
	ListZones(ctx context.Context, cityID string) ([]model.Zone, error)
}

// PlaceRecord is a place as stored, with its moderation status.
type PlaceRecord struct {
	Place    model.CatalogPlace
	Status   string
	Position int
}

// ProductRecord is a product as stored, with its moderation status.
type ProductRecord struct {
	Product  model.CatalogProduct
	Status   string
	Position int
}

// CatalogWriter is the write side used by seeding and maintenance.
type CatalogWriter interface {
	SaveCity(ctx context.Context, c *model.City) error
	SaveZone(ctx context.Context, z *model.Zone, position int) error
	SavePlace(ctx context.Context, r *PlaceRecord) error
	SaveProduct(ctx context.Context, r *ProductRecord) error
	ClearCity(ctx context.Context, cityID string) error
}

// CacheStore handles generic key-value caching.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DeleteCache(ctx context.Context, key string) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
