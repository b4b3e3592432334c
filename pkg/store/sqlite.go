package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"itinera/pkg/db"
	"itinera/pkg/model"
)

// Store defines the repository interface.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	CatalogStore
	CatalogWriter
	CacheStore
	StateStore

	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db  *db.DB
	now func() time.Time
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d, now: time.Now}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Catalog ---

func (s *SQLiteStore) GetCity(ctx context.Context, cityID string) (*model.City, error) {
	var c model.City
	var country sql.NullString
	var lat, lng sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, country, lat, lng FROM cities WHERE id = ?`, cityID,
	).Scan(&c.ID, &c.Name, &country, &lat, &lng)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Country = country.String
	c.Lat = nullFloat(lat)
	c.Lng = nullFloat(lng)
	return &c, nil
}

func (s *SQLiteStore) ListPlaces(ctx context.Context, cityID, status string) ([]model.CatalogPlace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, city_id, name, type, zone_id, address, local_one_liner, duration_min, price_tier,
		        cuisine, indoor_outdoor, crowd_level, local_score, best_times, lat, lng
		 FROM places WHERE city_id = ? AND status = ?
		 ORDER BY position, rowid`, cityID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CatalogPlace
	for rows.Next() {
		var p model.CatalogPlace
		var zone, addr, oneLiner, cuisine, indoor, bestTimes sql.NullString
		var lat, lng sql.NullFloat64
		if err := rows.Scan(
			&p.ID, &p.CityID, &p.Name, &p.Type, &zone, &addr, &oneLiner, &p.DurationMin, &p.PriceTier,
			&cuisine, &indoor, &p.CrowdLevel, &p.LocalScore, &bestTimes, &lat, &lng,
		); err != nil {
			return nil, err
		}
		p.ZoneID = zone.String
		p.Address = addr.String
		p.LocalOneLiner = oneLiner.String
		p.Cuisine = cuisine.String
		p.IndoorOutdoor = indoor.String
		p.Lat = nullFloat(lat)
		p.Lng = nullFloat(lng)
		if bestTimes.Valid && bestTimes.String != "" {
			if err := json.Unmarshal([]byte(bestTimes.String), &p.BestTimes); err != nil {
				slog.Warn("Store: unreadable best_times, ignoring", "place", p.ID, "error", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListProducts(ctx context.Context, cityID, status string) ([]model.CatalogProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, city_id, title, pitch, price, duration_min, type, time_buckets
		 FROM products WHERE city_id = ? AND status = ?
		 ORDER BY position, rowid`, cityID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CatalogProduct
	for rows.Next() {
		var p model.CatalogProduct
		var pitch, buckets sql.NullString
		if err := rows.Scan(&p.ID, &p.CityID, &p.Title, &pitch, &p.Price, &p.DurationMin, &p.Type, &buckets); err != nil {
			return nil, err
		}
		p.Pitch = pitch.String
		if buckets.Valid && buckets.String != "" {
			if err := json.Unmarshal([]byte(buckets.String), &p.TimeBuckets); err != nil {
				slog.Warn("Store: unreadable time_buckets, ignoring", "product", p.ID, "error", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListZones(ctx context.Context, cityID string) ([]model.Zone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, city_id, name, description FROM city_zones WHERE city_id = ? ORDER BY position, rowid`, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Zone
	for rows.Next() {
		var z model.Zone
		var desc sql.NullString
		if err := rows.Scan(&z.ID, &z.CityID, &z.Name, &desc); err != nil {
			return nil, err
		}
		z.Description = desc.String
		out = append(out, z)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveCity(ctx context.Context, c *model.City) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cities (id, name, country, lat, lng) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Country, c.Lat, c.Lng)
	return err
}

func (s *SQLiteStore) SaveZone(ctx context.Context, z *model.Zone, position int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO city_zones (id, city_id, name, description, position) VALUES (?, ?, ?, ?, ?)`,
		z.ID, z.CityID, z.Name, z.Description, position)
	return err
}

func (s *SQLiteStore) SavePlace(ctx context.Context, r *PlaceRecord) error {
	p := r.Place
	bestTimes, err := json.Marshal(p.BestTimes)
	if err != nil {
		return fmt.Errorf("encode best_times: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO places (id, city_id, status, name, type, zone_id, address, local_one_liner,
		        duration_min, price_tier, cuisine, indoor_outdoor, crowd_level, local_score, best_times, lat, lng, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CityID, r.Status, p.Name, string(p.Type), p.ZoneID, p.Address, p.LocalOneLiner,
		p.DurationMin, p.PriceTier, p.Cuisine, p.IndoorOutdoor, p.CrowdLevel, p.LocalScore, string(bestTimes), p.Lat, p.Lng, r.Position)
	return err
}

func (s *SQLiteStore) SaveProduct(ctx context.Context, r *ProductRecord) error {
	p := r.Product
	buckets, err := json.Marshal(p.TimeBuckets)
	if err != nil {
		return fmt.Errorf("encode time_buckets: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO products (id, city_id, status, title, pitch, price, duration_min, type, time_buckets, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CityID, r.Status, p.Title, p.Pitch, p.Price, p.DurationMin, string(p.Type), string(buckets), r.Position)
	return err
}

// ClearCity removes every zone, place and product of a city in one transaction.
// The city row itself is kept.
func (s *SQLiteStore) ClearCity(ctx context.Context, cityID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"city_zones", "places", "products"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE city_id = ?", cityID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// --- Cache ---

func (s *SQLiteStore) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, "SELECT value, expires_at FROM cache WHERE key = ?", key).Scan(&val, &expiresAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Store: cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	if expiresAt > 0 && s.now().Unix() >= expiresAt {
		return nil, false
	}

	// Transparent decompression
	if len(val) > 2 && val[0] == 0x1f && val[1] == 0x8b {
		if decompressed, err := decompress(val); err == nil {
			return decompressed, true
		}
	}
	return val, true
}

// SetCache stores val under key. A zero ttl never expires.
func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if compressed, err := compress(val); err == nil {
		val = compressed
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (key, value, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		key, val, expiresAt, s.now().UTC())
	return err
}

func (s *SQLiteStore) DeleteCache(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key)
	return err
}

// --- Compression Pooling ---

var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}
)

func compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	w := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// buf goes back to the pool, so copy out.
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, s.now().UTC())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
