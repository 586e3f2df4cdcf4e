package routing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-nain/pkg/geo"

	_ "modernc.org/sqlite"
)

// GeocodeCache stores geocoder answers by key.
type GeocodeCache interface {
	Get(ctx context.Context, key string) (Place, bool, error)
	Put(ctx context.Context, key string, p Place) error
}

// SQLiteCache is a GeocodeCache in a SQLite database.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens or creates the cache database at path.
// Use ":memory:" for a throwaway cache.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify sqlite cache %q: %w", path, err)
	}

	c := &SQLiteCache{db: db}
	if err := c.init(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) init() error {
	_, err := c.db.Exec(`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		query TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lon REAL NOT NULL,
		lat REAL NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`)
	if err != nil {
		return fmt.Errorf("create geocode_cache table: %w", err)
	}
	return nil
}

// Get returns the cached place for key.
func (c *SQLiteCache) Get(ctx context.Context, key string) (Place, bool, error) {
	var p Place
	err := c.db.QueryRowContext(ctx,
		`SELECT name, lon, lat FROM geocode_cache WHERE query = ?;`, key,
	).Scan(&p.Name, &p.Location.Lon, &p.Location.Lat)
	if errors.Is(err, sql.ErrNoRows) {
		return Place{}, false, nil
	}
	if err != nil {
		return Place{}, false, fmt.Errorf("get geocode cache: %w", err)
	}
	return p, true, nil
}

// Put stores p under key, replacing any previous entry.
func (c *SQLiteCache) Put(ctx context.Context, key string, p Place) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("insert geocode cache: empty key")
	}
	_, err := c.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO geocode_cache (query, name, lon, lat)
	VALUES (?, ?, ?, ?);
	`, key, p.Name, p.Location.Lon, p.Location.Lat)
	if err != nil {
		return fmt.Errorf("insert geocode cache %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// CachedGeocoder consults a cache before the wrapped geocoder.
type CachedGeocoder struct {
	next   Geocoder
	cache  GeocodeCache
	logger *slog.Logger
}

// NewCachedGeocoder wraps g with cache.
func NewCachedGeocoder(g Geocoder, cache GeocodeCache, logger *slog.Logger) *CachedGeocoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedGeocoder{next: g, cache: cache, logger: logger.With("component", "routing.cache")}
}

// CacheKey normalizes a query and snaps near to a grid of roughly one
// kilometer, so the same phrase in another neighborhood is looked up again.
func CacheKey(query string, near geo.Point) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("%s@%.2f,%.2f", q, near.Lat, near.Lon)
}

// Geocode implements Geocoder. Cache failures are logged and ignored.
func (c *CachedGeocoder) Geocode(ctx context.Context, query string, near geo.Point) (Place, error) {
	key := CacheKey(query, near)

	p, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("geocode cache read failed", "error", err)
	}
	if ok {
		c.logger.Debug("geocode cache hit", "query", query)
		return p, nil
	}

	p, err = c.next.Geocode(ctx, query, near)
	if err != nil {
		return Place{}, err
	}

	if err := c.cache.Put(ctx, key, p); err != nil {
		c.logger.Warn("geocode cache write failed", "error", err)
	}
	return p, nil
}

var (
	_ GeocodeCache = (*SQLiteCache)(nil)
	_ Geocoder     = (*CachedGeocoder)(nil)
)
