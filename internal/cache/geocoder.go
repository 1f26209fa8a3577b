package cache

import (
	"context"
	"log/slog"

	"github.com/neexbeast/routecost/internal/location"
)

// Geocoder resolves an address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (location.Coordinate, error)
}

// CachedGeocoder serves repeated addresses from Redis and falls through to next on a miss.
// Only successful lookups are cached. Redis failures are logged and never fail a lookup.
type CachedGeocoder struct {
	next   Geocoder
	cache  *Cache
	logger *slog.Logger
}

// NewCachedGeocoder wraps next with c.
func NewCachedGeocoder(next Geocoder, c *Cache, logger *slog.Logger) *CachedGeocoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedGeocoder{next: next, cache: c, logger: logger}
}

// Geocode implements Geocoder.
func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (location.Coordinate, error) {
	cached, err := g.cache.Get(ctx, address)
	if err != nil {
		g.logger.Warn("geocode cache read failed", "address", address, "error", err)
	}
	if cached != nil {
		return *cached, nil
	}

	coord, err := g.next.Geocode(ctx, address)
	if err != nil {
		return location.Coordinate{}, err
	}

	if err := g.cache.Set(ctx, address, coord); err != nil {
		g.logger.Warn("geocode cache write failed", "address", address, "error", err)
	}

	return coord, nil
}
