package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/routecost/internal/location"
)

// DefaultTTL is how long a geocoded address stays cached.
const DefaultTTL = 24 * time.Hour

// Cache wraps a Redis client and provides typed get/set/delete for geocoded coordinates.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache. A non-positive ttl falls back to DefaultTTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// key returns the Redis key for the given address.
// Whitespace runs are collapsed so cosmetic differences share an entry.
func key(address string) string {
	return "geocode:" + strings.Join(strings.Fields(address), " ")
}

// Get retrieves a coordinate from cache.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, address string) (*location.Coordinate, error) {
	val, err := c.client.Get(ctx, key(address)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for address %q: %w", address, err)
	}

	var coord location.Coordinate
	if err := json.Unmarshal([]byte(val), &coord); err != nil {
		return nil, fmt.Errorf("unmarshaling cached coordinate for address %q: %w", address, err)
	}

	return &coord, nil
}

// Set stores a coordinate in cache with the configured TTL.
func (c *Cache) Set(ctx context.Context, address string, coord location.Coordinate) error {
	b, err := json.Marshal(coord)
	if err != nil {
		return fmt.Errorf("marshaling coordinate for address %q: %w", address, err)
	}

	if err := c.client.Set(ctx, key(address), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for address %q: %w", address, err)
	}

	return nil
}

// Delete removes the cached entry for the given address.
func (c *Cache) Delete(ctx context.Context, address string) error {
	if err := c.client.Del(ctx, key(address)).Err(); err != nil {
		return fmt.Errorf("cache delete for address %q: %w", address, err)
	}
	return nil
}
