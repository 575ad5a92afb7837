package nominatim

import (
	"context"
	"fmt"
	"math"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// coordKey is a coordinate rounded to micro-degrees, about 11 cm.
type coordKey struct {
	lat, lon int64
}

func keyFor(lat, lon float64) coordKey {
	return coordKey{lat: int64(math.Round(lat * 1e6)), lon: int64(math.Round(lon * 1e6))}
}

// CachedResolver wraps a LocationResolver with an in-memory LRU cache of
// resolved places. Only successful lookups are stored.
type CachedResolver struct {
	inner   domain.LocationResolver
	cache   *lru.Cache[coordKey, domain.Place]
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator holding up to maxEntries places.
func NewCachedResolver(inner domain.LocationResolver, maxEntries int, metrics *observability.Metrics) (*CachedResolver, error) {
	cache, err := lru.NewWithEvict(maxEntries, func(coordKey, domain.Place) {
		metrics.LocationCache.WithLabelValues("evict").Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("create location cache: %w", err)
	}
	return &CachedResolver{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedResolver) LocationName(ctx context.Context, lat, lon float64) (domain.Place, error) {
	key := keyFor(lat, lon)
	if place, ok := c.cache.Get(key); ok {
		c.metrics.LocationCache.WithLabelValues("hit").Inc()
		return place, nil
	}
	c.metrics.LocationCache.WithLabelValues("miss").Inc()

	place, err := c.inner.LocationName(ctx, lat, lon)
	if err != nil {
		return place, err
	}
	c.cache.Add(key, place)
	return place, nil
}

// Len reports the number of cached places.
func (c *CachedResolver) Len() int { return c.cache.Len() }
