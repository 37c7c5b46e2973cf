package geocode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/farescout/internal/quote/domain"
)

const defaultCachePrefix = "geocode:place:"

// CachedGeocoder is a read-through Redis cache in front of another
// Geocoder. Cache failures degrade to an upstream lookup.
type CachedGeocoder struct {
	next   Geocoder
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewCachedGeocoder wraps next with a Redis cache.
func NewCachedGeocoder(next Geocoder, client redis.Cmdable, prefix string, ttl time.Duration) *CachedGeocoder {
	if prefix == "" {
		prefix = defaultCachePrefix
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedGeocoder{next: next, client: client, prefix: prefix, ttl: ttl}
}

// Geocode serves from cache when possible, otherwise resolves upstream and
// stores the result.
func (c *CachedGeocoder) Geocode(ctx context.Context, place string) (domain.GeoPoint, error) {
	key := c.prefix + strings.ToLower(strings.TrimSpace(place))
	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		if point, err := decodePoint(cached); err == nil {
			return point, nil
		}
	}

	point, err := c.next.Geocode(ctx, place)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	_ = c.client.Set(ctx, key, encodePoint(point), c.ttl).Err()
	return point, nil
}

func encodePoint(p domain.GeoPoint) string {
	return fmt.Sprintf("%.7f,%.7f", p.Lat, p.Lng)
}

func decodePoint(s string) (domain.GeoPoint, error) {
	var p domain.GeoPoint
	if _, err := fmt.Sscanf(s, "%f,%f", &p.Lat, &p.Lng); err != nil {
		return domain.GeoPoint{}, err
	}
	return p, nil
}
