package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"campus_cruiser/internal/models"
)

const cacheKeyPrefix = "geocode:"

// Cached is a read-through redis cache in front of another Geocoder.
// Only successful resolutions are cached; redis failures fall through to the
// wrapped geocoder.
type Cached struct {
	next Geocoder
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCached(next Geocoder, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(address string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

func (c *Cached) Resolve(ctx context.Context, address string) (models.Position, error) {
	key := cacheKey(address)

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var pos models.Position
		if jsonErr := json.Unmarshal([]byte(raw), &pos); jsonErr == nil {
			return pos, nil
		}
		logrus.WithField("key", key).Warn("Discarding unreadable geocode cache entry")
	case errors.Is(err, redis.Nil):
	default:
		logrus.WithError(err).WithField("key", key).Warn("Geocode cache read failed")
	}

	pos, err := c.next.Resolve(ctx, address)
	if err != nil {
		return models.Position{}, err
	}

	if b, jsonErr := json.Marshal(pos); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, b, c.ttl).Err(); setErr != nil {
			logrus.WithError(setErr).WithField("key", key).Warn("Geocode cache write failed")
		}
	}
	return pos, nil
}
