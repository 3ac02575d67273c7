package traveltime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/ports"
	"github.com/anupsamy/squadup/internal/pkg/metrics"
)

const unreachableMarker = "unreachable"

// Cached memoizes another oracle. Coordinates are rounded to four decimals
// (about 11 m) so nearby candidates share entries. Transport errors are not
// cached; unreachable answers are.
type Cached struct {
	next       ports.TravelTimeOracle
	cache      ports.CacheService
	ttlSeconds int
}

// NewCached wraps next with cache.
func NewCached(next ports.TravelTimeOracle, cache ports.CacheService, ttlSeconds int) *Cached {
	return &Cached{next: next, cache: cache, ttlSeconds: ttlSeconds}
}

func cacheKey(origin domain.GeoPoint, mode domain.TravelMode, destination domain.GeoPoint) string {
	return fmt.Sprintf("tt:%s:%.4f,%.4f:%.4f,%.4f", mode, origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}

// TravelTime implements ports.TravelTimeOracle.
func (c *Cached) TravelTime(ctx context.Context, origin domain.GeoPoint, mode domain.TravelMode, destination domain.GeoPoint) (float64, error) {
	key := cacheKey(origin, mode, destination)

	if data, err := c.cache.Get(ctx, key); err == nil {
		if string(data) == unreachableMarker {
			metrics.CacheHits.WithLabelValues("travel_time").Inc()
			return 0, fmt.Errorf("cached: %w", ErrUnreachable)
		}
		if minutes, err := strconv.ParseFloat(string(data), 64); err == nil {
			metrics.CacheHits.WithLabelValues("travel_time").Inc()
			return minutes, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("travel_time").Inc()

	minutes, err := c.next.TravelTime(ctx, origin, mode, destination)
	switch {
	case err == nil:
		c.store(ctx, key, strconv.FormatFloat(minutes, 'f', -1, 64))
	case errors.Is(err, ErrUnreachable):
		c.store(ctx, key, unreachableMarker)
	}
	return minutes, err
}

func (c *Cached) store(ctx context.Context, key, value string) {
	if err := c.cache.Set(ctx, key, []byte(value), c.ttlSeconds); err != nil {
		slog.Debug("travel time cache write failed", "key", key, "error", err)
	}
}
