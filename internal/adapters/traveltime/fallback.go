package traveltime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/ports"
)

// Fallback answers from primary and consults secondary when primary fails
// for reasons other than an unreachable destination or caller cancellation.
type Fallback struct {
	primary   ports.TravelTimeOracle
	secondary ports.TravelTimeOracle
}

// NewFallback chains primary and secondary.
func NewFallback(primary, secondary ports.TravelTimeOracle) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

// TravelTime implements ports.TravelTimeOracle.
func (f *Fallback) TravelTime(ctx context.Context, origin domain.GeoPoint, mode domain.TravelMode, destination domain.GeoPoint) (float64, error) {
	minutes, err := f.primary.TravelTime(ctx, origin, mode, destination)
	if err == nil || errors.Is(err, ErrUnreachable) || errors.Is(err, domain.ErrInvalidArgument) || ctx.Err() != nil {
		return minutes, err
	}
	slog.Debug("travel time primary failed, using fallback", "mode", mode, "error", err)
	return f.secondary.TravelTime(ctx, origin, mode, destination)
}

// NewCachedFallback is NewFallback with primary's answers memoized in
// cache. Secondary answers are never stored, so a recovered primary is
// asked again on the next call. A nil cache or non-positive ttl disables
// caching.
func NewCachedFallback(primary, secondary ports.TravelTimeOracle, cache ports.CacheService, ttlSeconds int) *Fallback {
	if cache != nil && ttlSeconds > 0 {
		primary = NewCached(primary, cache, ttlSeconds)
	}
	return NewFallback(primary, secondary)
}
