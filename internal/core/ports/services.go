package ports

import (
	"context"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// TravelTimeOracle estimates how long a member needs to reach a destination.
// Implementations must be safe for concurrent use. Errors are turned into an
// unreachable (+Inf) sample by the optimizer; they never abort a search.
type TravelTimeOracle interface {
	TravelTime(ctx context.Context, origin domain.GeoPoint, mode domain.TravelMode, destination domain.GeoPoint) (float64, error)
}

// MeetingPointOptimizer searches for a fair meeting point. maxIterations <= 0
// selects the implementation default.
type MeetingPointOptimizer interface {
	FindOptimalPoint(ctx context.Context, members []domain.MemberLocation, maxIterations int) (domain.OptimizationResult, error)
}

// VenueSearch finds places of a category around a point, best match first.
type VenueSearch interface {
	SearchNearby(ctx context.Context, point domain.GeoPoint, category string, radiusMeters float64, limit int) ([]domain.Venue, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishMemberUpdated(ctx context.Context, event *domain.MemberUpdatedEvent) error
	PublishMeetingPoint(ctx context.Context, mp *domain.MeetingPoint) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeMemberUpdates(ctx context.Context, handler func(ctx context.Context, event *domain.MemberUpdatedEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
