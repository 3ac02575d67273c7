package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/meetpoint"
	"github.com/anupsamy/squadup/internal/core/ports"
	"github.com/anupsamy/squadup/internal/pkg/metrics"
	"github.com/anupsamy/squadup/internal/pkg/telemetry"
)

// MaxIterationsLimit is the largest iteration cap a caller may request.
const MaxIterationsLimit = 50

const latestCacheTTLSeconds = 300

// MeetingPointService computes, stores and broadcasts meeting points.
type MeetingPointService struct {
	groups        ports.GroupRepository
	points        ports.MeetingPointRepository
	optimizer     ports.MeetingPointOptimizer
	venues        *VenueService
	publisher     ports.EventPublisher
	cache         ports.CacheService
	maxIterations int
	now           func() time.Time
}

// NewMeetingPointService creates a new MeetingPointService. venues,
// publisher and cache may be nil; the matching steps are then skipped.
func NewMeetingPointService(
	groups ports.GroupRepository,
	points ports.MeetingPointRepository,
	optimizer ports.MeetingPointOptimizer,
	venues *VenueService,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	maxIterations int,
) *MeetingPointService {
	if maxIterations <= 0 {
		maxIterations = meetpoint.DefaultMaxIterations
	}
	return &MeetingPointService{
		groups:        groups,
		points:        points,
		optimizer:     optimizer,
		venues:        venues,
		publisher:     publisher,
		cache:         cache,
		maxIterations: maxIterations,
		now:           time.Now,
	}
}

// Optimize runs the optimizer over the group's resolved members. The
// returned meeting point has no venues and is not stored.
func (s *MeetingPointService) Optimize(ctx context.Context, groupID string, maxIterations int) (*domain.MeetingPoint, error) {
	if err := validateID(groupID); err != nil {
		return nil, err
	}
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	locations := make([]domain.MemberLocation, 0, len(members))
	for _, m := range members {
		if !m.Resolved() {
			continue
		}
		locations = append(locations, domain.MemberLocation{Point: *m.Location, TravelMode: m.TravelMode})
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("optimize group %s: %w: no member has a location yet", groupID, domain.ErrInvalidArgument)
	}

	mp, err := s.optimize(ctx, locations, maxIterations)
	if err != nil {
		return nil, err
	}
	mp.GroupID = groupID
	return mp, nil
}

// OptimizeAdHoc optimizes an explicit member list that belongs to no group.
func (s *MeetingPointService) OptimizeAdHoc(ctx context.Context, members []domain.MemberLocation, maxIterations int) (*domain.MeetingPoint, error) {
	locations := make([]domain.MemberLocation, len(members))
	for i, m := range members {
		if !m.Point.Valid() {
			return nil, fmt.Errorf("member %d: %w: lat must be in [-90, 90] and lng in [-180, 180]", i, domain.ErrInvalidArgument)
		}
		mode, err := domain.ParseTravelMode(string(m.TravelMode))
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		locations[i] = domain.MemberLocation{Point: m.Point, TravelMode: mode}
	}
	return s.optimize(ctx, locations, maxIterations)
}

func (s *MeetingPointService) optimize(ctx context.Context, members []domain.MemberLocation, maxIterations int) (*domain.MeetingPoint, error) {
	if maxIterations <= 0 {
		maxIterations = s.maxIterations
	}
	if maxIterations > MaxIterationsLimit {
		return nil, fmt.Errorf("%w: max_iterations must be at most %d", domain.ErrInvalidArgument, MaxIterationsLimit)
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanOptimize)
	defer span.End()
	span.SetAttributes(telemetry.AttrMemberCount.Int(len(members)))

	points := make([]domain.GeoPoint, len(members))
	for i, m := range members {
		points[i] = m.Point
	}
	midpoint, err := meetpoint.SphericalMidpoint(points)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	res, err := s.optimizer.FindOptimalPoint(ctx, members, maxIterations)
	if err != nil {
		metrics.OptimizerRuns.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("find optimal point: %w", err)
	}
	metrics.ObserveOptimizerRun(res.IterationsUsed, res.Converged, time.Since(start))
	span.SetAttributes(
		telemetry.AttrIterations.Int(res.IterationsUsed),
		telemetry.AttrConverged.Bool(res.Converged),
	)

	return &domain.MeetingPoint{
		Midpoint:       midpoint,
		Optimal:        res.Point,
		IterationsUsed: res.IterationsUsed,
		Converged:      res.Converged,
		MemberCount:    len(members),
		Venues:         []domain.Venue{},
		ComputedAt:     s.now().UTC(),
	}, nil
}

// Midpoint returns the spherical midpoint of points.
func (s *MeetingPointService) Midpoint(points []domain.GeoPoint) (domain.GeoPoint, error) {
	for i, p := range points {
		if !p.Valid() {
			return domain.GeoPoint{}, fmt.Errorf("point %d: %w: lat must be in [-90, 90] and lng in [-180, 180]", i, domain.ErrInvalidArgument)
		}
	}
	return meetpoint.SphericalMidpoint(points)
}

// AttachVenues fills mp.Venues around the optimal point. Lookup failures
// are logged and leave the list empty.
func (s *MeetingPointService) AttachVenues(ctx context.Context, mp *domain.MeetingPoint, category string) {
	if s.venues == nil {
		return
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAttachVenues)
	defer span.End()

	venues, err := s.venues.Nearby(ctx, mp.Optimal, category, 0)
	if err != nil {
		slog.WarnContext(ctx, "venue lookup failed", "group_id", mp.GroupID, "error", err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(telemetry.AttrVenueCount.Int(len(venues)), telemetry.AttrVenueCategory.String(category))
	mp.Venues = venues
}

func latestCacheKey(groupID string) string {
	return "meeting_point:" + groupID
}

// Save stores mp as the group's latest meeting point and evicts the cached
// copy.
func (s *MeetingPointService) Save(ctx context.Context, mp *domain.MeetingPoint) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSave)
	defer span.End()
	span.SetAttributes(telemetry.AttrGroupID.String(mp.GroupID))

	if err := s.points.Save(ctx, mp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("save meeting point: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, latestCacheKey(mp.GroupID)); err != nil {
			slog.WarnContext(ctx, "evict cached meeting point failed", "group_id", mp.GroupID, "error", err)
		}
	}
	return nil
}

// Publish broadcasts mp to the group's subscribers.
func (s *MeetingPointService) Publish(ctx context.Context, mp *domain.MeetingPoint) error {
	if s.publisher == nil {
		return nil
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPublish)
	defer span.End()

	if err := s.publisher.PublishMeetingPoint(ctx, mp); err != nil {
		metrics.MeetingPointsPublished.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publish meeting point: %w", err)
	}
	metrics.MeetingPointsPublished.WithLabelValues("ok").Inc()
	return nil
}

// Latest returns the most recently stored meeting point of a group, read
// through the cache.
func (s *MeetingPointService) Latest(ctx context.Context, groupID string) (*domain.MeetingPoint, error) {
	if err := validateID(groupID); err != nil {
		return nil, err
	}

	// Try cache
	key := latestCacheKey(groupID)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var mp domain.MeetingPoint
			if err := json.Unmarshal(data, &mp); err == nil {
				metrics.CacheHits.WithLabelValues("meeting_point").Inc()
				return &mp, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("meeting_point").Inc()
	}

	mp, err := s.points.Latest(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(mp); err == nil {
			_ = s.cache.Set(ctx, key, data, latestCacheTTLSeconds)
		}
	}
	return mp, nil
}

// VenueCategory picks the category for a group: its activity type, else
// the configured default.
func (s *MeetingPointService) VenueCategory(ctx context.Context, groupID string) string {
	if g, err := s.groups.GetByID(ctx, groupID); err == nil && g.ActivityType != "" {
		return g.ActivityType
	}
	if s.venues != nil {
		return s.venues.DefaultCategory()
	}
	return ""
}

// Compute optimizes, attaches venues, stores and publishes in one call.
// Publishing is best effort.
func (s *MeetingPointService) Compute(ctx context.Context, groupID string, maxIterations int) (*domain.MeetingPoint, error) {
	mp, err := s.Optimize(ctx, groupID, maxIterations)
	if err != nil {
		return nil, err
	}

	s.AttachVenues(ctx, mp, s.VenueCategory(ctx, groupID))

	if err := s.Save(ctx, mp); err != nil {
		return nil, err
	}
	if err := s.Publish(ctx, mp); err != nil {
		slog.WarnContext(ctx, "meeting point not broadcast", "group_id", groupID, "error", err)
	}
	return mp, nil
}
