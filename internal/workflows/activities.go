package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/usecases"
)

// MeetingPointActivities holds the activity implementations for the
// meeting-point workflow.
type MeetingPointActivities struct {
	MeetingPoints *usecases.MeetingPointService
}

// Register adds the activities to a worker under their stable names.
func (a *MeetingPointActivities) Register(r interface {
	RegisterActivityWithOptions(fn interface{}, options activity.RegisterOptions)
}) {
	r.RegisterActivityWithOptions(a.OptimizeMeetingPoint, activity.RegisterOptions{Name: ActivityOptimizeMeetingPoint})
	r.RegisterActivityWithOptions(a.FindVenues, activity.RegisterOptions{Name: ActivityFindVenues})
	r.RegisterActivityWithOptions(a.SaveMeetingPoint, activity.RegisterOptions{Name: ActivitySaveMeetingPoint})
	r.RegisterActivityWithOptions(a.PublishMeetingPoint, activity.RegisterOptions{Name: ActivityPublishMeetingPoint})
}

// OptimizeMeetingPoint runs the optimizer for a group.
func (a *MeetingPointActivities) OptimizeMeetingPoint(ctx context.Context, groupID string, maxIterations int) (*domain.MeetingPoint, error) {
	mp, err := a.MeetingPoints.Optimize(ctx, groupID, maxIterations)
	if err != nil {
		return nil, classify(err)
	}
	return mp, nil
}

// FindVenues returns venues around the optimal point in the group's category.
func (a *MeetingPointActivities) FindVenues(ctx context.Context, mp *domain.MeetingPoint) ([]domain.Venue, error) {
	a.MeetingPoints.AttachVenues(ctx, mp, a.MeetingPoints.VenueCategory(ctx, mp.GroupID))
	return mp.Venues, nil
}

// SaveMeetingPoint stores the meeting point.
func (a *MeetingPointActivities) SaveMeetingPoint(ctx context.Context, mp *domain.MeetingPoint) error {
	return a.MeetingPoints.Save(ctx, mp)
}

// PublishMeetingPoint broadcasts the meeting point to the group.
func (a *MeetingPointActivities) PublishMeetingPoint(ctx context.Context, mp *domain.MeetingPoint) error {
	return a.MeetingPoints.Publish(ctx, mp)
}

// classify marks caller errors as non-retryable.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidArgument, err)
	case errors.Is(err, domain.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	default:
		return fmt.Errorf("optimize meeting point: %w", err)
	}
}
