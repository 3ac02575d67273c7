package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/ports"
	"github.com/anupsamy/squadup/internal/pkg/metrics"
)

// GroupService manages squads and their members.
type GroupService struct {
	groups    ports.GroupRepository
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewGroupService creates a new GroupService. publisher may be nil.
func NewGroupService(groups ports.GroupRepository, publisher ports.EventPublisher) *GroupService {
	return &GroupService{groups: groups, publisher: publisher, now: time.Now}
}

// Create starts a new group. activityType doubles as the venue category.
func (s *GroupService) Create(ctx context.Context, name, activityType string) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create group: %w: name is required", domain.ErrInvalidArgument)
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("create group: %w: name longer than 100 characters", domain.ErrInvalidArgument)
	}

	g := &domain.Group{
		ID:           uuid.NewString(),
		Name:         name,
		ActivityType: strings.ToLower(strings.TrimSpace(activityType)),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// Get returns a group by ID.
func (s *GroupService) Get(ctx context.Context, id string) (*domain.Group, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.groups.GetByID(ctx, id)
}

// ListMembers returns every member of an existing group.
func (s *GroupService) ListMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// Join adds a user to a group. The member starts without a location.
func (s *GroupService) Join(ctx context.Context, groupID, userID, displayName string) (*domain.Member, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("join group: %w: user_id is required", domain.ErrInvalidArgument)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = userID
	}

	now := s.now().UTC()
	m := &domain.Member{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		UserID:      userID,
		DisplayName: displayName,
		TravelMode:  domain.TravelModeDriving,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if err := s.groups.AddMember(ctx, m); err != nil {
		return nil, fmt.Errorf("join group: %w", err)
	}
	return m, nil
}

// LocationUpdate is what a member reports about themselves. A nil Point
// clears the location (e.g. the address could not be geocoded).
type LocationUpdate struct {
	Address    string
	Point      *domain.GeoPoint
	TravelMode string
}

// UpdateMemberLocation stores a member's location and travel mode and
// announces the change.
func (s *GroupService) UpdateMemberLocation(ctx context.Context, groupID, memberID string, upd LocationUpdate) (*domain.Member, error) {
	if err := validateID(groupID); err != nil {
		return nil, err
	}
	if err := validateID(memberID); err != nil {
		return nil, err
	}
	if upd.Point != nil && !upd.Point.Valid() {
		return nil, fmt.Errorf("update location: %w: lat must be in [-90, 90] and lng in [-180, 180]", domain.ErrInvalidArgument)
	}
	mode, err := domain.ParseTravelMode(upd.TravelMode)
	if err != nil {
		return nil, err
	}

	m, err := s.groups.GetMember(ctx, groupID, memberID)
	if err != nil {
		return nil, err
	}
	m.Address = strings.TrimSpace(upd.Address)
	m.Location = upd.Point
	m.TravelMode = mode
	m.UpdatedAt = s.now().UTC()

	if err := s.groups.UpdateMemberLocation(ctx, m); err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	metrics.MemberUpdates.Inc()

	if s.publisher != nil {
		event := &domain.MemberUpdatedEvent{
			GroupID:    m.GroupID,
			MemberID:   m.ID,
			Location:   m.Location,
			TravelMode: m.TravelMode,
			UpdatedAt:  m.UpdatedAt,
		}
		if err := s.publisher.PublishMemberUpdated(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish member update failed", "group_id", m.GroupID, "error", err)
		}
	}

	return m, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", domain.ErrInvalidArgument, id)
	}
	return nil
}
