package ports

import (
	"context"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// GroupRepository persists groups and their members.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	AddMember(ctx context.Context, member *domain.Member) error
	GetMember(ctx context.Context, groupID, memberID string) (*domain.Member, error)
	UpdateMemberLocation(ctx context.Context, member *domain.Member) error
	ListMembers(ctx context.Context, groupID string) ([]domain.Member, error)
}

// MeetingPointRepository persists computed meeting points.
type MeetingPointRepository interface {
	Save(ctx context.Context, mp *domain.MeetingPoint) error
	// Latest returns the most recent meeting point for a group.
	Latest(ctx context.Context, groupID string) (*domain.MeetingPoint, error)
}
