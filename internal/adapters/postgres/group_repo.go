package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// GroupRepo implements ports.GroupRepository with pgx.
type GroupRepo struct {
	db *DB
}

// NewGroupRepo creates a new GroupRepo.
func NewGroupRepo(db *DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// Create inserts a group. ID and CreatedAt are set by the caller.
func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO groups (id, name, activity_type, created_at)
		VALUES ($1, $2, $3, $4)
	`, g.ID, g.Name, g.ActivityType, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// GetByID returns a group or domain.ErrNotFound.
func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(activity_type, ''), created_at
		FROM groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.ActivityType, &g.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get group "+id)
	}
	return &g, nil
}

// AddMember inserts a member; joining twice with the same user is a no-op
// that refreshes the display name. m is overwritten with the stored row, so
// a rejoining member keeps their ID, location and travel mode.
func (r *GroupRepo) AddMember(ctx context.Context, m *domain.Member) error {
	row := r.db.Pool.QueryRow(ctx, `
		INSERT INTO members (id, group_id, user_id, display_name, travel_mode, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (group_id, user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at
		RETURNING `+memberColumns,
		m.ID, m.GroupID, m.UserID, m.DisplayName, string(m.TravelMode), m.JoinedAt)
	stored, err := scanMember(row)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	*m = *stored
	return nil
}

const memberColumns = `
	id, group_id, user_id, display_name, COALESCE(address, ''),
	ST_Y(location::geometry), ST_X(location::geometry),
	travel_mode, joined_at, updated_at`

// GetMember returns one member of a group or domain.ErrNotFound.
func (r *GroupRepo) GetMember(ctx context.Context, groupID, memberID string) (*domain.Member, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+memberColumns+`
		FROM members WHERE group_id = $1 AND id = $2
	`, groupID, memberID)
	m, err := scanMember(row)
	if err != nil {
		return nil, notFound(err, "get member "+memberID)
	}
	return m, nil
}

// UpdateMemberLocation stores the address, point and travel mode of a member.
func (r *GroupRepo) UpdateMemberLocation(ctx context.Context, m *domain.Member) error {
	var lat, lng *float64
	if m.Location != nil {
		lat, lng = &m.Location.Lat, &m.Location.Lng
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE members
		SET address = $3,
		    location = CASE WHEN $4::float8 IS NULL THEN NULL
		                    ELSE ST_SetSRID(ST_MakePoint($5, $4), 4326)::geography END,
		    travel_mode = $6,
		    updated_at = $7
		WHERE group_id = $1 AND id = $2
	`, m.GroupID, m.ID, m.Address, lat, lng, string(m.TravelMode), m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update member location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update member %s: %w", m.ID, domain.ErrNotFound)
	}
	return nil
}

// ListMembers returns the members of a group in join order.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+memberColumns+`
		FROM members WHERE group_id = $1
		ORDER BY joined_at, id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var (
		m        domain.Member
		lat, lng *float64
		mode     string
	)
	if err := row.Scan(
		&m.ID, &m.GroupID, &m.UserID, &m.DisplayName, &m.Address,
		&lat, &lng, &mode, &m.JoinedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		m.Location = &domain.GeoPoint{Lat: *lat, Lng: *lng}
	}
	m.TravelMode = domain.TravelMode(mode)
	return &m, nil
}
