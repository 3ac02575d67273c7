package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// MeetingPointRepo implements ports.MeetingPointRepository. Each computation
// is appended; Latest reads the newest row for a group.
type MeetingPointRepo struct {
	db *DB
}

// NewMeetingPointRepo creates a new MeetingPointRepo.
func NewMeetingPointRepo(db *DB) *MeetingPointRepo {
	return &MeetingPointRepo{db: db}
}

func (r *MeetingPointRepo) Save(ctx context.Context, mp *domain.MeetingPoint) error {
	venues, err := json.Marshal(mp.Venues)
	if err != nil {
		return fmt.Errorf("marshal venues: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO meeting_points (
			group_id, midpoint, optimal, iterations_used, converged,
			member_count, venues, computed_at
		) VALUES (
			$1,
			ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography,
			ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
			$6, $7, $8, $9, $10
		)
	`, mp.GroupID,
		mp.Midpoint.Lng, mp.Midpoint.Lat,
		mp.Optimal.Lng, mp.Optimal.Lat,
		mp.IterationsUsed, mp.Converged, mp.MemberCount, venues, mp.ComputedAt)
	if err != nil {
		return fmt.Errorf("insert meeting point: %w", err)
	}
	return nil
}

func (r *MeetingPointRepo) Latest(ctx context.Context, groupID string) (*domain.MeetingPoint, error) {
	var (
		mp     domain.MeetingPoint
		venues []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT group_id,
		       ST_Y(midpoint::geometry), ST_X(midpoint::geometry),
		       ST_Y(optimal::geometry), ST_X(optimal::geometry),
		       iterations_used, converged, member_count,
		       COALESCE(venues, '[]'::jsonb), computed_at
		FROM meeting_points
		WHERE group_id = $1
		ORDER BY computed_at DESC
		LIMIT 1
	`, groupID).Scan(
		&mp.GroupID,
		&mp.Midpoint.Lat, &mp.Midpoint.Lng,
		&mp.Optimal.Lat, &mp.Optimal.Lng,
		&mp.IterationsUsed, &mp.Converged, &mp.MemberCount,
		&venues, &mp.ComputedAt,
	)
	if err != nil {
		return nil, notFound(err, "latest meeting point for "+groupID)
	}
	if err := json.Unmarshal(venues, &mp.Venues); err != nil {
		return nil, fmt.Errorf("unmarshal venues: %w", err)
	}
	return &mp, nil
}
