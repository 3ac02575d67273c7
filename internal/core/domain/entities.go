package domain

import (
	"fmt"
	"strings"
	"time"
)

// TravelMode is how a member gets to the meeting point.
type TravelMode string

const (
	TravelModeDriving   TravelMode = "driving"
	TravelModeWalking   TravelMode = "walking"
	TravelModeBicycling TravelMode = "bicycling"
	TravelModeTransit   TravelMode = "transit"
)

// TravelModes lists every supported mode.
var TravelModes = []TravelMode{TravelModeDriving, TravelModeWalking, TravelModeBicycling, TravelModeTransit}

// ParseTravelMode maps a user-supplied string to a TravelMode.
// An empty string selects driving.
func ParseTravelMode(s string) (TravelMode, error) {
	switch TravelMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TravelModeDriving:
		return TravelModeDriving, nil
	case TravelModeWalking:
		return TravelModeWalking, nil
	case TravelModeBicycling:
		return TravelModeBicycling, nil
	case TravelModeTransit:
		return TravelModeTransit, nil
	}
	return "", fmt.Errorf("%w: unknown travel mode %q", ErrInvalidArgument, s)
}

// Group is a squad of members looking for a common meeting point.
type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ActivityType string    `json:"activity_type,omitempty"` // venue category, e.g. "cafe"
	CreatedAt    time.Time `json:"created_at"`
}

// Member is one person inside a group.
type Member struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"group_id"`
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Address     string     `json:"address,omitempty"`
	Location    *GeoPoint  `json:"location,omitempty"` // nil until the address is geocoded
	TravelMode  TravelMode `json:"travel_mode"`
	JoinedAt    time.Time  `json:"joined_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Resolved reports whether the member has a usable location.
func (m Member) Resolved() bool {
	return m.Location != nil && m.Location.Valid()
}

// MemberLocation is the optimizer's view of a member.
type MemberLocation struct {
	Point      GeoPoint   `json:"point"`
	TravelMode TravelMode `json:"travel_mode"`
}

// TravelTimeSample is one oracle answer for a member and a candidate point.
// Minutes is +Inf when the member cannot reach the candidate or the oracle failed.
type TravelTimeSample struct {
	Member    MemberLocation `json:"member"`
	Candidate GeoPoint       `json:"candidate"`
	Minutes   float64        `json:"minutes"`
}

// OptimizationResult is the outcome of a meeting-point search.
type OptimizationResult struct {
	Point          GeoPoint `json:"point"`
	IterationsUsed int      `json:"iterations_used"`
	Converged      bool     `json:"converged"`
}

// Venue is a place near the meeting point.
type Venue struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Category         string   `json:"category,omitempty"`
	Location         GeoPoint `json:"location"`
	Address          string   `json:"address,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	DistanceMeters   float64  `json:"distance_meters"` // computed field
}

// MeetingPoint is the persisted and broadcast result for a group.
type MeetingPoint struct {
	GroupID        string    `json:"group_id"`
	Midpoint       GeoPoint  `json:"midpoint"`
	Optimal        GeoPoint  `json:"optimal"`
	IterationsUsed int       `json:"iterations_used"`
	Converged      bool      `json:"converged"`
	MemberCount    int       `json:"member_count"`
	Venues         []Venue   `json:"venues"`
	ComputedAt     time.Time `json:"computed_at"`
}

// MemberUpdatedEvent is published whenever a member's location or mode changes.
type MemberUpdatedEvent struct {
	GroupID    string     `json:"group_id"`
	MemberID   string     `json:"member_id"`
	Location   *GeoPoint  `json:"location,omitempty"`
	TravelMode TravelMode `json:"travel_mode"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
