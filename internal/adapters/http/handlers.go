package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/usecases"
)

type createGroupRequest struct {
	Name         string `json:"name"`
	ActivityType string `json:"activity_type"`
}

type joinGroupRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type updateLocationRequest struct {
	Address    string           `json:"address"`
	Location   *domain.GeoPoint `json:"location"`
	TravelMode string           `json:"travel_mode"`
}

type midpointRequest struct {
	Points []domain.GeoPoint `json:"points"`
}

type optimizeRequest struct {
	Members       []domain.MemberLocation `json:"members"`
	MaxIterations int                     `json:"max_iterations"`
	Category      string                  `json:"category"`
	WithVenues    bool                    `json:"with_venues"`
}

// CreateGroupHandler creates a group.
func CreateGroupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createGroupRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		g, err := deps.Groups.Create(c.UserContext(), req.Name, req.ActivityType)
		if err != nil {
			return errFromService(c, err, "")
		}
		c.Location("/v1/groups/" + g.ID)
		return c.Status(fiber.StatusCreated).JSON(g)
	}
}

// GetGroupHandler returns a group by ID.
func GetGroupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := deps.Groups.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err, "group not found")
		}
		return c.JSON(g)
	}
}

// ListMembersHandler returns a page of a group's members.
func ListMembersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		members, err := deps.Groups.ListMembers(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err, "group not found")
		}

		offset, limit := pageParams(c)
		page, pg := paginate(members, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// JoinGroupHandler adds the caller to a group.
func JoinGroupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req joinGroupRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		m, err := deps.Groups.Join(c.UserContext(), c.Params("id"), req.UserID, req.DisplayName)
		if err != nil {
			return errFromService(c, err, "group not found")
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// UpdateLocationHandler stores a member's location and travel mode.
func UpdateLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		m, err := deps.Groups.UpdateMemberLocation(c.UserContext(), c.Params("id"), c.Params("memberId"), usecases.LocationUpdate{
			Address:    req.Address,
			Point:      req.Location,
			TravelMode: req.TravelMode,
		})
		if err != nil {
			return errFromService(c, err, "member not found")
		}
		return c.JSON(m)
	}
}

// ComputeMeetingPointHandler recomputes, stores and broadcasts a group's
// meeting point.
func ComputeMeetingPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		maxIter := c.QueryInt("max_iterations", 0)
		if maxIter < 0 {
			return errBadRequest(c, "max_iterations must not be negative")
		}
		mp, err := deps.MeetingPoints.Compute(c.UserContext(), c.Params("id"), maxIter)
		if err != nil {
			return errFromService(c, err, "group not found")
		}
		return c.JSON(mp)
	}
}

// LatestMeetingPointHandler returns the last stored meeting point of a group.
func LatestMeetingPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mp, err := deps.MeetingPoints.Latest(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err, "no meeting point computed yet")
		}
		return c.JSON(mp)
	}
}

// MidpointHandler returns the spherical midpoint of a list of points.
func MidpointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req midpointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, err := deps.MeetingPoints.Midpoint(req.Points)
		if err != nil {
			return errFromService(c, err, "")
		}
		return c.JSON(fiber.Map{"midpoint": p})
	}
}

// OptimizeHandler runs the optimizer over an explicit member list. Nothing
// is stored or broadcast.
func OptimizeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req optimizeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.MaxIterations < 0 {
			return errBadRequest(c, "max_iterations must not be negative")
		}
		mp, err := deps.MeetingPoints.OptimizeAdHoc(c.UserContext(), req.Members, req.MaxIterations)
		if err != nil {
			return errFromService(c, err, "")
		}
		if req.WithVenues {
			category := req.Category
			if category == "" && deps.Venues != nil {
				category = deps.Venues.DefaultCategory()
			}
			deps.MeetingPoints.AttachVenues(c.UserContext(), mp, category)
		}
		return c.JSON(mp)
	}
}

// NearbyVenuesHandler lists venues around a point.
func NearbyVenuesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Venues == nil {
			return errUnavailable(c, "venue search not configured")
		}
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return errBadRequest(c, "lat and lng are required")
		}
		p := domain.GeoPoint{Lat: c.QueryFloat("lat", 0), Lng: c.QueryFloat("lng", 0)}
		venues, err := deps.Venues.Nearby(c.UserContext(), p, c.Query("category"), c.QueryInt("limit", 0))
		if err != nil {
			return errFromService(c, err, "")
		}
		return c.JSON(venues)
	}
}
