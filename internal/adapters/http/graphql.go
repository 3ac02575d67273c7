package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema wired to our services.
// Field names follow the JSON tags of the domain types, which the default
// resolver reads.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	geoPointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "GeoPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	groupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Group",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"activity_type": &graphql.Field{Type: graphql.String},
			"created_at":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	memberType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Member",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"group_id":     &graphql.Field{Type: graphql.String},
			"user_id":      &graphql.Field{Type: graphql.String},
			"display_name": &graphql.Field{Type: graphql.String},
			"address":      &graphql.Field{Type: graphql.String},
			"location":     &graphql.Field{Type: geoPointType},
			"travel_mode":  &graphql.Field{Type: graphql.String},
			"updated_at":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	venueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Venue",
		Fields: graphql.Fields{
			"place_id":        &graphql.Field{Type: graphql.String},
			"name":            &graphql.Field{Type: graphql.String},
			"category":        &graphql.Field{Type: graphql.String},
			"location":        &graphql.Field{Type: geoPointType},
			"address":         &graphql.Field{Type: graphql.String},
			"rating":          &graphql.Field{Type: graphql.Float},
			"distance_meters": &graphql.Field{Type: graphql.Float},
		},
	})

	meetingPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MeetingPoint",
		Fields: graphql.Fields{
			"group_id":        &graphql.Field{Type: graphql.String},
			"midpoint":        &graphql.Field{Type: geoPointType},
			"optimal":         &graphql.Field{Type: geoPointType},
			"iterations_used": &graphql.Field{Type: graphql.Int},
			"converged":       &graphql.Field{Type: graphql.Boolean},
			"member_count":    &graphql.Field{Type: graphql.Int},
			"venues":          &graphql.Field{Type: graphql.NewList(venueType)},
			"computed_at":     &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"group": &graphql.Field{
				Type:        groupType,
				Description: "Get a group by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Groups.Get(p.Context, p.Args["id"].(string))
				},
			},
			"members": &graphql.Field{
				Type:        graphql.NewList(memberType),
				Description: "Members of a group",
				Args: graphql.FieldConfigArgument{
					"group_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Groups.ListMembers(p.Context, p.Args["group_id"].(string))
				},
			},
			"meetingPoint": &graphql.Field{
				Type:        meetingPointType,
				Description: "Latest meeting point of a group",
				Args: graphql.FieldConfigArgument{
					"group_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.MeetingPoints.Latest(p.Context, p.Args["group_id"].(string))
				},
			},
			"midpoint": &graphql.Field{
				Type:        geoPointType,
				Description: "Spherical midpoint of a list of points",
				Args: graphql.FieldConfigArgument{
					"points": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(geoPointInput)))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					points, err := pointsArg(p.Args["points"])
					if err != nil {
						return nil, err
					}
					return deps.MeetingPoints.Midpoint(points)
				},
			},
			"venuesNearby": &graphql.Field{
				Type:        graphql.NewList(venueType),
				Description: "Venues around a point",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"category": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Venues == nil {
						return nil, fmt.Errorf("venue search not configured")
					}
					point := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					return deps.Venues.Nearby(p.Context, point, p.Args["category"].(string), p.Args["limit"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func pointsArg(v interface{}) ([]domain.GeoPoint, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("points must be a list")
	}
	points := make([]domain.GeoPoint, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("points must be objects")
		}
		lat, _ := m["lat"].(float64)
		lng, _ := m["lng"].(float64)
		points = append(points, domain.GeoPoint{Lat: lat, Lng: lng})
	}
	return points, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
