// Package places implements ports.VenueSearch with the Google Places
// Nearby Search API.
package places

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/anupsamy/squadup/internal/adapters/googlemaps"
	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/pkg/geospatial"
	"github.com/anupsamy/squadup/internal/pkg/metrics"
)

// Google place types that are searched with type= rather than keyword=.
var placeTypes = map[string]bool{
	"cafe": true, "restaurant": true, "bar": true, "park": true,
	"library": true, "movie_theater": true, "gym": true, "museum": true,
	"bowling_alley": true, "shopping_mall": true, "night_club": true, "bakery": true,
}

type nearbyResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

type placeResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Types            []string `json:"types"`
}

// Search queries Places Nearby Search.
type Search struct {
	client   *googlemaps.Client
	endpoint string
}

// New creates a Search calling endpoint through client.
func New(client *googlemaps.Client, endpoint string) *Search {
	return &Search{client: client, endpoint: endpoint}
}

// SearchNearby returns up to limit venues in Google's prominence order.
func (s *Search) SearchNearby(ctx context.Context, point domain.GeoPoint, category string, radiusMeters float64, limit int) ([]domain.Venue, error) {
	venues, err := s.search(ctx, point, category, radiusMeters, limit)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.VenueSearches.WithLabelValues(result).Inc()
	return venues, err
}

func (s *Search) search(ctx context.Context, point domain.GeoPoint, category string, radiusMeters float64, limit int) ([]domain.Venue, error) {
	if !point.Valid() {
		return nil, fmt.Errorf("nearby search: %w: coordinates out of range", domain.ErrInvalidArgument)
	}
	if radiusMeters <= 0 || radiusMeters > 50000 {
		return nil, fmt.Errorf("nearby search: %w: radius %.0f outside (0, 50000]", domain.ErrInvalidArgument, radiusMeters)
	}

	params := url.Values{
		"location": {strconv.FormatFloat(point.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(point.Lng, 'f', 6, 64)},
		"radius":   {strconv.FormatFloat(radiusMeters, 'f', 0, 64)},
	}
	category = strings.ToLower(strings.TrimSpace(category))
	switch {
	case category == "":
	case placeTypes[category]:
		params.Set("type", category)
	default:
		params.Set("keyword", category)
	}

	var resp nearbyResponse
	if err := s.client.GetJSON(ctx, s.endpoint, params, &resp); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []domain.Venue{}, nil
	default:
		return nil, fmt.Errorf("nearby search: status %s: %s", resp.Status, resp.ErrorMessage)
	}

	venues := make([]domain.Venue, 0, len(resp.Results))
	for _, r := range resp.Results {
		if limit > 0 && len(venues) == limit {
			break
		}
		loc := domain.GeoPoint{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}
		v := domain.Venue{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			Category:         category,
			Location:         loc,
			Address:          r.Vicinity,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			DistanceMeters:   geospatial.Haversine(point.Lat, point.Lng, loc.Lat, loc.Lng),
		}
		if v.Category == "" && len(r.Types) > 0 {
			v.Category = r.Types[0]
		}
		venues = append(venues, v)
	}
	return venues, nil
}
