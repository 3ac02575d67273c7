// Package traveltime provides ports.TravelTimeOracle implementations: a
// Google Distance Matrix client, a great-circle estimator, and decorators
// for caching and fallback.
package traveltime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/anupsamy/squadup/internal/adapters/googlemaps"
	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/pkg/metrics"
)

// ErrUnreachable means the provider answered but found no route.
var ErrUnreachable = errors.New("destination unreachable")

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []matrixElement `json:"elements"`
	} `json:"rows"`
}

type matrixElement struct {
	Status   string `json:"status"`
	Duration struct {
		Value int64 `json:"value"` // seconds
	} `json:"duration"`
	DurationInTraffic *struct {
		Value int64 `json:"value"`
	} `json:"duration_in_traffic"`
}

// Google asks the Distance Matrix API for one origin/destination pair.
type Google struct {
	client   *googlemaps.Client
	endpoint string
	now      func() time.Time
}

// NewGoogle creates a Google oracle calling endpoint through client.
func NewGoogle(client *googlemaps.Client, endpoint string) *Google {
	return &Google{client: client, endpoint: endpoint, now: time.Now}
}

// TravelTime returns the trip duration in minutes.
func (g *Google) TravelTime(ctx context.Context, origin domain.GeoPoint, mode domain.TravelMode, destination domain.GeoPoint) (float64, error) {
	start := time.Now()
	minutes, err := g.travelTime(ctx, origin, mode, destination)
	metrics.OracleLatency.WithLabelValues("google").Observe(time.Since(start).Seconds())
	metrics.OracleCalls.WithLabelValues("google", string(mode), resultLabel(err)).Inc()
	return minutes, err
}

func (g *Google) travelTime(ctx context.Context, origin domain.GeoPoint, mode domain.TravelMode, destination domain.GeoPoint) (float64, error) {
	if !origin.Valid() || !destination.Valid() {
		return 0, fmt.Errorf("distance matrix: %w: coordinates out of range", domain.ErrInvalidArgument)
	}

	params := url.Values{
		"origins":      {latLng(origin)},
		"destinations": {latLng(destination)},
		"mode":         {string(mode)},
		"units":        {"metric"},
	}
	if mode == domain.TravelModeTransit || mode == domain.TravelModeDriving {
		params.Set("departure_time", strconv.FormatInt(g.now().Unix(), 10))
	}

	var resp matrixResponse
	if err := g.client.GetJSON(ctx, g.endpoint, params, &resp); err != nil {
		return 0, fmt.Errorf("distance matrix: %w", err)
	}
	if resp.Status != "OK" {
		return 0, fmt.Errorf("distance matrix: status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("distance matrix: empty response")
	}

	el := resp.Rows[0].Elements[0]
	switch el.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND", "MAX_ROUTE_LENGTH_EXCEEDED":
		return 0, fmt.Errorf("distance matrix %s: %w", el.Status, ErrUnreachable)
	default:
		return 0, fmt.Errorf("distance matrix: element status %s", el.Status)
	}

	seconds := el.Duration.Value
	if el.DurationInTraffic != nil && el.DurationInTraffic.Value > 0 {
		seconds = el.DurationInTraffic.Value
	}
	if seconds < 0 {
		return 0, fmt.Errorf("distance matrix: negative duration %d", seconds)
	}
	return float64(seconds) / 60, nil
}

func latLng(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	case errors.Is(err, googlemaps.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}
