package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anupsamy/squadup/internal/adapters/googlemaps"
	"github.com/anupsamy/squadup/internal/adapters/traveltime"
	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/pkg/config"
)

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]byte, error) {
	return nil, context.Canceled
}

func (nopCache) Set(context.Context, string, []byte, int) error {
	return nil
}

func (nopCache) Delete(context.Context, string) error {
	return nil
}

func TestNewOracle(t *testing.T) {
	g := config.GoogleConfig{DistanceMatrixURL: "http://localhost/dm", CacheTTLSeconds: 60}

	assert.IsType(t, &traveltime.Estimator{}, NewOracle(g, nil, nil))

	client := googlemaps.New(googlemaps.Config{APIKey: "k"})
	assert.IsType(t, &traveltime.Fallback{}, NewOracle(g, client, nil))
	assert.IsType(t, &traveltime.Fallback{}, NewOracle(g, client, nopCache{}))
}

type recordingCache struct {
	nopCache
	sets int
}

func (c *recordingCache) Set(context.Context, string, []byte, int) error {
	c.sets++
	return nil
}

func TestNewOracle_EstimatesNotCachedDuringOutage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","duration":{"value":2520}}]}]}`))
	}))
	defer srv.Close()

	g := config.GoogleConfig{DistanceMatrixURL: srv.URL, CacheTTLSeconds: 60}
	client := googlemaps.New(googlemaps.Config{Name: "test-outage", APIKey: "k"})
	cache := &recordingCache{}
	oracle := NewOracle(g, client, cache)

	from := domain.GeoPoint{Lat: 49.2827, Lng: -123.1207}
	to := domain.GeoPoint{Lat: 49.2488, Lng: -122.9805}

	estimate, err := oracle.TravelTime(context.Background(), from, domain.TravelModeWalking, to)
	require.NoError(t, err)
	assert.NotEqual(t, 42.0, estimate)
	assert.Zero(t, cache.sets)

	minutes, err := oracle.TravelTime(context.Background(), from, domain.TravelModeWalking, to)
	require.NoError(t, err)
	assert.InDelta(t, 42.0, minutes, 1e-9)
	assert.Equal(t, 1, cache.sets)
}

func TestGoogleClientConfig(t *testing.T) {
	c := GoogleClientConfig(config.GoogleConfig{
		APIKey:          "key",
		TimeoutSeconds:  3,
		MaxRetries:      2,
		RatePerSecond:   5,
		Burst:           7,
		BreakerFailures: -1,
		BreakerTimeout:  45,
	})
	assert.Equal(t, "key", c.APIKey)
	assert.Equal(t, 3*time.Second, c.Timeout)
	assert.Equal(t, 45*time.Second, c.BreakerTimeout)
	assert.Equal(t, uint32(0), c.BreakerFailures)
	assert.Equal(t, 7, c.Burst)
}

func TestOptimizerOptions(t *testing.T) {
	opts := OptimizerOptions(config.OptimizerConfig{ConvergenceMeters: 5, InitialStep: 0.4, StepDecay: 0.5, MinWeightMinutes: 2, Concurrency: 4})
	require.Len(t, opts, 6)
}
