// Package bootstrap wires adapters and services from configuration for the
// api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anupsamy/squadup/internal/adapters/googlemaps"
	natsadapter "github.com/anupsamy/squadup/internal/adapters/nats"
	"github.com/anupsamy/squadup/internal/adapters/places"
	"github.com/anupsamy/squadup/internal/adapters/postgres"
	"github.com/anupsamy/squadup/internal/adapters/traveltime"
	"github.com/anupsamy/squadup/internal/adapters/valkey"
	"github.com/anupsamy/squadup/internal/core/meetpoint"
	"github.com/anupsamy/squadup/internal/core/ports"
	"github.com/anupsamy/squadup/internal/core/usecases"
	"github.com/anupsamy/squadup/internal/pkg/config"
)

// Services is everything a binary needs to serve meeting points.
type Services struct {
	DB            *postgres.DB
	Cache         *valkey.Cache          // nil when valkey is unreachable
	Publisher     *natsadapter.Publisher // nil when NATS is unreachable
	Groups        *usecases.GroupService
	MeetingPoints *usecases.MeetingPointService
	Venues        *usecases.VenueService // nil without a Google API key
}

// Build connects to the backing services and assembles the usecases. Only
// the database is required; cache, NATS and Google degrade gracefully.
func Build(ctx context.Context, cfg *config.Config, service string) (*Services, error) {
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	s := &Services{DB: db}

	// Interface values stay nil unless the adapter is really there.
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr, service); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		s.Cache = c
		cache = c
	}

	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		s.Publisher = p
		publisher = p
	}

	var client *googlemaps.Client
	if cfg.Google.APIKey != "" {
		client = googlemaps.New(GoogleClientConfig(cfg.Google))
	} else {
		slog.Warn("google.api_key not set, using the offline travel-time estimator without venues")
	}

	if client != nil {
		search := places.New(client, cfg.Google.PlacesURL)
		s.Venues = usecases.NewVenueService(search, cache, usecases.VenueConfig{
			RadiusMeters:    cfg.Venues.RadiusMeters,
			Limit:           cfg.Venues.Limit,
			DefaultCategory: cfg.Venues.DefaultCategory,
			CacheTTLSeconds: cfg.Venues.CacheTTLSeconds,
		})
	}

	optimizer := meetpoint.New(NewOracle(cfg.Google, client, cache), OptimizerOptions(cfg.Optimizer)...)

	groups := postgres.NewGroupRepo(db)
	points := postgres.NewMeetingPointRepo(db)
	s.Groups = usecases.NewGroupService(groups, publisher)
	s.MeetingPoints = usecases.NewMeetingPointService(groups, points, optimizer, s.Venues, publisher, cache, cfg.Optimizer.MaxIterations)

	return s, nil
}

// Close releases every connection Build opened.
func (s *Services) Close() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Cache != nil {
		s.Cache.Close()
	}
	s.DB.Close()
}

// GoogleClientConfig maps configuration onto the Maps client settings.
func GoogleClientConfig(g config.GoogleConfig) googlemaps.Config {
	failures := g.BreakerFailures
	if failures < 0 {
		failures = 0
	}
	return googlemaps.Config{
		APIKey:          g.APIKey,
		Timeout:         time.Duration(g.TimeoutSeconds) * time.Second,
		MaxRetries:      g.MaxRetries,
		RatePerSecond:   g.RatePerSecond,
		Burst:           g.Burst,
		BreakerFailures: uint32(failures),
		BreakerTimeout:  time.Duration(g.BreakerTimeout) * time.Second,
	}
}

// NewOracle picks the travel-time oracle. Without a client it is the
// estimator alone; otherwise Google with the estimator as fallback. Only
// Google answers are cached.
func NewOracle(g config.GoogleConfig, client *googlemaps.Client, cache ports.CacheService) ports.TravelTimeOracle {
	estimator := traveltime.NewEstimator()
	if client == nil {
		return estimator
	}
	return traveltime.NewCachedFallback(traveltime.NewGoogle(client, g.DistanceMatrixURL), estimator, cache, g.CacheTTLSeconds)
}

// OptimizerOptions maps configuration onto optimizer options. Invalid
// values are ignored by the options themselves.
func OptimizerOptions(o config.OptimizerConfig) []meetpoint.Option {
	return []meetpoint.Option{
		meetpoint.WithConvergenceMeters(o.ConvergenceMeters),
		meetpoint.WithInitialStep(o.InitialStep),
		meetpoint.WithStepDecay(o.StepDecay),
		meetpoint.WithMinWeight(o.MinWeightMinutes),
		meetpoint.WithConcurrency(o.Concurrency),
		meetpoint.WithLogger(slog.Default()),
	}
}
