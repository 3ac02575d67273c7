package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/ports"
	"github.com/anupsamy/squadup/internal/pkg/metrics"
)

// VenueConfig holds venue search defaults.
type VenueConfig struct {
	RadiusMeters    float64
	Limit           int
	DefaultCategory string
	CacheTTLSeconds int
}

const maxVenueLimit = 20

// VenueService looks up places near a meeting point.
type VenueService struct {
	search ports.VenueSearch
	cache  ports.CacheService
	cfg    VenueConfig
}

// NewVenueService creates a new VenueService. cache may be nil.
func NewVenueService(search ports.VenueSearch, cache ports.CacheService, cfg VenueConfig) *VenueService {
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = 1500
	}
	if cfg.Limit <= 0 || cfg.Limit > maxVenueLimit {
		cfg.Limit = 10
	}
	return &VenueService{search: search, cache: cache, cfg: cfg}
}

// DefaultCategory is used when neither the caller nor the group names one.
func (s *VenueService) DefaultCategory() string {
	return s.cfg.DefaultCategory
}

// Nearby returns venues of category around point, read through the cache.
func (s *VenueService) Nearby(ctx context.Context, point domain.GeoPoint, category string, limit int) ([]domain.Venue, error) {
	if !point.Valid() {
		return nil, fmt.Errorf("nearby venues: %w: lat must be in [-90, 90] and lng in [-180, 180]", domain.ErrInvalidArgument)
	}
	if limit <= 0 || limit > maxVenueLimit {
		limit = s.cfg.Limit
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = s.cfg.DefaultCategory
	}

	// Try cache
	cacheKey := fmt.Sprintf("venues:%.4f:%.4f:%s:%.0f:%d", point.Lat, point.Lng, category, s.cfg.RadiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var venues []domain.Venue
			if err := json.Unmarshal(data, &venues); err == nil {
				metrics.CacheHits.WithLabelValues("venues").Inc()
				return venues, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("venues").Inc()
	}

	venues, err := s.search.SearchNearby(ctx, point, category, s.cfg.RadiusMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby venues: %w", err)
	}

	if s.cache != nil && s.cfg.CacheTTLSeconds > 0 {
		if data, err := json.Marshal(venues); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cfg.CacheTTLSeconds)
		}
	}

	return venues, nil
}
