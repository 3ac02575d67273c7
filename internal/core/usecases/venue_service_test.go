package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/usecases"
)

func TestVenueService_Nearby_Defaults(t *testing.T) {
	search := &mockVenueSearch{searchFn: func(_ context.Context, _ domain.GeoPoint, category string, radius float64, limit int) ([]domain.Venue, error) {
		if category != "cafe" {
			t.Errorf("category = %q, want default cafe", category)
		}
		if radius != 1500 {
			t.Errorf("radius = %v, want 1500", radius)
		}
		if limit != 10 {
			t.Errorf("limit = %d, want 10", limit)
		}
		return []domain.Venue{{PlaceID: "a"}}, nil
	}}
	svc := usecases.NewVenueService(search, nil, usecases.VenueConfig{DefaultCategory: "cafe"})

	venues, err := svc.Nearby(context.Background(), domain.GeoPoint{Lat: 49.28, Lng: -123.12}, "", 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(venues) != 1 {
		t.Fatalf("expected 1 venue, got %d", len(venues))
	}
}

func TestVenueService_Nearby_UsesCache(t *testing.T) {
	search := &mockVenueSearch{searchFn: func(context.Context, domain.GeoPoint, string, float64, int) ([]domain.Venue, error) {
		return []domain.Venue{{PlaceID: "a", Name: "Cafe A"}}, nil
	}}
	svc := usecases.NewVenueService(search, newMemCache(), usecases.VenueConfig{CacheTTLSeconds: 60})
	p := domain.GeoPoint{Lat: 49.28, Lng: -123.12}

	for i := 0; i < 3; i++ {
		venues, err := svc.Nearby(context.Background(), p, "cafe", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(venues) != 1 || venues[0].Name != "Cafe A" {
			t.Fatalf("unexpected venues: %+v", venues)
		}
	}
	if search.calls != 1 {
		t.Errorf("search called %d times, want 1", search.calls)
	}
}

func TestVenueService_Nearby_Errors(t *testing.T) {
	search := &mockVenueSearch{searchFn: func(context.Context, domain.GeoPoint, string, float64, int) ([]domain.Venue, error) {
		return nil, errors.New("quota")
	}}
	svc := usecases.NewVenueService(search, nil, usecases.VenueConfig{})

	if _, err := svc.Nearby(context.Background(), domain.GeoPoint{Lat: 0, Lng: 0}, "bar", 5); err == nil {
		t.Error("expected search error")
	}
	if _, err := svc.Nearby(context.Background(), domain.GeoPoint{Lat: 0, Lng: 200}, "bar", 5); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if search.calls != 1 {
		t.Errorf("invalid point must not reach the search, calls=%d", search.calls)
	}
}
