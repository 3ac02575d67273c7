package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/meetpoint"
	"github.com/anupsamy/squadup/internal/core/usecases"
)

func resolvedMembers() []domain.Member {
	return []domain.Member{
		{ID: "m1", GroupID: groupID, Location: &domain.GeoPoint{Lat: 49.0, Lng: -123.0}, TravelMode: domain.TravelModeDriving},
		{ID: "m2", GroupID: groupID, Location: &domain.GeoPoint{Lat: 51.0, Lng: -125.0}, TravelMode: domain.TravelModeWalking},
		{ID: "m3", GroupID: groupID}, // no address yet
	}
}

func TestMeetingPointService_Optimize_SkipsUnresolved(t *testing.T) {
	repo := &mockGroupRepo{listMembersFn: func(context.Context, string) ([]domain.Member, error) {
		return resolvedMembers(), nil
	}}
	opt := &mockOptimizer{result: domain.OptimizationResult{Point: domain.GeoPoint{Lat: 50, Lng: -124}, IterationsUsed: 3, Converged: true}}
	svc := usecases.NewMeetingPointService(repo, &mockMeetingPointRepo{}, opt, nil, nil, nil, 7)

	mp, err := svc.Optimize(context.Background(), groupID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opt.gotMembers) != 2 {
		t.Fatalf("optimizer got %d members, want 2", len(opt.gotMembers))
	}
	if opt.gotMaxIter != 7 {
		t.Errorf("max iterations = %d, want configured default 7", opt.gotMaxIter)
	}
	if mp.GroupID != groupID || mp.MemberCount != 2 || mp.IterationsUsed != 3 || !mp.Converged {
		t.Errorf("unexpected meeting point: %+v", mp)
	}
	if math.Abs(mp.Midpoint.Lat-50) > 0.1 || math.Abs(mp.Midpoint.Lng+124) > 0.1 {
		t.Errorf("midpoint = %+v, want about (50, -124)", mp.Midpoint)
	}
}

func TestMeetingPointService_Optimize_NoResolvedMembers(t *testing.T) {
	repo := &mockGroupRepo{listMembersFn: func(context.Context, string) ([]domain.Member, error) {
		return []domain.Member{{ID: "m1"}}, nil
	}}
	opt := &mockOptimizer{}
	svc := usecases.NewMeetingPointService(repo, &mockMeetingPointRepo{}, opt, nil, nil, nil, 10)

	_, err := svc.Optimize(context.Background(), groupID, 0)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if opt.gotMembers != nil {
		t.Error("optimizer must not run without members")
	}
}

func TestMeetingPointService_Optimize_IterationLimit(t *testing.T) {
	repo := &mockGroupRepo{listMembersFn: func(context.Context, string) ([]domain.Member, error) {
		return resolvedMembers(), nil
	}}
	svc := usecases.NewMeetingPointService(repo, &mockMeetingPointRepo{}, &mockOptimizer{}, nil, nil, nil, 10)

	_, err := svc.Optimize(context.Background(), groupID, usecases.MaxIterationsLimit+1)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMeetingPointService_Compute(t *testing.T) {
	repo := &mockGroupRepo{
		getByIDFn: func(_ context.Context, id string) (*domain.Group, error) {
			return &domain.Group{ID: id, ActivityType: "bar"}, nil
		},
		listMembersFn: func(context.Context, string) ([]domain.Member, error) {
			return resolvedMembers(), nil
		},
	}
	points := &mockMeetingPointRepo{}
	search := &mockVenueSearch{searchFn: func(_ context.Context, p domain.GeoPoint, category string, _ float64, _ int) ([]domain.Venue, error) {
		if category != "bar" {
			t.Errorf("category = %q, want group activity type", category)
		}
		return []domain.Venue{{PlaceID: "v1", Name: "The Diamond", Location: p}}, nil
	}}
	pub := &mockPublisher{}
	venues := usecases.NewVenueService(search, nil, usecases.VenueConfig{DefaultCategory: "cafe"})

	// A uniform oracle keeps the optimizer at the midpoint.
	opt := meetpoint.New(oracleFunc(func() (float64, error) { return 10, nil }))
	svc := usecases.NewMeetingPointService(repo, points, opt, venues, pub, nil, 10)

	mp, err := svc.Compute(context.Background(), groupID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mp.Venues) != 1 || mp.Venues[0].PlaceID != "v1" {
		t.Errorf("venues not attached: %+v", mp.Venues)
	}
	if !mp.Converged {
		t.Error("uniform travel times should converge")
	}
	if len(points.saved) != 1 {
		t.Errorf("saved %d meeting points, want 1", len(points.saved))
	}
	if len(pub.meetingPoints) != 1 {
		t.Errorf("published %d meeting points, want 1", len(pub.meetingPoints))
	}
}

func TestMeetingPointService_Compute_BestEffortSteps(t *testing.T) {
	repo := &mockGroupRepo{listMembersFn: func(context.Context, string) ([]domain.Member, error) {
		return resolvedMembers(), nil
	}}
	search := &mockVenueSearch{searchFn: func(context.Context, domain.GeoPoint, string, float64, int) ([]domain.Venue, error) {
		return nil, errors.New("places quota exceeded")
	}}
	points := &mockMeetingPointRepo{}
	pub := &mockPublisher{err: errors.New("nats down")}
	venues := usecases.NewVenueService(search, nil, usecases.VenueConfig{DefaultCategory: "cafe"})
	opt := &mockOptimizer{result: domain.OptimizationResult{Point: domain.GeoPoint{Lat: 50, Lng: -124}}}
	svc := usecases.NewMeetingPointService(repo, points, opt, venues, pub, nil, 10)

	mp, err := svc.Compute(context.Background(), groupID, 0)
	if err != nil {
		t.Fatalf("venue and publish failures must not fail Compute: %v", err)
	}
	if mp.Venues == nil || len(mp.Venues) != 0 {
		t.Errorf("venues = %+v, want empty list", mp.Venues)
	}
	if len(points.saved) != 1 {
		t.Error("meeting point should still be saved")
	}
}

func TestMeetingPointService_Compute_SaveFailure(t *testing.T) {
	repo := &mockGroupRepo{listMembersFn: func(context.Context, string) ([]domain.Member, error) {
		return resolvedMembers(), nil
	}}
	pub := &mockPublisher{}
	svc := usecases.NewMeetingPointService(repo, &mockMeetingPointRepo{saveErr: errors.New("disk full")}, &mockOptimizer{}, nil, pub, nil, 10)

	if _, err := svc.Compute(context.Background(), groupID, 0); err == nil {
		t.Fatal("expected save error")
	}
	if len(pub.meetingPoints) != 0 {
		t.Error("unsaved meeting point must not be published")
	}
}

func TestMeetingPointService_OptimizeAdHoc(t *testing.T) {
	opt := &mockOptimizer{result: domain.OptimizationResult{Point: domain.GeoPoint{Lat: 1, Lng: 1}}}
	svc := usecases.NewMeetingPointService(&mockGroupRepo{}, &mockMeetingPointRepo{}, opt, nil, nil, nil, 10)

	members := []domain.MemberLocation{
		{Point: domain.GeoPoint{Lat: 0, Lng: 0}, TravelMode: "WALKING"},
		{Point: domain.GeoPoint{Lat: 2, Lng: 2}},
	}
	mp, err := svc.OptimizeAdHoc(context.Background(), members, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.gotMaxIter != 4 {
		t.Errorf("max iterations = %d, want 4", opt.gotMaxIter)
	}
	if opt.gotMembers[0].TravelMode != domain.TravelModeWalking || opt.gotMembers[1].TravelMode != domain.TravelModeDriving {
		t.Errorf("travel modes not normalized: %+v", opt.gotMembers)
	}
	if members[0].TravelMode != "WALKING" {
		t.Error("caller slice must not be modified")
	}
	if mp.GroupID != "" || mp.MemberCount != 2 {
		t.Errorf("unexpected meeting point: %+v", mp)
	}

	if _, err := svc.OptimizeAdHoc(context.Background(), nil, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty members: expected ErrInvalidArgument, got %v", err)
	}
	bad := []domain.MemberLocation{{Point: domain.GeoPoint{Lat: -91}}}
	if _, err := svc.OptimizeAdHoc(context.Background(), bad, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("bad point: expected ErrInvalidArgument, got %v", err)
	}
}

func TestMeetingPointService_Midpoint(t *testing.T) {
	svc := usecases.NewMeetingPointService(&mockGroupRepo{}, &mockMeetingPointRepo{}, &mockOptimizer{}, nil, nil, nil, 10)

	p, err := svc.Midpoint([]domain.GeoPoint{{Lat: 10, Lng: 179}, {Lat: 10, Lng: -179}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(math.Abs(p.Lng)-180) > 1e-6 {
		t.Errorf("midpoint across the antimeridian = %+v", p)
	}

	if _, err := svc.Midpoint(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMeetingPointService_Latest(t *testing.T) {
	points := &mockMeetingPointRepo{latestFn: func(_ context.Context, gid string) (*domain.MeetingPoint, error) {
		return &domain.MeetingPoint{GroupID: gid}, nil
	}}
	svc := usecases.NewMeetingPointService(&mockGroupRepo{}, points, &mockOptimizer{}, nil, nil, nil, 10)

	mp, err := svc.Latest(context.Background(), groupID)
	if err != nil || mp.GroupID != groupID {
		t.Fatalf("Latest = %+v, %v", mp, err)
	}
	if _, err := svc.Latest(context.Background(), "nope"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMeetingPointService_Latest_CachedUntilSave(t *testing.T) {
	loads := 0
	points := &mockMeetingPointRepo{latestFn: func(_ context.Context, gid string) (*domain.MeetingPoint, error) {
		loads++
		return &domain.MeetingPoint{GroupID: gid, IterationsUsed: loads}, nil
	}}
	cache := newMemCache()
	svc := usecases.NewMeetingPointService(&mockGroupRepo{}, points, &mockOptimizer{}, nil, nil, cache, 10)

	for i := 0; i < 2; i++ {
		mp, err := svc.Latest(context.Background(), groupID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mp.IterationsUsed != 1 {
			t.Errorf("expected the cached copy, got %+v", mp)
		}
	}
	if loads != 1 {
		t.Fatalf("repository loaded %d times, want 1", loads)
	}

	if err := svc.Save(context.Background(), &domain.MeetingPoint{GroupID: groupID}); err != nil {
		t.Fatalf("save: %v", err)
	}
	mp, err := svc.Latest(context.Background(), groupID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loads != 2 || mp.IterationsUsed != 2 {
		t.Errorf("save should evict the cached meeting point: loads=%d mp=%+v", loads, mp)
	}
}

type oracleFunc func() (float64, error)

func (f oracleFunc) TravelTime(context.Context, domain.GeoPoint, domain.TravelMode, domain.GeoPoint) (float64, error) {
	return f()
}
