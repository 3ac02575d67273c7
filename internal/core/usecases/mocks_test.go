package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/anupsamy/squadup/internal/core/domain"
)

// --- Mock GroupRepository ---

type mockGroupRepo struct {
	createFn         func(ctx context.Context, g *domain.Group) error
	getByIDFn        func(ctx context.Context, id string) (*domain.Group, error)
	addMemberFn      func(ctx context.Context, m *domain.Member) error
	getMemberFn      func(ctx context.Context, groupID, memberID string) (*domain.Member, error)
	updateLocationFn func(ctx context.Context, m *domain.Member) error
	listMembersFn    func(ctx context.Context, groupID string) ([]domain.Member, error)
}

func (m *mockGroupRepo) Create(ctx context.Context, g *domain.Group) error {
	if m.createFn != nil {
		return m.createFn(ctx, g)
	}
	return nil
}

func (m *mockGroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Group{ID: id, Name: "squad"}, nil
}

func (m *mockGroupRepo) AddMember(ctx context.Context, member *domain.Member) error {
	if m.addMemberFn != nil {
		return m.addMemberFn(ctx, member)
	}
	return nil
}

func (m *mockGroupRepo) GetMember(ctx context.Context, groupID, memberID string) (*domain.Member, error) {
	if m.getMemberFn != nil {
		return m.getMemberFn(ctx, groupID, memberID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockGroupRepo) UpdateMemberLocation(ctx context.Context, member *domain.Member) error {
	if m.updateLocationFn != nil {
		return m.updateLocationFn(ctx, member)
	}
	return nil
}

func (m *mockGroupRepo) ListMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	if m.listMembersFn != nil {
		return m.listMembersFn(ctx, groupID)
	}
	return nil, nil
}

// --- Mock MeetingPointRepository ---

type mockMeetingPointRepo struct {
	saved    []*domain.MeetingPoint
	saveErr  error
	latestFn func(ctx context.Context, groupID string) (*domain.MeetingPoint, error)
}

func (m *mockMeetingPointRepo) Save(_ context.Context, mp *domain.MeetingPoint) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, mp)
	return nil
}

func (m *mockMeetingPointRepo) Latest(ctx context.Context, groupID string) (*domain.MeetingPoint, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, groupID)
	}
	return nil, domain.ErrNotFound
}

// --- Mock optimizer ---

type mockOptimizer struct {
	gotMembers []domain.MemberLocation
	gotMaxIter int
	result     domain.OptimizationResult
	err        error
}

func (m *mockOptimizer) FindOptimalPoint(_ context.Context, members []domain.MemberLocation, maxIterations int) (domain.OptimizationResult, error) {
	m.gotMembers = members
	m.gotMaxIter = maxIterations
	return m.result, m.err
}

// --- Mock VenueSearch ---

type mockVenueSearch struct {
	calls    int
	searchFn func(ctx context.Context, p domain.GeoPoint, category string, radius float64, limit int) ([]domain.Venue, error)
}

func (m *mockVenueSearch) SearchNearby(ctx context.Context, p domain.GeoPoint, category string, radius float64, limit int) ([]domain.Venue, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, p, category, radius, limit)
	}
	return []domain.Venue{}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu            sync.Mutex
	memberEvents  []*domain.MemberUpdatedEvent
	meetingPoints []*domain.MeetingPoint
	err           error
}

func (m *mockPublisher) PublishMemberUpdated(_ context.Context, e *domain.MemberUpdatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberEvents = append(m.memberEvents, e)
	return m.err
}

func (m *mockPublisher) PublishMeetingPoint(_ context.Context, mp *domain.MeetingPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetingPoints = append(m.meetingPoints, mp)
	return m.err
}

// --- In-memory CacheService ---

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}
