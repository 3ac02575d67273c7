package meetpoint

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/pkg/geospatial"
)

// stubOracle counts calls and the distinct candidates it was asked about.
type stubOracle struct {
	fn func(ctx context.Context, origin domain.GeoPoint, mode domain.TravelMode, dest domain.GeoPoint) (float64, error)

	calls atomic.Int64
	mu    sync.Mutex
	seen  map[domain.GeoPoint]struct{}
}

func (s *stubOracle) TravelTime(ctx context.Context, origin domain.GeoPoint, mode domain.TravelMode, dest domain.GeoPoint) (float64, error) {
	s.calls.Add(1)
	s.mu.Lock()
	if s.seen == nil {
		s.seen = make(map[domain.GeoPoint]struct{})
	}
	s.seen[dest] = struct{}{}
	s.mu.Unlock()
	return s.fn(ctx, origin, mode, dest)
}

func (s *stubOracle) rounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func constant(minutes float64) *stubOracle {
	return &stubOracle{fn: func(context.Context, domain.GeoPoint, domain.TravelMode, domain.GeoPoint) (float64, error) {
		return minutes, nil
	}}
}

// byDistance reports minutes proportional to the great-circle distance,
// with walkers four times slower than drivers.
func byDistance() *stubOracle {
	return &stubOracle{fn: func(_ context.Context, o domain.GeoPoint, mode domain.TravelMode, d domain.GeoPoint) (float64, error) {
		km := geospatial.Haversine(o.Lat, o.Lng, d.Lat, d.Lng) / 1000
		if mode == domain.TravelModeWalking {
			return km * 4, nil
		}
		return km, nil
	}}
}

func members(points ...domain.GeoPoint) []domain.MemberLocation {
	out := make([]domain.MemberLocation, len(points))
	for i, p := range points {
		out[i] = domain.MemberLocation{Point: p, TravelMode: domain.TravelModeDriving}
	}
	return out
}

func TestFindOptimalPoint_NoMembers(t *testing.T) {
	oracle := constant(10)
	_, err := New(oracle).FindOptimalPoint(context.Background(), nil, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Zero(t, oracle.calls.Load())
}

func TestFindOptimalPoint_SingleMember(t *testing.T) {
	oracle := constant(10)
	p := domain.GeoPoint{Lat: 49.2827, Lng: -123.1207}

	res, err := New(oracle).FindOptimalPoint(context.Background(), members(p), 10)
	require.NoError(t, err)
	assert.Equal(t, p, res.Point)
	assert.True(t, res.Converged)
	assert.Zero(t, res.IterationsUsed)
	assert.Zero(t, oracle.calls.Load())
}

func TestFindOptimalPoint_IdenticalMembers(t *testing.T) {
	p := domain.GeoPoint{Lat: 49.2827, Lng: -123.1207}
	stubs := map[string]*stubOracle{
		"uniform":     constant(10),
		"unreachable": constant(math.Inf(1)),
		"failing": {fn: func(context.Context, domain.GeoPoint, domain.TravelMode, domain.GeoPoint) (float64, error) {
			return 0, errors.New("boom")
		}},
	}
	for name, oracle := range stubs {
		t.Run(name, func(t *testing.T) {
			res, err := New(oracle).FindOptimalPoint(context.Background(), members(p, p, p), 10)
			require.NoError(t, err)
			assert.InDelta(t, p.Lat, res.Point.Lat, 1e-6)
			assert.InDelta(t, p.Lng, res.Point.Lng, 1e-6)
			assert.True(t, res.Converged)
		})
	}
}

func TestFindOptimalPoint_AllUnreachable(t *testing.T) {
	pts := []domain.GeoPoint{{Lat: 49, Lng: -123}, {Lat: 51, Lng: -125}, {Lat: 50, Lng: -120}}
	mid, err := SphericalMidpoint(pts)
	require.NoError(t, err)

	stubs := map[string]*stubOracle{
		"inf": constant(math.Inf(1)),
		"error": {fn: func(context.Context, domain.GeoPoint, domain.TravelMode, domain.GeoPoint) (float64, error) {
			return 0, errors.New("upstream down")
		}},
		"nan":      constant(math.NaN()),
		"negative": constant(-3),
		"panic": {fn: func(context.Context, domain.GeoPoint, domain.TravelMode, domain.GeoPoint) (float64, error) {
			panic("oracle bug")
		}},
	}
	for name, oracle := range stubs {
		t.Run(name, func(t *testing.T) {
			res, err := New(oracle).FindOptimalPoint(context.Background(), members(pts...), 10)
			require.NoError(t, err)
			assert.False(t, res.Converged)
			assert.InDelta(t, mid.Lat, res.Point.Lat, 1e-9)
			assert.InDelta(t, mid.Lng, res.Point.Lng, 1e-9)
			assert.Equal(t, 1, oracle.rounds())
		})
	}
}

func TestFindOptimalPoint_OneMemberUnreachable(t *testing.T) {
	a := domain.GeoPoint{Lat: 49, Lng: -123}
	b := domain.GeoPoint{Lat: 51, Lng: -125}
	oracle := &stubOracle{fn: func(_ context.Context, o domain.GeoPoint, _ domain.TravelMode, _ domain.GeoPoint) (float64, error) {
		if o == b {
			return 0, errors.New("no route")
		}
		return 30, nil
	}}

	res, err := New(oracle).FindOptimalPoint(context.Background(), members(a, b), 10)
	require.NoError(t, err)
	assert.True(t, res.Point.Valid())
	// Only a is reachable, so the candidate drifts toward it.
	assert.Less(t, res.Point.Lat, 50.0)
}

func TestFindOptimalPoint_MaxIterationsHonoured(t *testing.T) {
	pts := []domain.GeoPoint{{Lat: 49, Lng: -123}, {Lat: 51, Lng: -125}}
	ml := []domain.MemberLocation{
		{Point: pts[0], TravelMode: domain.TravelModeWalking},
		{Point: pts[1], TravelMode: domain.TravelModeDriving},
	}
	oracle := byDistance()

	res, err := New(oracle, WithConvergenceMeters(0.001)).FindOptimalPoint(context.Background(), ml, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, oracle.rounds(), 2)
	assert.LessOrEqual(t, oracle.calls.Load(), int64(2*len(ml)))
	assert.Equal(t, 2, res.IterationsUsed)
	assert.False(t, res.Converged)
	assert.True(t, res.Point.Valid())
}

func TestFindOptimalPoint_DefaultIterations(t *testing.T) {
	ml := []domain.MemberLocation{
		{Point: domain.GeoPoint{Lat: 49, Lng: -123}, TravelMode: domain.TravelModeWalking},
		{Point: domain.GeoPoint{Lat: 51, Lng: -125}, TravelMode: domain.TravelModeDriving},
	}
	oracle := byDistance()

	res, err := New(oracle, WithConvergenceMeters(1e-9)).FindOptimalPoint(context.Background(), ml, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.IterationsUsed, DefaultMaxIterations)
	assert.LessOrEqual(t, oracle.rounds(), DefaultMaxIterations)
}

func TestFindOptimalPoint_WalkerPullsHarder(t *testing.T) {
	walker := domain.GeoPoint{Lat: 49, Lng: -123}
	driver := domain.GeoPoint{Lat: 51, Lng: -125}
	ml := []domain.MemberLocation{
		{Point: walker, TravelMode: domain.TravelModeWalking},
		{Point: driver, TravelMode: domain.TravelModeDriving},
	}

	res, err := New(byDistance()).FindOptimalPoint(context.Background(), ml, 10)
	require.NoError(t, err)

	toWalker := geospatial.Haversine(res.Point.Lat, res.Point.Lng, walker.Lat, walker.Lng)
	toDriver := geospatial.Haversine(res.Point.Lat, res.Point.Lng, driver.Lat, driver.Lng)
	assert.Less(t, toWalker, toDriver)
}

func TestFindOptimalPoint_UniformTwoMembers(t *testing.T) {
	oracle := constant(10)
	res, err := New(oracle).FindOptimalPoint(context.Background(),
		members(domain.GeoPoint{Lat: 49, Lng: -123}, domain.GeoPoint{Lat: 51, Lng: -125}), 10)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, res.Point.Lat, 0.1)
	assert.InDelta(t, -124.0, res.Point.Lng, 0.1)
	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.IterationsUsed)
}

func TestFindOptimalPoint_UniformTriangle(t *testing.T) {
	res, err := New(constant(10)).FindOptimalPoint(context.Background(), members(
		domain.GeoPoint{Lat: 49.2, Lng: -123.1},
		domain.GeoPoint{Lat: 49.3, Lng: -123.2},
		domain.GeoPoint{Lat: 49.1, Lng: -123.0},
	), 10)
	require.NoError(t, err)

	assert.InDelta(t, 49.2, res.Point.Lat, 0.1)
	assert.InDelta(t, -123.1, res.Point.Lng, 0.1)
	assert.True(t, res.Converged)
}

func TestFindOptimalPoint_Idempotent(t *testing.T) {
	ml := []domain.MemberLocation{
		{Point: domain.GeoPoint{Lat: 49.2, Lng: -123.1}, TravelMode: domain.TravelModeWalking},
		{Point: domain.GeoPoint{Lat: 49.3, Lng: -123.2}, TravelMode: domain.TravelModeDriving},
		{Point: domain.GeoPoint{Lat: 49.1, Lng: -123.0}, TravelMode: domain.TravelModeDriving},
	}
	opt := New(byDistance())

	first, err := opt.FindOptimalPoint(context.Background(), ml, 10)
	require.NoError(t, err)
	second, err := opt.FindOptimalPoint(context.Background(), ml, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFindOptimalPoint_StaysValidAcrossAntimeridian(t *testing.T) {
	ml := []domain.MemberLocation{
		{Point: domain.GeoPoint{Lat: -17, Lng: 179.5}, TravelMode: domain.TravelModeWalking},
		{Point: domain.GeoPoint{Lat: -18, Lng: -179.5}, TravelMode: domain.TravelModeDriving},
		{Point: domain.GeoPoint{Lat: 89.99, Lng: 0}, TravelMode: domain.TravelModeDriving},
	}
	res, err := New(byDistance()).FindOptimalPoint(context.Background(), ml, 10)
	require.NoError(t, err)
	assert.True(t, res.Point.Valid(), "%+v", res.Point)
}

func TestFindOptimalPoint_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	oracle := constant(10)
	pts := []domain.GeoPoint{{Lat: 49, Lng: -123}, {Lat: 51, Lng: -125}}
	mid, err := SphericalMidpoint(pts)
	require.NoError(t, err)

	res, err := New(oracle).FindOptimalPoint(ctx, members(pts...), 10)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Zero(t, res.IterationsUsed)
	assert.Equal(t, mid, res.Point)
	assert.Zero(t, oracle.calls.Load())
}

func TestFindOptimalPoint_CancelledMidIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n atomic.Int64
	oracle := &stubOracle{fn: func(ctx context.Context, o domain.GeoPoint, _ domain.TravelMode, d domain.GeoPoint) (float64, error) {
		// Cancel during the second round.
		if n.Add(1) == 3 {
			cancel()
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return geospatial.Haversine(o.Lat, o.Lng, d.Lat, d.Lng) / 1000 * float64(1+n.Load()%2), nil
	}}

	res, err := New(oracle, WithConcurrency(1), WithConvergenceMeters(1e-9)).
		FindOptimalPoint(ctx, members(domain.GeoPoint{Lat: 49, Lng: -123}, domain.GeoPoint{Lat: 51, Lng: -125}), 10)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 1, res.IterationsUsed)
	assert.True(t, res.Point.Valid())
}

func TestFindOptimalPoint_ConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int64
	oracle := &stubOracle{fn: func(context.Context, domain.GeoPoint, domain.TravelMode, domain.GeoPoint) (float64, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		return 10, nil
	}}

	pts := make([]domain.GeoPoint, 20)
	for i := range pts {
		pts[i] = domain.GeoPoint{Lat: 49 + float64(i)*0.01, Lng: -123}
	}
	_, err := New(oracle, WithConcurrency(3)).FindOptimalPoint(context.Background(), members(pts...), 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestStepSchedule(t *testing.T) {
	o := New(constant(1), WithInitialStep(0.8), WithStepDecay(0.5))
	assert.InDelta(t, 0.8, o.step(1), 1e-12)
	assert.InDelta(t, 0.4, o.step(2), 1e-12)
	assert.InDelta(t, 0.2, o.step(3), 1e-12)

	// Out-of-range options keep defaults.
	d := New(constant(1), WithInitialStep(2), WithStepDecay(0), WithConcurrency(-1), WithMinWeight(-5))
	assert.Equal(t, DefaultInitialStep, d.cfg.initialStep)
	assert.Equal(t, DefaultStepDecay, d.cfg.stepDecay)
	assert.Equal(t, DefaultConcurrency, d.cfg.concurrency)
	assert.Equal(t, DefaultMinWeight, d.cfg.minWeight)
}
