package meetpoint

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/core/ports"
	"github.com/anupsamy/squadup/internal/pkg/geospatial"
)

// Optimizer refines a meeting point using travel times from an oracle.
// It holds no per-call state and is safe for concurrent use.
type Optimizer struct {
	oracle ports.TravelTimeOracle
	cfg    settings
}

// New creates an Optimizer backed by oracle.
func New(oracle ports.TravelTimeOracle, opts ...Option) *Optimizer {
	cfg := settings{
		convergenceMeters: DefaultConvergenceMeters,
		initialStep:       DefaultInitialStep,
		stepDecay:         DefaultStepDecay,
		minWeight:         DefaultMinWeight,
		concurrency:       DefaultConcurrency,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Optimizer{oracle: oracle, cfg: cfg}
}

// FindOptimalPoint searches for the point that balances members' travel times.
//
// The search starts at the spherical midpoint and runs at most maxIterations
// evaluate/adjust rounds (DefaultMaxIterations when maxIterations <= 0). The
// only error is domain.ErrInvalidArgument for an empty member list; oracle
// failures degrade the result and are reported through Converged.
func (o *Optimizer) FindOptimalPoint(ctx context.Context, members []domain.MemberLocation, maxIterations int) (domain.OptimizationResult, error) {
	if len(members) == 0 {
		return domain.OptimizationResult{}, fmt.Errorf("find optimal point: %w: no members", domain.ErrInvalidArgument)
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	if len(members) == 1 {
		return domain.OptimizationResult{Point: members[0].Point, Converged: true}, nil
	}

	points := make([]domain.GeoPoint, len(members))
	for i, m := range members {
		points[i] = m.Point
	}
	seed, err := SphericalMidpoint(points)
	if err != nil {
		return domain.OptimizationResult{}, err
	}

	if allSame(points, o.cfg.convergenceMeters) {
		return domain.OptimizationResult{Point: seed, Converged: true}, nil
	}

	candidate := seed
	for iteration := 1; iteration <= maxIterations; iteration++ {
		if ctx.Err() != nil {
			return o.abandoned(candidate, iteration-1, ctx.Err()), nil
		}

		samples := o.evaluate(ctx, members, candidate)
		if ctx.Err() != nil {
			return o.abandoned(candidate, iteration-1, ctx.Err()), nil
		}

		next, ok := o.adjust(samples, candidate, o.step(iteration))
		if !ok {
			o.cfg.logger.Debug("optimizer: no reachable members, using midpoint",
				"iteration", iteration, "members", len(members))
			return domain.OptimizationResult{Point: seed, IterationsUsed: iteration, Converged: false}, nil
		}

		moved := distanceMeters(candidate, next)
		candidate = next
		o.cfg.logger.Debug("optimizer: iteration",
			"iteration", iteration,
			"lat", candidate.Lat,
			"lng", candidate.Lng,
			"moved_m", moved,
		)

		if moved < o.cfg.convergenceMeters {
			return domain.OptimizationResult{Point: candidate, IterationsUsed: iteration, Converged: true}, nil
		}
	}

	return domain.OptimizationResult{Point: candidate, IterationsUsed: maxIterations, Converged: false}, nil
}

func (o *Optimizer) abandoned(candidate domain.GeoPoint, iterations int, cause error) domain.OptimizationResult {
	o.cfg.logger.Debug("optimizer: context done, returning best candidate",
		"iterations", iterations, "error", cause)
	return domain.OptimizationResult{Point: candidate, IterationsUsed: iterations, Converged: false}
}

// evaluate queries the oracle once per member concurrently. Every failure
// becomes a +Inf sample, so the group never returns an error.
func (o *Optimizer) evaluate(ctx context.Context, members []domain.MemberLocation, candidate domain.GeoPoint) []domain.TravelTimeSample {
	samples := make([]domain.TravelTimeSample, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.concurrency)
	for i, m := range members {
		g.Go(func() error {
			samples[i] = domain.TravelTimeSample{
				Member:    m,
				Candidate: candidate,
				Minutes:   o.sample(gctx, m, candidate),
			}
			return nil
		})
	}
	_ = g.Wait()

	return samples
}

func (o *Optimizer) sample(ctx context.Context, m domain.MemberLocation, candidate domain.GeoPoint) (minutes float64) {
	defer func() {
		if r := recover(); r != nil {
			o.cfg.logger.Warn("optimizer: oracle panicked", "panic", r)
			minutes = math.Inf(1)
		}
	}()

	minutes, err := o.oracle.TravelTime(ctx, m.Point, m.TravelMode, candidate)
	if err != nil {
		o.cfg.logger.Debug("optimizer: oracle call failed", "mode", m.TravelMode, "error", err)
		return math.Inf(1)
	}
	if math.IsNaN(minutes) || minutes < 0 || math.IsInf(minutes, 0) {
		return math.Inf(1)
	}
	return minutes
}

// adjust moves candidate toward the centroid of reachable members weighted
// by their travel time. It reports false when no member is reachable.
func (o *Optimizer) adjust(samples []domain.TravelTimeSample, candidate domain.GeoPoint, step float64) (domain.GeoPoint, bool) {
	points := make([]domain.GeoPoint, 0, len(samples))
	weights := make([]float64, 0, len(samples))
	for _, s := range samples {
		if math.IsInf(s.Minutes, 1) {
			continue
		}
		points = append(points, s.Member.Point)
		weights = append(weights, math.Max(s.Minutes, o.cfg.minWeight))
	}
	if len(points) == 0 {
		return domain.GeoPoint{}, false
	}

	target, err := WeightedSphericalMidpoint(points, weights)
	if err != nil {
		return candidate, true
	}

	lat, lng := geospatial.StepToward(candidate.Lat, candidate.Lng, target.Lat, target.Lng, step)
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return candidate, true
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}.Normalize(), true
}

// step returns the fraction moved on the given 1-based iteration.
func (o *Optimizer) step(iteration int) float64 {
	return o.cfg.initialStep * math.Pow(o.cfg.stepDecay, float64(iteration-1))
}
