package meetpoint

import "log/slog"

const (
	// DefaultMaxIterations caps the evaluate/adjust loop when callers pass 0.
	DefaultMaxIterations = 10
	// DefaultConvergenceMeters is the movement below which the search stops.
	DefaultConvergenceMeters = 10.0
	// DefaultInitialStep is the fraction of the way the candidate moves toward
	// the weighted target on the first iteration.
	DefaultInitialStep = 0.5
	// DefaultStepDecay shrinks the step every iteration.
	DefaultStepDecay = 0.6
	// DefaultMinWeight floors each member's weight, in minutes.
	DefaultMinWeight = 1.0
	// DefaultConcurrency bounds in-flight oracle calls per evaluation.
	DefaultConcurrency = 8
)

type settings struct {
	convergenceMeters float64
	initialStep       float64
	stepDecay         float64
	minWeight         float64
	concurrency       int
	logger            *slog.Logger
}

// Option configures an Optimizer.
type Option func(*settings)

// WithConvergenceMeters sets the movement threshold that counts as converged.
func WithConvergenceMeters(m float64) Option {
	return func(s *settings) {
		if m > 0 {
			s.convergenceMeters = m
		}
	}
}

// WithInitialStep sets the first-iteration step fraction, in (0, 1].
func WithInitialStep(f float64) Option {
	return func(s *settings) {
		if f > 0 && f <= 1 {
			s.initialStep = f
		}
	}
}

// WithStepDecay sets the per-iteration step multiplier, in (0, 1].
func WithStepDecay(f float64) Option {
	return func(s *settings) {
		if f > 0 && f <= 1 {
			s.stepDecay = f
		}
	}
}

// WithMinWeight sets the travel-time floor used when weighting members.
func WithMinWeight(minutes float64) Option {
	return func(s *settings) {
		if minutes > 0 {
			s.minWeight = minutes
		}
	}
}

// WithConcurrency bounds concurrent oracle calls within one evaluation.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger used for per-iteration debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
