package detection

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/lane-drift/internal/geometry"
)

// ErrNoModelFound is returned when RANSAC finds no candidate line with a
// positive score.
var ErrNoModelFound = errors.New("no line model found")

// RANSACConfig controls the robust line estimator.
type RANSACConfig struct {
	// Iterations is the number of random two-point candidates tried.
	Iterations int `json:"iterations"`

	// Tolerance is the largest perpendicular distance, in pixels, at which
	// a point still supports a candidate.
	Tolerance float64 `json:"tolerance"`

	// Seed initialises the random generator for every fit.
	Seed uint64 `json:"seed"`
}

// DefaultRANSACConfig returns 100 iterations with a 4 pixel tolerance.
func DefaultRANSACConfig() RANSACConfig {
	return RANSACConfig{
		Iterations: 100,
		Tolerance:  4.0,
		Seed:       1,
	}
}

// Validate checks that the iteration count and tolerance are positive.
func (c RANSACConfig) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("ransac iterations %d must be positive", c.Iterations)
	}
	if !(c.Tolerance > 0) {
		return fmt.Errorf("ransac tolerance %v must be positive", c.Tolerance)
	}
	return nil
}

// LineFit is the best line RANSAC found for a point set.
type LineFit struct {
	Line geometry.Line

	// Score is the summed (tolerance - distance) of supporting points.
	Score float64

	// Inliers counts points within tolerance of Line.
	Inliers int
}

// Estimator fits lines with a fixed RANSACConfig. It holds no state between
// calls and is safe for concurrent use.
type Estimator struct {
	cfg RANSACConfig
}

// NewEstimator validates cfg and returns an estimator for it.
func NewEstimator(cfg RANSACConfig) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{cfg: cfg}, nil
}

// Config returns the estimator's configuration.
func (e *Estimator) Config() RANSACConfig { return e.cfg }

// Fit runs RANSAC on points with a generator freshly seeded from the config.
func (e *Estimator) Fit(points []r2.Point) (LineFit, error) {
	rng := rand.New(rand.NewPCG(e.cfg.Seed, e.cfg.Seed^0x9e3779b97f4a7c15))
	return FitLine(points, e.cfg.Iterations, e.cfg.Tolerance, rng)
}

// FitLine fits a line to points by random sample consensus.
//
// Each iteration draws two distinct indices uniformly at random, builds the
// line through them and scores it against every point. Candidates through
// coincident points are skipped. The best-scoring candidate wins; ties keep
// the earlier one.
//
// Returns ErrNoModelFound when fewer than two points are given or when no
// candidate scores above zero.
func FitLine(points []r2.Point, iterations int, tolerance float64, rng *rand.Rand) (LineFit, error) {
	n := len(points)
	if n < 2 {
		return LineFit{}, fmt.Errorf("%d points: %w", n, ErrNoModelFound)
	}

	var best LineFit
	for i := 0; i < iterations; i++ {
		a := rng.IntN(n)
		b := rng.IntN(n - 1)
		if b >= a {
			b++
		}

		candidate, err := geometry.FromPoints(points[a], points[b])
		if err != nil {
			continue
		}

		score, inliers := scoreLine(candidate, points, tolerance)
		if score > best.Score {
			best = LineFit{Line: candidate, Score: score, Inliers: inliers}
		}
	}

	if best.Score <= 0 {
		return LineFit{}, fmt.Errorf("%d iterations over %d points: %w", iterations, n, ErrNoModelFound)
	}
	return best, nil
}

// scoreLine sums tolerance - distance over the points within tolerance.
func scoreLine(l geometry.Line, points []r2.Point, tolerance float64) (float64, int) {
	var score float64
	inliers := 0
	for _, p := range points {
		d := l.Distance(p)
		if d <= tolerance {
			score += tolerance - d
			inliers++
		}
	}
	return score, inliers
}
