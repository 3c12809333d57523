package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

var (
	// ErrDegenerateInput is returned when a line would have a zero-length
	// direction.
	ErrDegenerateInput = errors.New("degenerate line input")

	// ErrDetectionFailure is returned when lane lines cannot produce a
	// vanishing point or reference point for a frame.
	ErrDetectionFailure = errors.New("lane detection failure")
)

// Line is an infinite 2D line through Origin along a unit Direction.
type Line struct {
	origin r2.Point
	dir    r2.Point
}

// NewLine creates a line through origin along dir. The direction is
// normalized; a zero or non-finite direction returns ErrDegenerateInput.
func NewLine(origin, dir r2.Point) (Line, error) {
	norm := dir.Norm()
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return Line{}, fmt.Errorf("direction %v: %w", dir, ErrDegenerateInput)
	}
	return Line{origin: origin, dir: dir.Mul(1 / norm)}, nil
}

// FromPoints creates the line through a and b with a as the origin and a
// direction pointing from a toward b.
//
// Returns ErrDegenerateInput when a and b coincide.
func FromPoints(a, b r2.Point) (Line, error) {
	if a == b {
		return Line{}, fmt.Errorf("points %v and %v coincide: %w", a, b, ErrDegenerateInput)
	}
	return NewLine(a, b.Sub(a))
}

// HorizontalLine returns the line y = row, directed toward +X.
func HorizontalLine(row float64) Line {
	return Line{origin: r2.Point{X: 0, Y: row}, dir: r2.Point{X: 1, Y: 0}}
}

// Origin returns the point the line was constructed from.
func (l Line) Origin() r2.Point { return l.origin }

// Direction returns the unit direction of the line.
func (l Line) Direction() r2.Point { return l.dir }

// PointAt returns origin + t*direction.
func (l Line) PointAt(t float64) r2.Point {
	return l.origin.Add(l.dir.Mul(t))
}

// Distance returns the perpendicular distance from p to the line.
func (l Line) Distance(p r2.Point) float64 {
	return math.Abs(l.dir.Cross(p.Sub(l.origin)))
}

// Slope returns dy/dx of the line. Vertical lines return ±Inf.
func (l Line) Slope() float64 {
	return l.dir.Y / l.dir.X
}

// String formats the line in parametric form.
func (l Line) String() string {
	return fmt.Sprintf("(%g,%g)+(%g,%g)*t", l.origin.X, l.origin.Y, l.dir.X, l.dir.Y)
}

// Intersection returns the point where a and b cross.
//
// The second return value is false when the lines are parallel, which is
// detected only by an exactly zero determinant. A line intersected with
// itself is parallel and reports false. Non-finite results from nearly
// parallel lines are also reported as false.
func Intersection(a, b Line) (r2.Point, bool) {
	x1, y1 := a.origin.X, a.origin.Y
	a1, b1 := a.dir.X, a.dir.Y
	x2, y2 := b.origin.X, b.origin.Y
	a2, b2 := b.dir.X, b.dir.Y

	det := a1*b2 - a2*b1
	if det == 0 {
		return r2.Point{}, false
	}

	t2 := (b1*(x2-x1) - a1*(y2-y1)) / det
	p := b.PointAt(t2)
	if !isFinite(p) {
		return r2.Point{}, false
	}
	return p, true
}

func isFinite(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
