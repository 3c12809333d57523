package geometry

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// VanishingPoint returns the image point where the left and right lane
// lines converge. Parallel lines return ErrDetectionFailure.
func VanishingPoint(left, right Line) (r2.Point, error) {
	p, ok := Intersection(left, right)
	if !ok {
		return r2.Point{}, fmt.Errorf("lane lines %v and %v do not converge: %w", left, right, ErrDetectionFailure)
	}
	return p, nil
}

// ReferencePointAtRow intersects lane with the horizontal line y = row.
// A horizontal lane line never reaches the row and returns
// ErrDetectionFailure.
func ReferencePointAtRow(lane Line, row float64) (r2.Point, error) {
	p, ok := Intersection(lane, HorizontalLine(row))
	if !ok {
		return r2.Point{}, fmt.Errorf("lane line %v does not cross row %g: %w", lane, row, ErrDetectionFailure)
	}
	return p, nil
}
