package detection

import (
	"fmt"
	"image"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/lane-drift/internal/geometry"
)

// Lanes holds one frame's detection artifacts. Fields are filled in as far
// as detection got, so a failed frame still carries its raw points.
type Lanes struct {
	LeftPoints  []r2.Point
	RightPoints []r2.Point

	Left  *LineFit
	Right *LineFit

	VanishingPoint r2.Point
}

// Found reports whether both lane lines were fitted.
func (l *Lanes) Found() bool {
	return l != nil && l.Left != nil && l.Right != nil
}

// Detector finds both lane lines in edge images using fixed search strips.
type Detector struct {
	left      []SearchStrip
	right     []SearchStrip
	estimator *Estimator
}

// NewDetector returns a detector for the given strip sets.
func NewDetector(left, right []SearchStrip, estimator *Estimator) *Detector {
	return &Detector{left: left, right: right, estimator: estimator}
}

// Strips returns the search strips for side.
func (d *Detector) Strips(side Side) []SearchStrip {
	if side == Left {
		return d.left
	}
	return d.right
}

// Detect scans the strips, fits both lane lines and intersects them.
//
// The returned Lanes is never nil. When a lane line cannot be fitted or the
// two lines do not converge, the error wraps geometry.ErrDetectionFailure.
func (d *Detector) Detect(edges *image.Gray) (*Lanes, error) {
	lanes := &Lanes{
		LeftPoints:  FindEdgePoints(edges, d.left, Left),
		RightPoints: FindEdgePoints(edges, d.right, Right),
	}

	left, err := d.estimator.Fit(lanes.LeftPoints)
	if err != nil {
		return lanes, fmt.Errorf("%s lane: %w: %w", Left, geometry.ErrDetectionFailure, err)
	}
	lanes.Left = &left

	right, err := d.estimator.Fit(lanes.RightPoints)
	if err != nil {
		return lanes, fmt.Errorf("%s lane: %w: %w", Right, geometry.ErrDetectionFailure, err)
	}
	lanes.Right = &right

	vp, err := geometry.VanishingPoint(left.Line, right.Line)
	if err != nil {
		return lanes, err
	}
	lanes.VanishingPoint = vp

	return lanes, nil
}
