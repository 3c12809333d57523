package pose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// LaneDirection is the orientation of the lane relative to the camera as
// seen through the vanishing point.
type LaneDirection struct {
	// Forward is the unit lane direction in camera coordinates.
	Forward r3.Vector

	// Rotation maps camera coordinates into a frame whose z axis runs down
	// the lane. Its rows are the side, up and forward axes.
	Rotation *mat.Dense

	// Heading is the yaw of the lane direction in radians, positive when
	// the vanishing point is right of the principal point.
	Heading float64

	// Pitch is positive when the vanishing point is above the principal
	// point.
	Pitch float64
}

// RotationFromVanishingPoint builds the lane orientation from the vanishing
// point of the two lane lines. Distortion is ignored because the vanishing
// point routinely lies outside the calibrated field of view.
func RotationFromVanishingPoint(vp r2.Point, in *Intrinsics) (*LaneDirection, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: no camera intrinsics", ErrPoseSolve)
	}
	if !finite(vp.X, vp.Y) {
		return nil, fmt.Errorf("%w: vanishing point %v is not finite", ErrPoseSolve, vp)
	}

	n := in.normalize(vp)
	forward := r3.Vector{X: n.X, Y: n.Y, Z: 1}.Normalize()

	side := r3.Vector{Y: 1}.Cross(forward)
	if side.Norm() < 1e-12 {
		return nil, fmt.Errorf("%w: lane direction is vertical", ErrPoseSolve)
	}
	side = side.Normalize()
	up := forward.Cross(side)

	return &LaneDirection{
		Forward: forward,
		Rotation: mat.NewDense(3, 3, []float64{
			side.X, side.Y, side.Z,
			up.X, up.Y, up.Z,
			forward.X, forward.Y, forward.Z,
		}),
		Heading: math.Atan2(forward.X, forward.Z),
		Pitch:   math.Atan2(-forward.Y, math.Hypot(forward.X, forward.Z)),
	}, nil
}
