package pose

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// ErrPoseSolve is returned when no pose can be recovered from the given
// correspondences.
var ErrPoseSolve = errors.New("pose solve failed")

const (
	// minCorrespondences is the number of points a planar homography needs.
	minCorrespondences = 4

	planarTolerance    = 1e-9
	collinearTolerance = 1e-9
	rankTolerance      = 1e-10

	refineEvaluations = 4000
	behindPenalty     = 1e12
)

// Pose is a camera pose relative to the lane, p_cam = R*p_world + t.
type Pose struct {
	Rotation       *mat.Dense
	RotationVector r3.Vector
	Translation    r3.Vector

	// ReprojectionError is the RMS pixel distance between the observed
	// image points and the projected world points.
	ReprojectionError float64
}

// LateralOffset returns the signed distance of the camera from the lane
// center in world units, positive to the right.
func (p *Pose) LateralOffset() float64 {
	return -p.Translation.X
}

// CameraPosition returns the camera center in world coordinates.
func (p *Pose) CameraPosition() r3.Vector {
	return mulVec(p.Rotation.T(), p.Translation).Mul(-1)
}

// SolvePlanar recovers the pose of a camera observing coplanar world points
// (Z = 0) at the given image positions.
func SolvePlanar(corr []Correspondence, in *Intrinsics) (*Pose, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: no camera intrinsics", ErrPoseSolve)
	}
	if len(corr) < minCorrespondences {
		return nil, fmt.Errorf("%w: %d correspondences, need %d", ErrPoseSolve, len(corr), minCorrespondences)
	}

	world := make([]r2.Point, len(corr))
	image := make([]r2.Point, len(corr))
	for i, c := range corr {
		if !finite(c.World.X, c.World.Y, c.World.Z, c.Image.X, c.Image.Y) {
			return nil, fmt.Errorf("%w: correspondence %d is not finite", ErrPoseSolve, i)
		}
		if math.Abs(c.World.Z) > planarTolerance {
			return nil, fmt.Errorf("%w: world point %d is off the ground plane", ErrPoseSolve, i)
		}
		world[i] = r2.Point{X: c.World.X, Y: c.World.Y}
		image[i] = in.undistortNormalized(in.normalize(c.Image))
	}

	if collinearTriple(world) {
		return nil, fmt.Errorf("%w: three world points are collinear", ErrPoseSolve)
	}
	if collinearTriple(image) {
		return nil, fmt.Errorf("%w: three image points are collinear", ErrPoseSolve)
	}

	h, err := homography(world, image)
	if err != nil {
		return nil, err
	}

	rot, t, err := decompose(h)
	if err != nil {
		return nil, err
	}

	return refine(corr, in, VectorFromRotation(rot), t), nil
}

// homography estimates H with image ~ H * [X Y 1]^T by DLT.
func homography(world, image []r2.Point) (*mat.Dense, error) {
	n := len(world)
	a := mat.NewDense(2*n, 9, nil)
	for i := range world {
		X, Y := world[i].X, world[i].Y
		x, y := image[i].X, image[i].Y
		a.SetRow(2*i, []float64{X, Y, 1, 0, 0, 0, -x * X, -x * Y, -x})
		a.SetRow(2*i+1, []float64{0, 0, 0, X, Y, 1, -y * X, -y * Y, -y})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, fmt.Errorf("%w: homography factorization did not converge", ErrPoseSolve)
	}
	values := svd.Values(nil)
	if values[0] == 0 || values[7]/values[0] < rankTolerance {
		return nil, fmt.Errorf("%w: correspondences are degenerate", ErrPoseSolve)
	}

	var v mat.Dense
	svd.VTo(&v)
	h := mat.NewDense(3, 3, nil)
	for i := 0; i < 9; i++ {
		h.Set(i/3, i%3, v.At(i, 8))
	}
	return h, nil
}

// decompose splits a plane-to-normalized-image homography into R and t.
func decompose(h *mat.Dense) (*mat.Dense, r3.Vector, error) {
	col := func(j int) r3.Vector {
		return r3.Vector{X: h.At(0, j), Y: h.At(1, j), Z: h.At(2, j)}
	}
	h1, h2, h3 := col(0), col(1), col(2)

	norm := h1.Norm() + h2.Norm()
	if norm == 0 {
		return nil, r3.Vector{}, fmt.Errorf("%w: homography has no rotation part", ErrPoseSolve)
	}
	lambda := 2 / norm
	// The plane must lie in front of the camera.
	if h3.Z < 0 {
		lambda = -lambda
	}

	c1 := h1.Mul(lambda)
	c2 := h2.Mul(lambda)
	c3 := c1.Cross(c2)
	t := h3.Mul(lambda)

	approx := mat.NewDense(3, 3, []float64{
		c1.X, c2.X, c3.X,
		c1.Y, c2.Y, c3.Y,
		c1.Z, c2.Z, c3.Z,
	})
	rot, ok := orthonormalize(approx)
	if !ok {
		return nil, r3.Vector{}, fmt.Errorf("%w: rotation factorization did not converge", ErrPoseSolve)
	}
	return rot, t, nil
}

// refine polishes the linear estimate by minimizing the squared pixel
// reprojection error over the rotation vector and translation. The
// refined pose is kept only when it lowers the error.
func refine(corr []Correspondence, in *Intrinsics, rvec, t r3.Vector) *Pose {
	cost := func(x []float64) float64 {
		rot := RotationFromVector(r3.Vector{X: x[0], Y: x[1], Z: x[2]})
		return sumSquaredError(corr, in, rot, r3.Vector{X: x[3], Y: x[4], Z: x[5]})
	}

	initial := []float64{rvec.X, rvec.Y, rvec.Z, t.X, t.Y, t.Z}
	best := initial
	bestF := cost(initial)

	problem := optimize.Problem{Func: cost}
	settings := &optimize.Settings{FuncEvaluations: refineEvaluations}
	// Evaluation limits surface as errors but still carry the best location.
	result, _ := optimize.Minimize(problem, append([]float64(nil), initial...), settings, &optimize.NelderMead{})
	if result != nil && result.F < bestF && finite(result.X...) {
		best, bestF = result.X, result.F
	}

	rv := r3.Vector{X: best[0], Y: best[1], Z: best[2]}
	return &Pose{
		Rotation:          RotationFromVector(rv),
		RotationVector:    rv,
		Translation:       r3.Vector{X: best[3], Y: best[4], Z: best[5]},
		ReprojectionError: math.Sqrt(bestF / float64(len(corr))),
	}
}

func sumSquaredError(corr []Correspondence, in *Intrinsics, rot mat.Matrix, t r3.Vector) float64 {
	var sum float64
	for _, c := range corr {
		p, ok := in.Project(mulVec(rot, c.World).Add(t))
		if !ok {
			return behindPenalty
		}
		d := p.Sub(c.Image)
		sum += d.Dot(d)
	}
	return sum
}

// collinearTriple reports whether any three points lie on a common line,
// relative to the spread of the set.
func collinearTriple(points []r2.Point) bool {
	var scale float64
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			d := points[j].Sub(points[i])
			scale = math.Max(scale, d.Dot(d))
		}
	}
	if scale == 0 {
		return true
	}

	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			for k := j + 1; k < len(points); k++ {
				area := points[j].Sub(points[i]).Cross(points[k].Sub(points[i]))
				if math.Abs(area) <= collinearTolerance*scale {
					return true
				}
			}
		}
	}
	return false
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
