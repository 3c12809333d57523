package pose

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/spf13/afero"
	"gonum.org/v1/gonum/mat"
)

// DistortionTerms is the number of Brown-Conrady coefficients the model
// uses, in the order k1, k2, p1, p2, k3.
const DistortionTerms = 5

const (
	maxIntrinsicsSize  = 1 << 20
	undistortMaxIter   = 50
	undistortTolerance = 1e-14
)

// MatrixInfo is a row-major matrix stored with its shape.
type MatrixInfo struct {
	Shape  []int     `json:"shape"`
	Matrix []float64 `json:"matrix"`
}

type intrinsicsFile struct {
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	CameraMatrix MatrixInfo `json:"camera_matrix"`
	Distortion   MatrixInfo `json:"distortion"`
}

// Intrinsics holds a calibrated pinhole camera with lens distortion.
// It is read-only once loaded and safe to share between goroutines.
type Intrinsics struct {
	Width  int
	Height int

	FX, FY float64
	CX, CY float64
	Skew   float64

	// Distortion holds k1, k2, p1, p2, k3.
	Distortion [DistortionTerms]float64
}

// LoadIntrinsics reads a calibration file written as JSON with the camera
// matrix and distortion coefficients stored as shaped matrices.
func LoadIntrinsics(fs afero.Fs, path string) (*Intrinsics, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open intrinsics: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxIntrinsicsSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read intrinsics: %w", err)
	}
	if len(data) > maxIntrinsicsSize {
		return nil, fmt.Errorf("intrinsics file %s exceeds %d bytes", path, maxIntrinsicsSize)
	}

	var raw intrinsicsFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse intrinsics %s: %w", path, err)
	}

	in, err := raw.intrinsics()
	if err != nil {
		return nil, fmt.Errorf("intrinsics %s: %w", path, err)
	}
	return in, nil
}

func (f intrinsicsFile) intrinsics() (*Intrinsics, error) {
	if err := f.CameraMatrix.check(); err != nil {
		return nil, fmt.Errorf("camera_matrix: %w", err)
	}
	if len(f.CameraMatrix.Shape) != 2 || f.CameraMatrix.Shape[0] != 3 || f.CameraMatrix.Shape[1] != 3 {
		return nil, fmt.Errorf("camera_matrix must be 3x3, got shape %v", f.CameraMatrix.Shape)
	}
	if err := f.Distortion.check(); err != nil {
		return nil, fmt.Errorf("distortion: %w", err)
	}
	if len(f.Distortion.Matrix) > DistortionTerms {
		return nil, fmt.Errorf("distortion has %d terms, at most %d supported", len(f.Distortion.Matrix), DistortionTerms)
	}

	k := f.CameraMatrix.Matrix
	in := &Intrinsics{
		Width:  f.Width,
		Height: f.Height,
		FX:     k[0],
		Skew:   k[1],
		CX:     k[2],
		FY:     k[4],
		CY:     k[5],
	}
	copy(in.Distortion[:], f.Distortion.Matrix)

	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

func (m MatrixInfo) check() error {
	if len(m.Shape) == 0 {
		if len(m.Matrix) == 0 {
			return nil
		}
		return fmt.Errorf("missing shape for %d values", len(m.Matrix))
	}
	n := 1
	for _, d := range m.Shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", m.Shape)
		}
		n *= d
	}
	if n != len(m.Matrix) {
		return fmt.Errorf("shape %v holds %d values, got %d", m.Shape, n, len(m.Matrix))
	}
	return nil
}

// Validate checks that the focal lengths are positive and that every
// parameter is finite.
func (in *Intrinsics) Validate() error {
	if !(in.FX > 0) || !(in.FY > 0) {
		return fmt.Errorf("focal lengths must be positive, got fx=%v fy=%v", in.FX, in.FY)
	}
	values := append([]float64{in.FX, in.FY, in.CX, in.CY, in.Skew}, in.Distortion[:]...)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite camera parameter %v", v)
		}
	}
	if in.Width < 0 || in.Height < 0 {
		return fmt.Errorf("negative image size %dx%d", in.Width, in.Height)
	}
	return nil
}

// Matrix returns the 3x3 camera matrix K.
func (in *Intrinsics) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		in.FX, in.Skew, in.CX,
		0, in.FY, in.CY,
		0, 0, 1,
	})
}

// normalize applies K^-1 to a pixel.
func (in *Intrinsics) normalize(p r2.Point) r2.Point {
	y := (p.Y - in.CY) / in.FY
	x := (p.X - in.CX - in.Skew*y) / in.FX
	return r2.Point{X: x, Y: y}
}

// denormalize applies K to a normalized image point.
func (in *Intrinsics) denormalize(p r2.Point) r2.Point {
	return r2.Point{
		X: in.FX*p.X + in.Skew*p.Y + in.CX,
		Y: in.FY*p.Y + in.CY,
	}
}

// distort maps an ideal normalized point to its distorted position.
func (in *Intrinsics) distort(p r2.Point) r2.Point {
	k1, k2, p1, p2, k3 := in.Distortion[0], in.Distortion[1], in.Distortion[2], in.Distortion[3], in.Distortion[4]

	rsq := p.X*p.X + p.Y*p.Y
	radial := 1 + k1*rsq + k2*rsq*rsq + k3*rsq*rsq*rsq
	dx := 2*p1*p.X*p.Y + p2*(rsq+2*p.X*p.X)
	dy := p1*(rsq+2*p.Y*p.Y) + 2*p2*p.X*p.Y
	return r2Point(p.X*radial+dx, p.Y*radial+dy)
}

// undistortNormalized inverts distort by fixed-point iteration.
func (in *Intrinsics) undistortNormalized(d r2.Point) r2.Point {
	k1, k2, p1, p2, k3 := in.Distortion[0], in.Distortion[1], in.Distortion[2], in.Distortion[3], in.Distortion[4]

	x, y := d.X, d.Y
	for range undistortMaxIter {
		rsq := x*x + y*y
		icdist := 1 / (1 + k1*rsq + k2*rsq*rsq + k3*rsq*rsq*rsq)
		dx := 2*p1*x*y + p2*(rsq+2*x*x)
		dy := p1*(rsq+2*y*y) + 2*p2*x*y
		nx := (d.X - dx) * icdist
		ny := (d.Y - dy) * icdist
		change := (nx-x)*(nx-x) + (ny-y)*(ny-y)
		x, y = nx, ny
		if change < undistortTolerance {
			break
		}
	}
	return r2Point(x, y)
}

// Undistort removes lens distortion from a pixel position and returns the
// pixel an ideal pinhole camera would have recorded.
func (in *Intrinsics) Undistort(p r2.Point) r2.Point {
	return in.denormalize(in.undistortNormalized(in.normalize(p)))
}

// Project maps a camera-frame point to pixels, applying lens distortion.
// It reports false for points on or behind the image plane.
func (in *Intrinsics) Project(p r3.Vector) (r2.Point, bool) {
	if p.Z <= 0 {
		return r2.Point{}, false
	}
	ideal := r2Point(p.X/p.Z, p.Y/p.Z)
	return in.denormalize(in.distort(ideal)), true
}

func r2Point(x, y float64) r2.Point { return r2.Point{X: x, Y: y} }
