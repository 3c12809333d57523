package pose

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// RotationFromVector converts an axis-angle vector to a rotation matrix.
func RotationFromVector(w r3.Vector) *mat.Dense {
	theta := w.Norm()
	if theta < 1e-12 {
		return mat.NewDense(3, 3, []float64{
			1, -w.Z, w.Y,
			w.Z, 1, -w.X,
			-w.Y, w.X, 1,
		})
	}

	k := w.Mul(1 / theta)
	c, s := math.Cos(theta), math.Sin(theta)
	v := 1 - c
	return mat.NewDense(3, 3, []float64{
		c + k.X*k.X*v, k.X*k.Y*v - k.Z*s, k.X*k.Z*v + k.Y*s,
		k.Y*k.X*v + k.Z*s, c + k.Y*k.Y*v, k.Y*k.Z*v - k.X*s,
		k.Z*k.X*v - k.Y*s, k.Z*k.Y*v + k.X*s, c + k.Z*k.Z*v,
	})
}

// VectorFromRotation converts a rotation matrix to its axis-angle vector.
// Rotations by pi return one of the two equivalent axes.
func VectorFromRotation(r mat.Matrix) r3.Vector {
	trace := r.At(0, 0) + r.At(1, 1) + r.At(2, 2)
	cos := math.Max(-1, math.Min(1, (trace-1)/2))
	theta := math.Acos(cos)

	skew := r3.Vector{
		X: r.At(2, 1) - r.At(1, 2),
		Y: r.At(0, 2) - r.At(2, 0),
		Z: r.At(1, 0) - r.At(0, 1),
	}

	switch {
	case theta < 1e-12:
		return skew.Mul(0.5)
	case math.Pi-theta < 1e-6:
		return axisForHalfTurn(r).Mul(theta)
	default:
		return skew.Mul(theta / (2 * math.Sin(theta)))
	}
}

// axisForHalfTurn recovers k from R = 2kk^T - I.
func axisForHalfTurn(r mat.Matrix) r3.Vector {
	i := 0
	for j := 1; j < 3; j++ {
		if r.At(j, j) > r.At(i, i) {
			i = j
		}
	}

	var k [3]float64
	k[i] = math.Sqrt(math.Max(0, (r.At(i, i)+1)/2))
	for j := 0; j < 3; j++ {
		if j != i {
			k[j] = (r.At(i, j) + r.At(j, i)) / (4 * k[i])
		}
	}
	return r3.Vector{X: k[0], Y: k[1], Z: k[2]}.Normalize()
}

// orthonormalize returns the rotation closest to m in the Frobenius norm.
func orthonormalize(m mat.Matrix) (*mat.Dense, bool) {
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDFull) {
		return nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		for row := 0; row < 3; row++ {
			u.Set(row, 2, -u.At(row, 2))
		}
		r.Mul(&u, v.T())
	}
	return &r, true
}

func mulVec(r mat.Matrix, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: r.At(0, 0)*p.X + r.At(0, 1)*p.Y + r.At(0, 2)*p.Z,
		Y: r.At(1, 0)*p.X + r.At(1, 1)*p.Y + r.At(1, 2)*p.Z,
		Z: r.At(2, 0)*p.X + r.At(2, 1)*p.Y + r.At(2, 2)*p.Z,
	}
}
