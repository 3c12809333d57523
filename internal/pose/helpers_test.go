package pose

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

func testIntrinsics() *Intrinsics {
	return &Intrinsics{Width: 640, Height: 480, FX: 800, FY: 800, CX: 320, CY: 240}
}

// levelCamera places a camera at lateral position x, height h and distance
// back before the world origin, looking straight down the lane.
func levelCamera(x, h, back float64) (*mat.Dense, r3.Vector) {
	r := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 0, -1,
		0, 1, 0,
	})
	return r, r3.Vector{X: -x, Y: h, Z: back}
}

func project(in *Intrinsics, r mat.Matrix, t r3.Vector, world r3.Vector) r2.Point {
	p, ok := in.Project(mulVec(r, world).Add(t))
	if !ok {
		panic("test point behind camera")
	}
	return p
}

func laneWorldPoints() []r3.Vector {
	return []r3.Vector{
		{X: -1.6, Y: 0},
		{X: 1.6, Y: 0},
		{X: -1.6, Y: 4},
		{X: 1.6, Y: 4},
	}
}

func synthesize(in *Intrinsics, r mat.Matrix, t r3.Vector) []Correspondence {
	var out []Correspondence
	for _, w := range laneWorldPoints() {
		out = append(out, Correspondence{World: w, Image: project(in, r, t, w)})
	}
	return out
}
