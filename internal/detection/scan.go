package detection

import (
	"fmt"
	"image"

	"github.com/golang/geo/r2"
)

// EdgeMarker is the pixel value an edge detector writes for edge pixels.
const EdgeMarker uint8 = 255

// Side selects which lane boundary a strip set searches for.
type Side int

const (
	// Left is the lane boundary left of the vehicle.
	Left Side = iota
	// Right is the lane boundary right of the vehicle.
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// walk returns the start column, end column and step used to scan strip.
// Left strips are walked right-to-left and right strips left-to-right, so
// both start nearest the image centerline.
func (s Side) walk(strip SearchStrip) (start, end, step int) {
	switch s {
	case Left:
		return strip.Right().X, strip.Left.X, -1
	default:
		return strip.Left.X, strip.Right().X, 1
	}
}

// FindEdgePoints scans each strip for the first pixel equal to EdgeMarker.
//
// At most one point is recorded per strip, in strip order. Strips without an
// edge pixel contribute nothing, and pixels outside the edge image bounds are
// skipped rather than read.
func FindEdgePoints(edges *image.Gray, strips []SearchStrip, side Side) []r2.Point {
	bounds := edges.Bounds()
	points := make([]r2.Point, 0, len(strips))

	for _, strip := range strips {
		y := strip.Row()
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}

		start, end, step := side.walk(strip)
		for x := start; x*step <= end*step; x += step {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			if edges.GrayAt(x, y).Y == EdgeMarker {
				points = append(points, r2.Point{X: float64(x), Y: float64(y)})
				break
			}
		}
	}

	return points
}
