package pose

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/ironsheep/lane-drift/internal/geometry"
)

// Correspondence pairs a ground-plane world point with its image position.
type Correspondence struct {
	World r3.Vector
	Image r2.Point
}

// CorrespondenceConfig places the four reference points. The bottom row is
// taken as the world origin row; the upper row lies UpperDistance further
// down the lane.
type CorrespondenceConfig struct {
	BottomRow     float64 `json:"bottom_row"`
	UpperRow      float64 `json:"upper_row"`
	HalfWidth     float64 `json:"lane_half_width"`
	UpperDistance float64 `json:"upper_row_distance"`
}

// DefaultCorrespondenceConfig uses rows 480 and 330 of a 640x480 frame, a
// 3.2 m lane and 4 m between the two rows.
func DefaultCorrespondenceConfig() CorrespondenceConfig {
	return CorrespondenceConfig{
		BottomRow:     480,
		UpperRow:      330,
		HalfWidth:     1.6,
		UpperDistance: 4.0,
	}
}

// Validate rejects configurations that would produce collinear points.
func (c CorrespondenceConfig) Validate() error {
	if c.BottomRow == c.UpperRow {
		return fmt.Errorf("correspondence rows must differ, both are %v", c.BottomRow)
	}
	if !(c.HalfWidth > 0) {
		return fmt.Errorf("lane half width %v must be positive", c.HalfWidth)
	}
	if !(c.UpperDistance > 0) {
		return fmt.Errorf("upper row distance %v must be positive", c.UpperDistance)
	}
	return nil
}

// BuildCorrespondences intersects both lane lines with the bottom and upper
// rows. Points come back in the order bottom-left, bottom-right,
// upper-left, upper-right.
func BuildCorrespondences(left, right geometry.Line, cfg CorrespondenceConfig) ([]Correspondence, error) {
	w, d := cfg.HalfWidth, cfg.UpperDistance
	rows := []struct {
		lane  geometry.Line
		row   float64
		world r3.Vector
	}{
		{left, cfg.BottomRow, r3.Vector{X: -w}},
		{right, cfg.BottomRow, r3.Vector{X: w}},
		{left, cfg.UpperRow, r3.Vector{X: -w, Y: d}},
		{right, cfg.UpperRow, r3.Vector{X: w, Y: d}},
	}

	out := make([]Correspondence, 0, len(rows))
	for _, r := range rows {
		p, err := geometry.ReferencePointAtRow(r.lane, r.row)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPoseSolve, err)
		}
		out = append(out, Correspondence{World: r.world, Image: p})
	}
	return out, nil
}
