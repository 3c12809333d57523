package detection

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrInvalidGeometry is returned when a StripConfig cannot describe
	// any strip.
	ErrInvalidGeometry = errors.New("invalid search strip geometry")

	// ErrEmptyStripSet is returned when every strip falls outside the clip
	// region.
	ErrEmptyStripSet = errors.New("search strip set is empty")
)

// Interval is an ordered pair of integers. For VerticalInterval it is a row
// range; for width and center intervals it holds the value at the top row
// (Start) and at the bottom row (End).
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// StripConfig describes one lane side's search band.
type StripConfig struct {
	// VerticalInterval is the first and last row of the band.
	VerticalInterval Interval `json:"vertical_interval"`

	// VerticalStep is the row spacing between strips.
	VerticalStep int `json:"vertical_step"`

	// WidthInterval is the strip half-width at the top and bottom rows.
	WidthInterval Interval `json:"width_interval"`

	// CenterInterval is the strip center column at the top and bottom rows.
	CenterInterval Interval `json:"center_interval"`
}

// Validate checks that the band has a positive step and a non-empty,
// ascending row range.
func (c StripConfig) Validate() error {
	if c.VerticalStep <= 0 {
		return fmt.Errorf("vertical step %d must be positive: %w", c.VerticalStep, ErrInvalidGeometry)
	}
	if c.VerticalInterval.End <= c.VerticalInterval.Start {
		return fmt.Errorf("vertical interval [%d, %d] must ascend: %w",
			c.VerticalInterval.Start, c.VerticalInterval.End, ErrInvalidGeometry)
	}
	if c.WidthInterval.Start < 0 || c.WidthInterval.End < 0 {
		return fmt.Errorf("width interval [%d, %d] must not be negative: %w",
			c.WidthInterval.Start, c.WidthInterval.End, ErrInvalidGeometry)
	}
	return nil
}

// SearchStrip is a single-row horizontal scan window, already clipped to
// the image.
type SearchStrip struct {
	Left  image.Point
	Width int
}

// Right returns the right end of the strip.
func (s SearchStrip) Right() image.Point {
	return image.Point{X: s.Left.X + s.Width, Y: s.Left.Y}
}

// Row returns the image row the strip lies on.
func (s SearchStrip) Row() int { return s.Left.Y }

func (s SearchStrip) String() string {
	return fmt.Sprintf("%v to %v", s.Left, s.Right())
}

// BuildStrips lays out the search strips of one lane side.
//
// Rows run from VerticalInterval.Start in steps of VerticalStep while the
// row is below VerticalInterval.End+VerticalStep, which always includes a
// row at or past the end. At each row the half-width and center are
// interpolated from the top-row and bottom-row values, the segment
// [center-width, center+width] is clipped to clip (Min inclusive, Max
// exclusive), and rows that end up outside clip are skipped.
//
// Returns ErrInvalidGeometry for a malformed config and ErrEmptyStripSet
// when no strip survives clipping.
func BuildStrips(cfg StripConfig, clip image.Rectangle) ([]SearchStrip, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clip.Empty() {
		return nil, fmt.Errorf("clip region %v is empty: %w", clip, ErrInvalidGeometry)
	}

	v0 := cfg.VerticalInterval.Start
	verticalRange := cfg.VerticalInterval.End - v0
	widthRange := cfg.WidthInterval.End - cfg.WidthInterval.Start
	centerRange := cfg.CenterInterval.End - cfg.CenterInterval.Start

	strips := make([]SearchStrip, 0, verticalRange/cfg.VerticalStep+2)
	for y := v0; y < cfg.VerticalInterval.End+cfg.VerticalStep; y += cfg.VerticalStep {
		width := floorDiv(widthRange*(y-v0), verticalRange) + cfg.WidthInterval.Start
		center := floorDiv(centerRange*(y-v0), verticalRange) + cfg.CenterInterval.Start

		strip, ok := clipRow(center-width, center+width, y, clip)
		if !ok {
			continue
		}
		strips = append(strips, strip)
	}

	if len(strips) == 0 {
		return nil, fmt.Errorf("rows %d..%d against clip %v: %w",
			cfg.VerticalInterval.Start, cfg.VerticalInterval.End, clip, ErrEmptyStripSet)
	}
	return strips, nil
}

// clipRow clips the horizontal segment x0..x1 on row y to clip.
func clipRow(x0, x1, y int, clip image.Rectangle) (SearchStrip, bool) {
	if y < clip.Min.Y || y >= clip.Max.Y {
		return SearchStrip{}, false
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x0 < clip.Min.X {
		x0 = clip.Min.X
	}
	if x1 > clip.Max.X-1 {
		x1 = clip.Max.X - 1
	}
	if x0 > x1 {
		return SearchStrip{}, false
	}
	return SearchStrip{Left: image.Point{X: x0, Y: y}, Width: x1 - x0}, true
}

// floorDiv divides rounding toward negative infinity. b must be positive.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
