package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/lane-drift/internal/detection"
)

// Gauge geometry. The needle moves gaugeScale pixels per gaugeUnit meters
// of lateral offset.
const (
	gaugeHalfWidth = 80
	gaugeTop       = 10
	gaugeBottom    = 50
	gaugeNeedleTop = 30
	gaugeScale     = 40.0
	gaugeUnit      = 0.4

	pointRadius  = 5
	markerRadius = 10
)

// Palette holds the overlay colors as hex strings.
type Palette struct {
	LeftStrip      string `json:"left_strip"`
	RightStrip     string `json:"right_strip"`
	Point          string `json:"point"`
	VanishingPoint string `json:"vanishing_point"`
	Lane           string `json:"lane"`
	Gauge          string `json:"gauge"`
}

// DefaultPalette draws left strips red, right strips blue, edge points
// green, the vanishing point white, lane lines magenta and the gauge black.
func DefaultPalette() Palette {
	return Palette{
		LeftStrip:      "#ff0000",
		RightStrip:     "#0000ff",
		Point:          "#00ff00",
		VanishingPoint: "#ffffff",
		Lane:           "#ff00ff",
		Gauge:          "#000000",
	}
}

// Annotation is everything one frame contributes to its overlay. Nil or
// empty fields are skipped.
type Annotation struct {
	LeftStrips  []detection.SearchStrip
	RightStrips []detection.SearchStrip

	Lanes *detection.Lanes

	// References are the correspondence image points in the order
	// bottom-left, bottom-right, upper-left, upper-right.
	References []r2.Point

	// Offset is the lateral offset in meters, drawn on the gauge.
	Offset *float64
}

// Overlay draws the annotation on a copy of img.
//
// Parameters:
//   - img: The source frame. Its origin may be anywhere.
//   - a: What to draw. Nil or empty fields are skipped.
//   - palette: Hex colors per element. Unparsable entries fall back to
//     DefaultPalette.
//
// Returns:
//   - A new *image.RGBA with bounds starting at (0,0). img is not modified.
//
// The gauge is drawn last so nothing covers it.
func Overlay(img image.Image, a Annotation, palette Palette) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	def := DefaultPalette()
	leftColor := resolveColor(palette.LeftStrip, def.LeftStrip)
	rightColor := resolveColor(palette.RightStrip, def.RightStrip)
	pointColor := resolveColor(palette.Point, def.Point)
	vpColor := resolveColor(palette.VanishingPoint, def.VanishingPoint)
	laneColor := resolveColor(palette.Lane, def.Lane)
	gaugeColor := resolveColor(palette.Gauge, def.Gauge)

	for _, s := range a.LeftStrips {
		drawLine(result, s.Left, s.Right(), leftColor)
	}
	for _, s := range a.RightStrips {
		drawLine(result, s.Left, s.Right(), rightColor)
	}

	if a.Lanes != nil {
		for _, p := range a.Lanes.LeftPoints {
			drawCircle(result, toPixel(p), pointRadius, pointColor)
		}
		for _, p := range a.Lanes.RightPoints {
			drawCircle(result, toPixel(p), pointRadius, pointColor)
		}
	}

	for i, p := range a.References {
		c := leftColor
		if i%2 == 1 {
			c = rightColor
		}
		drawCircle(result, toPixel(p), markerRadius, c)
	}

	if a.Lanes.Found() && finitePoint(a.Lanes.VanishingPoint) {
		vp := toPixel(a.Lanes.VanishingPoint)
		drawCircle(result, vp, markerRadius, vpColor)
		for i := 0; i < len(a.References) && i < 2; i++ {
			drawLine(result, vp, toPixel(a.References[i]), laneColor)
		}
	}

	if a.Offset != nil {
		drawGauge(result, *a.Offset, gaugeColor)
	}

	return result
}

// drawGauge draws the drift box centred at the top of the frame with a
// needle at the offset and the offset value to its right.
func drawGauge(img *image.RGBA, offset float64, c color.RGBA) {
	center := img.Bounds().Dx() / 2
	left, right := center-gaugeHalfWidth, center+gaugeHalfWidth

	drawLine(img, image.Pt(left, gaugeTop), image.Pt(right, gaugeTop), c)
	drawLine(img, image.Pt(left, gaugeTop), image.Pt(left, gaugeBottom), c)
	drawLine(img, image.Pt(right, gaugeTop), image.Pt(right, gaugeBottom), c)
	drawLine(img, image.Pt(left, gaugeBottom), image.Pt(right, gaugeBottom), c)

	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return
	}
	needle := center + int(gaugeScale*offset/gaugeUnit)
	drawLine(img, image.Pt(needle, gaugeNeedleTop), image.Pt(needle, gaugeBottom), c)

	label := strconv.FormatFloat(offset, 'f', 2, 64)
	drawLabel(img, right+4, gaugeTop+2, label, color.RGBA{255, 255, 255, 255}, c)
}

// drawLine rasterizes the segment a-b with Bresenham's algorithm.
func drawLine(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	err := dx + dy
	x, y := a.X, a.Y
	for {
		setPixel(img, x, y, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// drawCircle draws a circle outline with the midpoint algorithm.
func drawCircle(img *image.RGBA, center image.Point, radius int, c color.RGBA) {
	x, y := radius, 0
	d := 1 - radius
	for x >= y {
		for _, p := range [8]image.Point{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			setPixel(img, center.X+p.X, center.Y+p.Y, c)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// toPixel rounds p to the nearest pixel, saturating far-away points so
// that line rasterization stays bounded.
func toPixel(p r2.Point) image.Point {
	const limit = 1 << 16
	round := func(v float64) int {
		return int(math.Round(math.Max(-limit, math.Min(limit, v))))
	}
	return image.Pt(round(p.X), round(p.Y))
}

func finitePoint(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// resolveColor parses hex, falling back to def when hex is empty or
// malformed.
func resolveColor(hex, def string) color.RGBA {
	if c, err := parseHexColor(hex); err == nil {
		return c
	}
	c, _ := parseHexColor(def)
	return c
}

// parseHexColor parses a hex color string like "#FF0000" or "#F00".
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// drawLabel draws text in basicfont.Face7x13 on a filled background box.
// (x, y) is the top-left corner of the text.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	labelWidth := font.MeasureString(face, text).Ceil()
	labelHeight := face.Height

	for dy := -1; dy <= labelHeight; dy++ {
		for dx := -1; dx <= labelWidth; dx++ {
			setPixel(img, x+dx, y+dy, bg)
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + face.Ascent)},
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
