package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/lane-drift/internal/detection"
)

// EdgeConfig holds the Canny thresholds. The high threshold is
// LowThreshold * Ratio.
type EdgeConfig struct {
	// LowThreshold is the weak-edge gradient threshold on a 0-255 scale.
	LowThreshold int `json:"low_threshold"`

	// Ratio scales the low threshold to the strong-edge threshold.
	Ratio int `json:"ratio"`
}

// DefaultEdgeConfig returns low threshold 100 with ratio 3.
func DefaultEdgeConfig() EdgeConfig {
	return EdgeConfig{LowThreshold: 100, Ratio: 3}
}

// High returns the strong-edge threshold.
func (c EdgeConfig) High() int { return c.LowThreshold * c.Ratio }

// Validate checks that the thresholds are positive.
func (c EdgeConfig) Validate() error {
	if c.LowThreshold <= 0 {
		return fmt.Errorf("edge low threshold %d must be positive", c.LowThreshold)
	}
	if c.Ratio < 1 {
		return fmt.Errorf("edge threshold ratio %d must be at least 1", c.Ratio)
	}
	return nil
}

// DetectEdges performs Canny edge detection and returns a binary edge map.
//
// Parameters:
//   - img: Source frame (color or grayscale). Any origin is accepted.
//   - cfg: Canny thresholds. The low threshold is on a 0-255 scale and the
//     high threshold is LowThreshold * Ratio.
//
// Returns:
//   - *image.Gray: Edge map with its origin at (0,0) and the same size as
//     img. Edge pixels hold detection.EdgeMarker, all others 0, so the map
//     can be handed straight to the search-strip scanner.
//
// # Algorithm
//
//  1. Grayscale conversion via bild (0.3 R + 0.6 G + 0.1 B), scaled to
//     [0,1]
//
//  2. Gaussian blur: 5x5 kernel to reduce noise
//
//  3. Gradient computation: Sobel operators for X and Y gradients
//
//  4. Non-maximum suppression: thin edges to 1-pixel width by keeping only
//     local maxima in the gradient direction
//
//  5. Hysteresis: pixels above the high threshold seed edges, which grow
//     through 8-connected pixels above the low threshold
func DetectEdges(img image.Image, cfg EdgeConfig) *image.Gray {
	gray := effect.Grayscale(img)
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// bild returns RGBA with the luminance copied into every channel.
	plane := make([][]float64, height)
	for y := 0; y < height; y++ {
		plane[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			plane[y][x] = float64(gray.RGBAAt(x+bounds.Min.X, y+bounds.Min.Y).R) / 255.0
		}
	}

	blurred := gaussianBlur(plane, width, height)
	magnitude, direction := sobel(blurred, width, height)
	suppressed := suppressNonMaxima(magnitude, direction, width, height)

	return hysteresis(suppressed, width, height,
		float64(cfg.LowThreshold)/255.0, float64(cfg.High())/255.0)
}

func sobel(img [][]float64, width, height int) (magnitude, direction [][]float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude = make([][]float64, height)
	direction = make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += img[py][px] * sobelX[ky+1][kx+1]
					gy += img[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// suppressNonMaxima zeroes every pixel that is not a local maximum along
// its gradient direction. Border pixels are always suppressed.
func suppressNonMaxima(magnitude, direction [][]float64, width, height int) [][]float64 {
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			} else {
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}
	return suppressed
}

// hysteresis marks strong pixels and every weak pixel connected to one.
func hysteresis(suppressed [][]float64, width, height int, low, high float64) *image.Gray {
	result := image.NewGray(image.Rect(0, 0, width, height))

	var stack []image.Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if suppressed[y][x] >= high && suppressed[y][x] > 0 {
				result.Pix[y*result.Stride+x] = detection.EdgeMarker
				stack = append(stack, image.Point{X: x, Y: y})
			}
		}
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				px, py := p.X+kx, p.Y+ky
				if px < 0 || px >= width || py < 0 || py >= height {
					continue
				}
				i := py*result.Stride + px
				if result.Pix[i] == detection.EdgeMarker {
					continue
				}
				if v := suppressed[py][px]; v >= low && v > 0 {
					result.Pix[i] = detection.EdgeMarker
					stack = append(stack, image.Point{X: px, Y: py})
				}
			}
		}
	}
	return result
}

// gaussianBlur applies a 5x5 Gaussian blur to reduce noise before edge detection.
//
// Uses a standard 5x5 Gaussian kernel with sigma ≈ 1.4:
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// Total kernel sum = 273, used for normalization.
// Border pixels use clamped (replicated) edge values.
func gaussianBlur(img [][]float64, width, height int) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	kernelSum := 273.0

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sum += img[py][px] * kernel[ky+2][kx+2]
				}
			}
			result[y][x] = sum / kernelSum
		}
	}
	return result
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
