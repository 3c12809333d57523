package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/lane-drift/internal/detection"
)

func countEdges(img *image.Gray) int {
	n := 0
	for _, v := range img.Pix {
		if v == detection.EdgeMarker {
			n++
		}
	}
	return n
}

func TestDetectEdges_Dimensions(t *testing.T) {
	img := createEdgeTestImage(100, 80)

	edges := DetectEdges(img, DefaultEdgeConfig())

	if edges.Bounds() != image.Rect(0, 0, 100, 80) {
		t.Errorf("bounds: got %v, want (0,0)-(100,80)", edges.Bounds())
	}
	if countEdges(edges) == 0 {
		t.Error("rectangle outline produced no edges")
	}
}

func TestDetectEdges_BinaryOutput(t *testing.T) {
	edges := DetectEdges(createEdgeTestImage(60, 60), EdgeConfig{LowThreshold: 50, Ratio: 3})

	for i, v := range edges.Pix {
		if v != 0 && v != detection.EdgeMarker {
			t.Fatalf("pixel %d has value %d, want 0 or %d", i, v, detection.EdgeMarker)
		}
	}
}

func TestDetectEdges_UniformImage(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255})

	edges := DetectEdges(img, DefaultEdgeConfig())

	if n := countEdges(edges); n != 0 {
		t.Errorf("uniform image should have no edges, got %d edge pixels", n)
	}
}

func TestDetectEdges_StrongEdge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	edges := DetectEdges(img, DefaultEdgeConfig())

	for _, y := range []int{10, 50, 90} {
		found := false
		for x := 47; x <= 52; x++ {
			if edges.GrayAt(x, y).Y == detection.EdgeMarker {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("vertical edge not detected on row %d", y)
		}
	}

	// Far from the boundary nothing should fire.
	for _, x := range []int{10, 25, 75, 90} {
		if edges.GrayAt(x, 50).Y != 0 {
			t.Errorf("spurious edge at (%d,50)", x)
		}
	}
}

func TestDetectEdges_ThresholdsControlSensitivity(t *testing.T) {
	// A faint step of 40 gray levels.
	img := image.NewGray(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			v := uint8(100)
			if x >= 30 {
				v = 140
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}

	if n := countEdges(DetectEdges(img, DefaultEdgeConfig())); n != 0 {
		t.Errorf("default thresholds should ignore a faint step, got %d edge pixels", n)
	}
	if n := countEdges(DetectEdges(img, EdgeConfig{LowThreshold: 10, Ratio: 2})); n == 0 {
		t.Error("low thresholds should detect a faint step")
	}
}

func colorStep(left, right color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			if x < 30 {
				img.SetRGBA(x, y, left)
			} else {
				img.SetRGBA(x, y, right)
			}
		}
	}
	return img
}

func TestDetectEdges_ColorInputUsesLuminance(t *testing.T) {
	sensitive := EdgeConfig{LowThreshold: 10, Ratio: 2}

	// Red (0.3 * 255) against green (0.6 * 255) is a clear luminance step.
	redGreen := colorStep(color.RGBA{255, 0, 0, 255}, color.RGBA{0, 255, 0, 255})
	if n := countEdges(DetectEdges(redGreen, sensitive)); n == 0 {
		t.Error("red/green step produced no edges")
	}

	// Dark red and full blue share a luminance of about 25, so the hue
	// change alone must not fire.
	sameLuma := colorStep(color.RGBA{85, 0, 0, 255}, color.RGBA{0, 0, 255, 255})
	if n := countEdges(DetectEdges(sameLuma, sensitive)); n != 0 {
		t.Errorf("equal-luminance colors should give no edges, got %d", n)
	}
}

func TestDetectEdges_OffsetBounds(t *testing.T) {
	base := createEdgeTestImage(40, 40).(*image.RGBA)
	sub := base.SubImage(image.Rect(10, 10, 40, 40))

	edges := DetectEdges(sub, DefaultEdgeConfig())

	if edges.Bounds() != image.Rect(0, 0, 30, 30) {
		t.Errorf("bounds: got %v, want (0,0)-(30,30)", edges.Bounds())
	}
	if countEdges(edges) == 0 {
		t.Error("sub-image rectangle corner produced no edges")
	}
}

func TestDetectEdges_SmallImage(t *testing.T) {
	img := createInMemoryImage(5, 5, color.RGBA{128, 128, 128, 255})

	edges := DetectEdges(img, DefaultEdgeConfig())

	if edges.Bounds().Dx() != 5 || edges.Bounds().Dy() != 5 {
		t.Errorf("dimensions: got %v, want 5x5", edges.Bounds())
	}
}

func TestEdgeConfig(t *testing.T) {
	cfg := DefaultEdgeConfig()
	if cfg.High() != 300 {
		t.Errorf("High: got %d, want 300", cfg.High())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if err := (EdgeConfig{LowThreshold: 0, Ratio: 3}).Validate(); err == nil {
		t.Error("zero low threshold should be rejected")
	}
	if err := (EdgeConfig{LowThreshold: 50, Ratio: 0}).Validate(); err == nil {
		t.Error("zero ratio should be rejected")
	}
}

func TestGaussianBlur(t *testing.T) {
	width, height := 10, 10
	img := make([][]float64, height)
	for y := 0; y < height; y++ {
		img[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			img[y][x] = 0.5
		}
	}

	blurred := gaussianBlur(img, width, height)

	// Uniform image should remain uniform after blur
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if absFloat(blurred[y][x]-0.5) > 1e-9 {
				t.Errorf("blurred[%d][%d]: got %.3f, want 0.5", y, x, blurred[y][x])
			}
		}
	}
}

func TestGaussianBlur_WithSpot(t *testing.T) {
	width, height := 11, 11
	img := make([][]float64, height)
	for y := 0; y < height; y++ {
		img[y] = make([]float64, width)
	}
	img[5][5] = 1.0

	blurred := gaussianBlur(img, width, height)

	if blurred[5][5] >= 1.0 {
		t.Error("bright spot should be reduced after blur")
	}
	if blurred[5][4] == 0 || blurred[5][6] == 0 || blurred[4][5] == 0 || blurred[6][5] == 0 {
		t.Error("neighbors should receive some brightness from blur")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

// createEdgeTestImage creates an image with a black rectangle on white background
// to create clear edges for testing
func createEdgeTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}

	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.Set(x, y, color.Black)
		}
	}

	return img
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
