package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/lane-drift/internal/detection"
	"github.com/ironsheep/lane-drift/internal/imaging"
	"github.com/ironsheep/lane-drift/internal/pose"
)

const (
	cameraHeight = 1.2
	laneHalf     = 1.6
	bandWidth    = 6
)

func testIntrinsics() *pose.Intrinsics {
	return &pose.Intrinsics{Width: 640, Height: 480, FX: 800, FY: 800, CX: 320, CY: 240}
}

// createRoadImage renders two bright lane markings on a dark road as seen
// by a level camera at lateral position cameraX. The markings converge on
// the principal point (320, 240).
func createRoadImage(cameraX float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 640, 480))
	for y := 241; y < 480; y++ {
		for _, laneX := range []float64{-laneHalf, laneHalf} {
			center := 320 + (laneX-cameraX)/cameraHeight*float64(y-240)
			start := int(math.Round(center)) - bandWidth/2
			for x := start; x < start+bandWidth; x++ {
				if x >= 0 && x < 640 {
					img.SetGray(x, y, color.Gray{Y: 255})
				}
			}
		}
	}
	return img
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	clip := image.Rect(0, 0, 640, 480)

	left, err := detection.BuildStrips(detection.StripConfig{
		VerticalInterval: detection.Interval{Start: 300, End: 460},
		VerticalStep:     10,
		WidthInterval:    detection.Interval{Start: 40, End: 80},
		CenterInterval:   detection.Interval{Start: 240, End: 30},
	}, clip)
	require.NoError(t, err)

	right, err := detection.BuildStrips(detection.StripConfig{
		VerticalInterval: detection.Interval{Start: 300, End: 460},
		VerticalStep:     10,
		WidthInterval:    detection.Interval{Start: 40, End: 80},
		CenterInterval:   detection.Interval{Start: 400, End: 610},
	}, clip)
	require.NoError(t, err)

	est, err := detection.NewEstimator(detection.DefaultRANSACConfig())
	require.NoError(t, err)

	// Row 400 lies 6 m ahead of the camera and row 336 10 m ahead.
	corr := pose.CorrespondenceConfig{BottomRow: 400, UpperRow: 336, HalfWidth: laneHalf, UpperDistance: 4}

	p, err := NewProcessor(imaging.DefaultEdgeConfig(), detection.NewDetector(left, right, est), testIntrinsics(), corr)
	require.NoError(t, err)
	return p
}

// memoryLoader serves frames from memory. Paths without an image fail to
// load.
type memoryLoader struct {
	paths   []string
	images  map[string]image.Image
	listErr error
}

func (m *memoryLoader) List() ([]imaging.Frame, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	frames := make([]imaging.Frame, len(m.paths))
	for i, p := range m.paths {
		frames[i] = imaging.Frame{Index: i, Path: p}
	}
	return frames, nil
}

func (m *memoryLoader) Load(path string) (image.Image, error) {
	img, ok := m.images[path]
	if !ok {
		return nil, fmt.Errorf("failed to open image: %s not found", path)
	}
	return img, nil
}

// recordingObserver remembers the frames it saw.
type recordingObserver struct {
	mu     sync.Mutex
	seen   map[int]Status
	images map[int]bool
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{seen: map[int]Status{}, images: map[int]bool{}}
}

func (o *recordingObserver) observe(img image.Image, res *FrameResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen[res.Frame.Index] = res.Status
	o.images[res.Frame.Index] = img != nil
}
