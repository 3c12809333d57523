package pipeline

import (
	"errors"
	"image"
	"time"

	"github.com/ironsheep/lane-drift/internal/detection"
	"github.com/ironsheep/lane-drift/internal/imaging"
	"github.com/ironsheep/lane-drift/internal/pose"
)

// Processor runs the per-frame stages. It is safe for concurrent use.
type Processor struct {
	edges      imaging.EdgeConfig
	detector   *detection.Detector
	intrinsics *pose.Intrinsics
	corr       pose.CorrespondenceConfig
}

// NewProcessor validates its inputs and returns a processor.
func NewProcessor(edges imaging.EdgeConfig, detector *detection.Detector, intrinsics *pose.Intrinsics, corr pose.CorrespondenceConfig) (*Processor, error) {
	if err := edges.Validate(); err != nil {
		return nil, err
	}
	if detector == nil {
		return nil, errors.New("processor requires a lane detector")
	}
	if intrinsics == nil {
		return nil, errors.New("processor requires camera intrinsics")
	}
	if err := intrinsics.Validate(); err != nil {
		return nil, err
	}
	if err := corr.Validate(); err != nil {
		return nil, err
	}
	return &Processor{edges: edges, detector: detector, intrinsics: intrinsics, corr: corr}, nil
}

// Detector returns the lane detector, whose strips observers may draw.
func (p *Processor) Detector() *detection.Detector { return p.detector }

// Process runs edge detection, lane detection and pose recovery on img.
// It never returns nil; failures are reported through the result's Status
// and Err.
func (p *Processor) Process(frame imaging.Frame, img image.Image) *FrameResult {
	start := time.Now()
	res := &FrameResult{Frame: frame}
	defer func() { res.Elapsed = time.Since(start) }()

	edges := imaging.DetectEdges(img, p.edges)

	lanes, err := p.detector.Detect(edges)
	res.Lanes = lanes
	if err != nil {
		res.Status, res.Err = StatusNoLanes, err
		return res
	}

	// The lane direction is informational; a failure here leaves the
	// offset computation untouched.
	if dir, err := pose.RotationFromVanishingPoint(lanes.VanishingPoint, p.intrinsics); err == nil {
		res.Direction = dir
	}

	corr, err := pose.BuildCorrespondences(lanes.Left.Line, lanes.Right.Line, p.corr)
	if err != nil {
		res.Status, res.Err = StatusPoseFailed, err
		return res
	}
	res.Correspondences = corr

	solved, err := pose.SolvePlanar(corr, p.intrinsics)
	if err != nil {
		res.Status, res.Err = StatusPoseFailed, err
		return res
	}
	res.Pose = solved
	res.Offset = solved.LateralOffset()
	res.Status = StatusOK
	return res
}
