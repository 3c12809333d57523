package pipeline

import (
	"time"

	"github.com/ironsheep/lane-drift/internal/detection"
	"github.com/ironsheep/lane-drift/internal/imaging"
	"github.com/ironsheep/lane-drift/internal/pose"
)

// Status classifies how far a frame got through the pipeline.
type Status string

const (
	// StatusOK means the frame produced a lateral offset.
	StatusOK Status = "ok"

	// StatusLoadFailed means the frame could not be read or decoded.
	StatusLoadFailed Status = "load_failed"

	// StatusNoLanes means one or both lane lines were not found, or they
	// did not converge.
	StatusNoLanes Status = "no_lanes"

	// StatusPoseFailed means the lanes were found but no pose could be
	// recovered from them.
	StatusPoseFailed Status = "pose_failed"
)

// FrameResult holds everything computed for one frame. Fields are filled
// as far as processing got; Err is set whenever Status is not StatusOK.
type FrameResult struct {
	Frame  imaging.Frame
	Status Status
	Err    error

	Lanes           *detection.Lanes
	Direction       *pose.LaneDirection
	Correspondences []pose.Correspondence
	Pose            *pose.Pose

	// Offset is the lateral offset in meters, valid when Status is
	// StatusOK.
	Offset float64

	Elapsed time.Duration
}

// OK reports whether the frame produced an offset.
func (r *FrameResult) OK() bool {
	return r != nil && r.Status == StatusOK
}

// Run is the outcome of one pass over a frame sequence.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Frames   []*FrameResult
}
