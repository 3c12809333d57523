package pipeline

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/lane-drift/internal/detection"
	"github.com/ironsheep/lane-drift/internal/geometry"
	"github.com/ironsheep/lane-drift/internal/imaging"
	"github.com/ironsheep/lane-drift/internal/pose"
)

func TestProcessor_CenteredCamera(t *testing.T) {
	p := newTestProcessor(t)

	res := p.Process(imaging.Frame{Index: 3, Path: "centered.bmp"}, createRoadImage(0))

	require.True(t, res.OK(), "unexpected failure: %v", res.Err)
	assert.NoError(t, res.Err)
	assert.Equal(t, 3, res.Frame.Index)

	assert.InDelta(t, 320, res.Lanes.VanishingPoint.X, 5)
	assert.InDelta(t, 240, res.Lanes.VanishingPoint.Y, 5)
	assert.Less(t, math.Abs(res.Offset), 0.05)
	assert.Equal(t, res.Pose.LateralOffset(), res.Offset)
	assert.Len(t, res.Correspondences, 4)

	require.NotNil(t, res.Direction)
	assert.InDelta(t, 0, res.Direction.Heading, 0.01)
	assert.Greater(t, res.Elapsed.Nanoseconds(), int64(0))
}

func TestProcessor_OffsetSign(t *testing.T) {
	p := newTestProcessor(t)

	right := p.Process(imaging.Frame{}, createRoadImage(0.3))
	require.True(t, right.OK(), "unexpected failure: %v", right.Err)
	assert.InDelta(t, 0.3, right.Offset, 0.1)

	left := p.Process(imaging.Frame{}, createRoadImage(-0.3))
	require.True(t, left.OK(), "unexpected failure: %v", left.Err)
	assert.InDelta(t, -0.3, left.Offset, 0.1)
}

func TestProcessor_BlankFrame(t *testing.T) {
	p := newTestProcessor(t)

	res := p.Process(imaging.Frame{Path: "blank.bmp"}, image.NewGray(image.Rect(0, 0, 640, 480)))

	assert.False(t, res.OK())
	assert.Equal(t, StatusNoLanes, res.Status)
	assert.ErrorIs(t, res.Err, geometry.ErrDetectionFailure)
	assert.ErrorIs(t, res.Err, detection.ErrNoModelFound)
	assert.Nil(t, res.Pose)
	require.NotNil(t, res.Lanes)
	assert.Empty(t, res.Lanes.LeftPoints)
}

func TestNewProcessor_Validation(t *testing.T) {
	est, err := detection.NewEstimator(detection.DefaultRANSACConfig())
	require.NoError(t, err)
	det := detection.NewDetector(nil, nil, est)
	corr := pose.DefaultCorrespondenceConfig()

	_, err = NewProcessor(imaging.EdgeConfig{}, det, testIntrinsics(), corr)
	assert.Error(t, err)

	_, err = NewProcessor(imaging.DefaultEdgeConfig(), nil, testIntrinsics(), corr)
	assert.Error(t, err)

	_, err = NewProcessor(imaging.DefaultEdgeConfig(), det, nil, corr)
	assert.Error(t, err)

	_, err = NewProcessor(imaging.DefaultEdgeConfig(), det, testIntrinsics(), pose.CorrespondenceConfig{})
	assert.Error(t, err)

	p, err := NewProcessor(imaging.DefaultEdgeConfig(), det, testIntrinsics(), corr)
	require.NoError(t, err)
	assert.Same(t, det, p.Detector())
}
