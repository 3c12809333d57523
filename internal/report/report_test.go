package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/lane-drift/internal/detection"
	"github.com/ironsheep/lane-drift/internal/geometry"
	"github.com/ironsheep/lane-drift/internal/imaging"
	"github.com/ironsheep/lane-drift/internal/pipeline"
	"github.com/ironsheep/lane-drift/internal/pose"
)

func okResult(t *testing.T, index int, offset float64) *pipeline.FrameResult {
	t.Helper()
	l, err := geometry.FromPoints(r2.Point{X: 0, Y: 480}, r2.Point{X: 320, Y: 240})
	require.NoError(t, err)
	r, err := geometry.FromPoints(r2.Point{X: 640, Y: 480}, r2.Point{X: 320, Y: 240})
	require.NoError(t, err)

	return &pipeline.FrameResult{
		Frame:  imaging.Frame{Index: index, Path: fmt.Sprintf("/frames/%03d.bmp", index+1)},
		Status: pipeline.StatusOK,
		Lanes: &detection.Lanes{
			Left:           &detection.LineFit{Line: l},
			Right:          &detection.LineFit{Line: r},
			VanishingPoint: r2.Point{X: 320, Y: 240},
		},
		Direction: &pose.LaneDirection{Heading: 0.01, Pitch: -0.02},
		Pose: &pose.Pose{
			Translation:       r3.Vector{X: -offset, Y: 1.2, Z: 6},
			ReprojectionError: 0.5,
		},
		Offset: offset,
	}
}

func testRun(t *testing.T) *pipeline.Run {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &pipeline.Run{
		ID:       "run-1",
		Started:  started,
		Finished: started.Add(3 * time.Second),
		Frames: []*pipeline.FrameResult{
			okResult(t, 0, 0.1),
			{
				Frame:  imaging.Frame{Index: 1, Path: "/frames/002.bmp"},
				Status: pipeline.StatusNoLanes,
				Err:    fmt.Errorf("left lane: %w", geometry.ErrDetectionFailure),
				Lanes:  &detection.Lanes{},
			},
			okResult(t, 2, -0.3),
			{
				Frame:  imaging.Frame{Index: 3, Path: "/frames/004.bmp"},
				Status: pipeline.StatusLoadFailed,
				Err:    errors.New("failed to open image"),
			},
			okResult(t, 4, 0.5),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testRun(t)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"0", "/frames/001.bmp", "ok", "0.100000",
		"320.000000", "240.000000", "0.010000", "-0.020000",
		"0.500000", "",
	}, rows[1])
	assert.Equal(t, []string{
		"1", "/frames/002.bmp", "no_lanes", "", "", "", "", "", "",
		"left lane: lane detection failure",
	}, rows[2])
	assert.Equal(t, "load_failed", rows[4][2])
	assert.Equal(t, "-0.300000", rows[3][3])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testRun(t)))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 3*time.Second, doc.Finished.Sub(doc.Started))
	require.Len(t, doc.Frames, 5)
	assert.Equal(t, 5, doc.Summary.Frames)
	assert.Equal(t, 3, doc.Summary.OK)

	require.NotNil(t, doc.Frames[0].Offset)
	assert.Equal(t, 0.1, *doc.Frames[0].Offset)
	assert.Nil(t, doc.Frames[1].Offset)
	assert.Nil(t, doc.Frames[1].VanishingX)
	assert.Equal(t, "failed to open image", doc.Frames[3].Error)
}

func TestSummarize(t *testing.T) {
	got := Summarize(testRun(t))

	want := Summary{
		Frames: 5,
		OK:     3,
		ByStatus: map[pipeline.Status]int{
			pipeline.StatusOK:         3,
			pipeline.StatusNoLanes:    1,
			pipeline.StatusLoadFailed: 1,
		},
		MeanOffset:       0.1,
		StdDevOffset:     0.4,
		MinOffset:        -0.3,
		MaxOffset:        0.5,
		MeanReprojection: 0.5,
	}
	assert.Empty(t, cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)))
}

func TestSummarize_NoSuccess(t *testing.T) {
	run := &pipeline.Run{Frames: []*pipeline.FrameResult{
		{Status: pipeline.StatusLoadFailed, Err: errors.New("gone")},
	}}

	got := Summarize(run)
	assert.Equal(t, 1, got.Frames)
	assert.Zero(t, got.OK)
	assert.Zero(t, got.MeanOffset)
	assert.Zero(t, got.MinOffset)
}

func TestSummarize_SingleFrame(t *testing.T) {
	run := &pipeline.Run{Frames: []*pipeline.FrameResult{okResult(t, 0, 0.25)}}

	got := Summarize(run)
	assert.Equal(t, 0.25, got.MeanOffset)
	assert.Zero(t, got.StdDevOffset)
	assert.Equal(t, 0.25, got.MinOffset)
	assert.Equal(t, 0.25, got.MaxOffset)
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, testRun(t), 4*vg.Inch, 3*vg.Inch))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Positive(t, cfg.Width)
	assert.Greater(t, cfg.Width, cfg.Height)
}

func TestWriteChart_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, &pipeline.Run{ID: "empty"}, ChartWidth, ChartHeight))
	assert.NotZero(t, buf.Len())
}
