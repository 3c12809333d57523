package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/lane-drift/internal/pipeline"
)

// Summary aggregates the offsets of the frames that produced one.
type Summary struct {
	Frames   int                     `json:"frames"`
	OK       int                     `json:"ok"`
	ByStatus map[pipeline.Status]int `json:"by_status"`

	MeanOffset   float64 `json:"mean_offset_m"`
	StdDevOffset float64 `json:"stddev_offset_m"`
	MinOffset    float64 `json:"min_offset_m"`
	MaxOffset    float64 `json:"max_offset_m"`

	MeanReprojection float64 `json:"mean_reprojection_px"`
}

// Summarize counts frames per status and computes offset statistics over
// the successful ones. Statistics are zero when no frame succeeded.
func Summarize(run *pipeline.Run) Summary {
	s := Summary{
		Frames:   len(run.Frames),
		ByStatus: make(map[pipeline.Status]int),
	}

	var offsets, reprojection []float64
	for _, res := range run.Frames {
		s.ByStatus[res.Status]++
		if !res.OK() {
			continue
		}
		offsets = append(offsets, res.Offset)
		reprojection = append(reprojection, res.Pose.ReprojectionError)
	}
	s.OK = len(offsets)
	if s.OK == 0 {
		return s
	}

	s.MeanOffset = stat.Mean(offsets, nil)
	if s.OK > 1 {
		s.StdDevOffset = stat.StdDev(offsets, nil)
	}
	s.MinOffset, s.MaxOffset = math.Inf(1), math.Inf(-1)
	for _, v := range offsets {
		s.MinOffset = math.Min(s.MinOffset, v)
		s.MaxOffset = math.Max(s.MaxOffset, v)
	}
	s.MeanReprojection = stat.Mean(reprojection, nil)
	return s
}
