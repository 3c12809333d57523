// Package report exports the results of a run as CSV, JSON and a drift
// chart.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/ironsheep/lane-drift/internal/pipeline"
)

// csvHeader lists the columns written by WriteCSV.
var csvHeader = []string{
	"index", "path", "status", "offset_m",
	"vanishing_x", "vanishing_y", "heading_rad", "pitch_rad",
	"reprojection_px", "error",
}

// FrameRecord is the exported view of one frame. Optional values are nil
// when the frame did not get far enough to compute them.
type FrameRecord struct {
	Index  int             `json:"index"`
	Path   string          `json:"path"`
	Status pipeline.Status `json:"status"`

	Offset       *float64 `json:"offset_m,omitempty"`
	VanishingX   *float64 `json:"vanishing_x,omitempty"`
	VanishingY   *float64 `json:"vanishing_y,omitempty"`
	Heading      *float64 `json:"heading_rad,omitempty"`
	Pitch        *float64 `json:"pitch_rad,omitempty"`
	Reprojection *float64 `json:"reprojection_px,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Document is the JSON report layout.
type Document struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Summary  Summary       `json:"summary"`
	Frames   []FrameRecord `json:"frames"`
}

// Record converts a frame result to its exported form.
func Record(res *pipeline.FrameResult) FrameRecord {
	rec := FrameRecord{
		Index:  res.Frame.Index,
		Path:   res.Frame.Path,
		Status: res.Status,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if res.Lanes.Found() && res.Status != pipeline.StatusNoLanes {
		rec.VanishingX = value(res.Lanes.VanishingPoint.X)
		rec.VanishingY = value(res.Lanes.VanishingPoint.Y)
	}
	if res.Direction != nil {
		rec.Heading = value(res.Direction.Heading)
		rec.Pitch = value(res.Direction.Pitch)
	}
	if res.OK() {
		rec.Offset = value(res.Offset)
		rec.Reprojection = value(res.Pose.ReprojectionError)
	}
	return rec
}

func value(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteCSV writes one row per frame under a header row.
func WriteCSV(w io.Writer, run *pipeline.Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, res := range run.Frames {
		rec := Record(res)
		row := []string{
			strconv.Itoa(rec.Index),
			rec.Path,
			string(rec.Status),
			formatOptional(rec.Offset),
			formatOptional(rec.VanishingX),
			formatOptional(rec.VanishingY),
			formatOptional(rec.Heading),
			formatOptional(rec.Pitch),
			formatOptional(rec.Reprojection),
			rec.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", rec.Index, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

// WriteJSON writes the run as an indented Document.
func WriteJSON(w io.Writer, run *pipeline.Run) error {
	doc := Document{
		RunID:    run.ID,
		Started:  run.Started,
		Finished: run.Finished,
		Summary:  Summarize(run),
		Frames:   make([]FrameRecord, 0, len(run.Frames)),
	}
	for _, res := range run.Frames {
		doc.Frames = append(doc.Frames, Record(res))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
