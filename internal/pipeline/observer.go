package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	dimaging "github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"github.com/ironsheep/lane-drift/internal/detection"
	"github.com/ironsheep/lane-drift/internal/imaging"
)

// Observer receives every processed frame together with its decoded image.
// Frames that failed to load are delivered with a nil image. Observe is
// called from worker goroutines and must be safe for concurrent use.
type Observer interface {
	Observe(ctx context.Context, img image.Image, res *FrameResult) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, img image.Image, res *FrameResult) error

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, img image.Image, res *FrameResult) error {
	return f(ctx, img, res)
}

// OverlayObserver renders each frame's detection artifacts and writes them
// as PNG files named after the source frame.
type OverlayObserver struct {
	fs      afero.Fs
	dir     string
	left    []detection.SearchStrip
	right   []detection.SearchStrip
	palette imaging.Palette
}

// NewOverlayObserver creates dir if needed and returns an observer drawing
// the detector's strips with palette.
func NewOverlayObserver(fs afero.Fs, dir string, detector *detection.Detector, palette imaging.Palette) (*OverlayObserver, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create overlay directory: %w", err)
	}
	return &OverlayObserver{
		fs:      fs,
		dir:     dir,
		left:    detector.Strips(detection.Left),
		right:   detector.Strips(detection.Right),
		palette: palette,
	}, nil
}

// PathFor returns where the overlay of frame is written.
func (o *OverlayObserver) PathFor(frame imaging.Frame) string {
	base := filepath.Base(frame.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(o.dir, fmt.Sprintf("%04d_%s.png", frame.Index, base))
}

// Observe draws and stores one overlay. Frames without an image are
// skipped.
func (o *OverlayObserver) Observe(ctx context.Context, img image.Image, res *FrameResult) error {
	if img == nil || res == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a := imaging.Annotation{
		LeftStrips:  o.left,
		RightStrips: o.right,
		Lanes:       res.Lanes,
	}
	for _, c := range res.Correspondences {
		a.References = append(a.References, c.Image)
	}
	if res.OK() {
		offset := res.Offset
		a.Offset = &offset
	}

	out := imaging.Overlay(img, a, o.palette)

	path := o.PathFor(res.Frame)
	f, err := o.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	if err := dimaging.Encode(f, out, dimaging.PNG); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode overlay %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write overlay %s: %w", path, err)
	}
	return nil
}
