package pipeline

import (
	"context"
	"image"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/lane-drift/internal/imaging"
)

// FrameLoader lists and decodes the frames of a sequence.
// *imaging.FrameSource satisfies it.
type FrameLoader interface {
	List() ([]imaging.Frame, error)
	Load(path string) (image.Image, error)
}

// Runner processes every frame of a sequence on a bounded worker pool.
type Runner struct {
	loader    FrameLoader
	processor *Processor
	observers []Observer
	workers   int
	log       logrus.FieldLogger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of frames processed at once. Values below
// one select runtime.NumCPU().
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) { r.workers = n }
}

// WithObserver adds an observer called after every frame.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logrus.FieldLogger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// NewRunner returns a runner over loader's frames.
func NewRunner(loader FrameLoader, processor *Processor, opts ...RunnerOption) *Runner {
	r := &Runner{loader: loader, processor: processor}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = runtime.NumCPU()
	}
	if r.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		r.log = discard
	}
	return r
}

// Run processes all frames and returns their results in frame order.
//
// Listing failures abort the run. When ctx is cancelled no further frames
// are started; the frames already finished are returned together with the
// context's error.
func (r *Runner) Run(ctx context.Context) (*Run, error) {
	run := &Run{ID: uuid.NewString(), Started: time.Now()}
	log := r.log.WithField("run_id", run.ID)

	list, err := r.loader.List()
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"frames": len(list), "workers": r.workers}).Info("starting run")

	results := make([]*FrameResult, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, frame := range list {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = r.processFrame(gctx, log, frame)
			return nil
		})
	}
	// Frame failures live on the results, so the group never errors.
	_ = g.Wait()

	for _, res := range results {
		if res != nil {
			run.Frames = append(run.Frames, res)
		}
	}
	run.Finished = time.Now()

	ok := 0
	for _, res := range run.Frames {
		if res.OK() {
			ok++
		}
	}
	log.WithFields(logrus.Fields{
		"processed": len(run.Frames),
		"ok":        ok,
		"failed":    len(run.Frames) - ok,
		"elapsed":   run.Finished.Sub(run.Started).String(),
	}).Info("run finished")

	if err := ctx.Err(); err != nil {
		return run, err
	}
	return run, nil
}

func (r *Runner) processFrame(ctx context.Context, log logrus.FieldLogger, frame imaging.Frame) *FrameResult {
	log = log.WithFields(logrus.Fields{"frame": frame.Index, "path": frame.Path})

	img, err := r.loader.Load(frame.Path)
	var res *FrameResult
	if err != nil {
		res = &FrameResult{Frame: frame, Status: StatusLoadFailed, Err: err}
	} else {
		res = r.processor.Process(frame, img)
	}

	if res.OK() {
		log.WithField("offset_m", res.Offset).Debug("frame processed")
	} else {
		log.WithError(res.Err).WithField("status", res.Status).Warn("frame skipped")
	}

	for _, o := range r.observers {
		if err := o.Observe(ctx, img, res); err != nil {
			log.WithError(err).Warn("observer failed")
		}
	}
	return res
}
