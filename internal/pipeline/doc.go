// Package pipeline wires the per-frame stages together and runs them over
// a frame sequence.
//
// A Processor turns one decoded frame into a FrameResult: edge map, lane
// lines, vanishing point, correspondences, pose and lateral offset. The
// Processor holds only read-only configuration built once at startup, so a
// single instance serves every worker.
//
// A Runner lists the frames of a FrameLoader, processes them on a bounded
// worker pool and returns the results in frame order. Per-frame failures
// are recorded on the result and never stop the run. Observers are called
// after each frame and must be safe for concurrent use.
package pipeline
