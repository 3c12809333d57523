// Package geometry provides the planar line model used by lane detection.
//
// A Line is an infinite 2D line stored as an origin point and a unit
// direction. Lines are immutable once constructed and every constructor
// rejects a zero-length direction, so a Line value obtained from this
// package always has a usable direction.
//
// # Coordinate System
//
// Points use image pixel coordinates held as float64 so that geometric
// results can be sub-pixel:
//   - X increases rightward
//   - Y increases downward
//   - Rows are addressed by Y
//
// # Intersections
//
// Intersection solves the 2x2 system formed by the two parametric lines and
// reports no intersection only when the determinant is exactly zero.
// Nearly parallel lines therefore yield very distant, numerically unstable
// points rather than a failure. Callers that need a bounded result should
// validate the returned point; results that overflow to Inf or NaN are
// reported as no intersection.
//
// # Error Handling
//
//   - ErrDegenerateInput: a line was requested through two coincident
//     points, or with a zero direction.
//   - ErrDetectionFailure: two lane lines have no usable intersection, so
//     the frame has no vanishing point or reference point.
package geometry
