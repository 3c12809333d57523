// Package pose recovers the camera pose relative to the lane from four
// ground-plane correspondences and reads the lateral offset off it.
//
// # Frames
//
// World coordinates are lane-relative and lie on the road surface: X is
// lateral (positive to the right), Y points down the lane and Z points up.
// Camera coordinates follow the usual pinhole convention: x to the right,
// y down the image and z along the optical axis.
//
// A Pose maps world points into the camera frame, p_cam = R*p_world + t.
// The lateral offset is -t.X. For a camera mounted level and facing down
// the lane this equals the camera's own X coordinate, so the offset is
// positive when the vehicle sits right of the lane center.
//
// # Solver
//
// SolvePlanar undistorts the image points, estimates the plane-to-image
// homography by DLT, decomposes it into R and t, and refines the result by
// Nelder-Mead over the pixel reprojection error. Degenerate input (fewer
// than four points, three collinear points, non-coplanar world points)
// fails with ErrPoseSolve.
package pose
