// Package detection finds the two lane boundaries nearest the vehicle in an
// edge image and fits a straight line to each.
//
// # Pipeline
//
// Detection for one frame runs in three steps:
//
//  1. Strip scan: a fixed set of single-row search strips per lane side is
//     walked pixel by pixel, and the first edge pixel met on each strip is
//     recorded. Left strips are walked from their right end toward their
//     left end, right strips the other way, so each side reports the
//     boundary closest to the vehicle centerline.
//  2. Line fit: a RANSAC estimator turns each side's point set into a
//     geometry.Line, tolerating edge pixels that belong to other markings,
//     shadows or vehicles.
//  3. Vanishing point: the two fitted lines are intersected.
//
// # Search Strips
//
// Strips are built once from a StripConfig and reused for every frame. Row
// positions step from the start of the vertical interval to its end, and
// the end row is always covered even when the step overshoots it. Width and
// center are interpolated linearly between the top and bottom rows using
// floor division, so negative center ranges round toward the left edge.
// Strips falling completely outside the clip region are dropped.
//
// # RANSAC Scoring
//
// Each candidate line through two random points is scored against every
// point in the set as the sum of (tolerance - distance) over points within
// tolerance. Closer points therefore contribute more than a plain inlier
// count would. The first candidate reaching the best score is kept; later
// candidates replace it only with a strictly higher score.
//
// # Determinism
//
// The estimator draws from a PCG generator seeded from RANSACConfig.Seed on
// every call, so fitting the same points twice returns the same line and
// concurrent calls never share random state.
package detection
