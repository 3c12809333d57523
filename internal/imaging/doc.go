// Package imaging reads dash-camera frames, turns them into edge maps and
// draws detection overlays.
//
// All operations work with standard Go image.Image types and use a
// coordinate system where (0,0) is at the top-left corner, X increases
// rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Edge maps and overlays always start at (0,0), even when the source
//     image is a sub-image with a shifted origin
//
// # Frames
//
// A FrameSource lists the files matching a glob in one directory of an
// afero file system and decodes them on demand. Frames are ordered
// lexically by path, which matches numbered footage such as 001.bmp,
// 002.bmp and so on.
//
// # Thread Safety
//
// FrameSource, DetectEdges and Overlay hold no mutable state and can be
// called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - A frame directory that does not exist or is a file
//   - A malformed glob pattern
//   - Files that cannot be opened or decoded
//
// Drawing never fails: colors that do not parse fall back to the default
// palette and shapes outside the image are clipped.
package imaging
