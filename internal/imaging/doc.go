// Package imaging provides the shared raster utilities for the scanning
// pipeline: image loading and saving, grayscale conversion, Otsu
// thresholding, and the drawing primitives used by the sheet renderer and
// the debug overlays.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Rectangles use inclusive top-left and exclusive bottom-right corners
//
// # Thread Safety
//
// Every function here is stateless: inputs are read-only and outputs are
// freshly allocated (CloneRGBA exists precisely so overlays never touch a
// shared source image). Concurrent calls on distinct outputs are safe.
package imaging
