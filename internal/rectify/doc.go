// Package rectify turns a raw answer-sheet photograph into a canonical
// top-down image aligned with a sheet template.
//
// # Pipeline
//
// Rectification runs in five stages:
//
//  1. Preprocessing: grayscale conversion and light Gaussian blur to raise
//     marker contrast and suppress sensor noise
//  2. Binarization: a global Otsu threshold separates ink from paper
//  3. Candidate detection: connected dark blobs are filtered by expected
//     marker size, aspect ratio, and fill solidity
//  4. Marker matching: candidates are assigned to the template's fiducial
//     layout and the configuration with the least geometric distortion wins;
//     mirrored and upside-down layouts are rejected by matching each
//     candidate's size against its fiducial and by a winding-order check
//  5. Warp: a homography maps canonical coordinates into the raw image and
//     the sheet is resampled with bilinear interpolation
//
// # Failure semantics
//
// Alignment failures are fatal by design. A missing marker, an out-of-
// tolerance layout, a mirrored sheet, or two equally plausible alignments
// each abort the run with a typed error (*GeometryError or
// *GeometryAmbiguousError) before any answer is read: a silently wrong
// transform would corrupt every downstream answer undetectably.
//
// Marker matching itself never panics or errors internally; it returns a
// tagged MarkerMatch so expected shapes of failure are ordinary values
// rather than control flow.
//
// # Coordinate System
//
// All coordinates are 0-based with the origin at the top-left corner,
// X increasing rightward and Y increasing downward. The canonical frame has
// exactly the template's page dimensions, so template geometry indexes the
// rectified image directly.
package rectify
