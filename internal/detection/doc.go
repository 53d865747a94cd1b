// Package detection finds checkbox candidates in a binarized card scan.
//
// Detection runs in two steps: contour extraction, then shape gating.
//
// # Contour Extraction
//
// FindContours returns the outer boundary of every outermost foreground blob.
// The default build uses FindExternalContours, a pure Go tracer; building with
// -tags gocv switches to OpenCV's findContours with the same retrieval mode
// (external only) and chain compression (straight runs reduced to their end
// points), so both backends feed the same polygon metrics.
//
// # Shape Gating
//
// Each contour is measured (bounding box, enclosed area, solidity, and the
// vertex count of its Douglas–Peucker approximation) and kept when:
//
//   - the aspect ratio w/h lies strictly inside the configured band
//   - both w and h, as fractions of the image height, lie strictly inside
//     the configured size band
//   - solidity is above the configured minimum
//   - the corner count lies inside the configured band (inclusive)
//
// The horizontal zone gate needs card units and lives in package layout.
//
// # Coordinate System
//
// Coordinates are pixels with the origin at the top-left corner:
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes count pixels, so a single pixel is 1x1
package detection
