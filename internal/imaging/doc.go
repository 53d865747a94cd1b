// Package imaging provides the image side of the checkbox detector: loading
// card scans (local files or URLs), binarizing them for contour extraction,
// and rendering annotated debug images.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive
//
// Images produced here (Binarize, Annotate) always have their origin at
// (0, 0), so coordinates found on the binary image can be drawn on the
// annotated copy unchanged.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return wrapped errors for:
//   - File I/O errors during image loading or saving
//   - Undecodable image data
//   - Failed or non-200 downloads
//   - Crop regions outside the image
package imaging
