// Package layout turns checkbox candidates into a card layout.
//
// Candidates arrive as pixel bounding boxes. A Normalizer converts them to
// card units, SplitZone keeps the ones in the checkbox column band,
// GroupRows clusters them into rows, Filter removes rows and row tails that
// break the grid, and Summarize computes the scalars written to the card
// script.
//
// # Units
//
// Card units put the origin at the centre of the card, with X growing right
// and Z growing down. One pixel is cardHeight/imageHeight units on both axes.
// Row thresholds in config.RowConfig are factors of the image height, so they
// stay proportional to the scan resolution.
//
// All functions are pure and safe for concurrent use.
package layout
