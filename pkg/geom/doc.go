// Package geom provides the planar primitives used by the relaxation core.
//
// Two coordinate spaces are in play and are never mixed without an explicit
// remap:
//
//   - Diagram space: the domain in which the Voronoi partition is computed.
//   - Raster space: the pixel grid of the density image.
//
// [Remapper] converts between them with a per-axis affine scaling. [Contains]
// is the crossing-number point-in-polygon test evaluated once per pixel, and
// [Bounds] extracts the axis-aligned box that restricts that evaluation to a
// tight pixel window.
//
// # Boundary Convention
//
// [Contains] uses the half-open straddle rule (yi > y) != (yj > y) together
// with a strict "left of the crossing" comparison. Points exactly on a left or
// bottom edge therefore count as inside and points on a right or top edge as
// outside. Two cells sharing an edge never both claim a pixel on it.
package geom
