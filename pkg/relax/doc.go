// Package relax implements image-weighted centroidal relaxation of a point set.
//
// Each pass moves every site a fraction of the way toward the weighted
// centroid of the density image inside its Voronoi cell. Repeating passes
// (regenerating the partition in between) converges to a stipple distribution
// whose local point density follows the image.
//
// # Components
//
//   - [Accumulator]: rasterizes one cell against the density image and
//     returns its weighted centroid, or reports no contribution.
//   - [Relax]: the driver. Runs the accumulator for every site and commits
//     the damped moves into a [State].
//
// # Failure Semantics
//
// A pass is all or nothing. Degenerate geometry (empty or oversized cell
// boundaries, zero-extent diagram bounds) and index mismatches between the
// partition and the point array abort the pass before any point is written.
// A cell whose accumulated weight is zero is not an error; its site simply
// stays where it is.
//
// # Concurrency
//
// Cells are independent within a pass. With [Options].Workers > 1 the sites
// are split into contiguous index ranges, each processed by one goroutine
// with its own Accumulator, so every slot of the point array is written by
// exactly one worker. Passes never overlap and cannot be interrupted midway.
package relax
