// Package pkg provides the core libraries for Stippler, a weighted Lloyd
// stippling tool.
//
// # Overview
//
// Stippler places a fixed number of points over an image so that their local
// density follows the image's darkness (or lightness), then relaxes them
// toward the density-weighted centroids of their Voronoi cells. The pkg
// directory is organized into these areas:
//
//  1. [geom] - Points, polygons, the pnpoly test and affine remapping
//  2. [density] - Image decoding and the density raster
//  3. [partition] - Voronoi cells and Delaunay adjacency for a point set
//  4. [seed] - Initial point placement
//  5. [relax] - Weighted centroid accumulation and the Lloyd loop
//  6. [render] - Scenes and their SVG, PNG, JSON and DOT sinks
//  7. [pipeline] - Orchestration (load → seed → relax → render) with caching
//  8. [cache], [config], [errors], [observability] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through Stippler:
//
//	Image file
//	     ↓
//	[density] package (grayscale raster, polarity)
//	     ↓
//	[seed] package (initial points)
//	     ↓
//	[relax] package (passes over [partition] cells)
//	     ↓
//	[render] package (scene → sinks)
//	     ↓
//	SVG/PNG/JSON/DOT output
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ImagePath: "portrait.jpg",
//	    Points:    4000,
//	    Passes:    50,
//	    Formats:   []string{pipeline.FormatSVG},
//	})
//	os.WriteFile("portrait.svg", result.Artifacts[pipeline.FormatSVG], 0o644)
package pkg
