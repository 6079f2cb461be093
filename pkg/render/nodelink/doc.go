// Package nodelink renders the Delaunay graph of a stipple set as a
// node-link diagram using Graphviz.
//
// # Overview
//
// Every stipple becomes a point-shaped node pinned at its scene position
// and every Delaunay pair an undirected edge. Positions are pinned, so the
// neato engine only routes and draws; it never moves a node.
//
// # Usage
//
//	dot := nodelink.ToDOT(scene, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source is also useful on its own: feed it to any Graphviz tool
// with `neato -n2` to reproduce the drawing.
package nodelink
