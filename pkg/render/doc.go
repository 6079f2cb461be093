// Package render turns a relaxed point set into something to look at.
//
// # Overview
//
// Rendering happens in two steps. [NewScene] maps the points, the Voronoi
// edges and the Delaunay adjacency of a run from diagram space into output
// space. The subpackages then write a [Scene] out:
//
//   - [sink]: SVG, PNG and the JSON point-set format
//   - [nodelink]: the Delaunay graph as Graphviz DOT, laid out by neato
//
// # Layers
//
// A scene is drawn back to front: optional density image, Voronoi cell
// edges, Delaunay edges, then the stipple dots. Only the dots are on by
// default; the other layers are debugging aids.
//
//	scene, err := render.NewScene(points, part, render.SceneOptions{
//	    Scale: 2, ShowCells: true, Image: img,
//	})
//	svg := sink.RenderSVG(scene)
package render
