// Package sink writes a [render.Scene] or a point set to an output format.
//
//   - SVG: vector output with one circle per stipple, see [RenderSVG]
//   - PNG: raster output drawn with github.com/fogleman/gg, see [RenderPNG]
//   - JSON: the point-set interchange format, see [RenderJSON] and [ReadJSON]
//
// SVG and PNG take functional options:
//
//	svg := sink.RenderSVG(scene, sink.WithBackground(false))
//	png, err := sink.RenderPNG(scene, sink.WithPNGScale(2))
package sink
