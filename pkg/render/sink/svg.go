package sink

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"image/png"

	"github.com/matzehuels/stippler/pkg/render"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background bool
	precision  int
}

// WithBackground toggles the solid background rectangle (on by default).
func WithBackground(on bool) SVGOption { return func(r *svgRenderer) { r.background = on } }

// WithPrecision sets the number of decimals written for coordinates.
func WithPrecision(digits int) SVGOption { return func(r *svgRenderer) { r.precision = digits } }

// RenderSVG draws the scene as SVG.
func RenderSVG(s *render.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{background: true, precision: 2}
	for _, opt := range opts {
		opt(&r)
	}
	f := func(v float64) string { return fmt.Sprintf("%.*f", r.precision, v) }

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.Width, s.Height, s.Width, s.Height)

	if r.background {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", hex(s.Palette.Background))
	}
	if s.Image != nil {
		if uri, err := pngDataURI(s); err == nil {
			fmt.Fprintf(&buf, `  <image href="%s" width="%s" height="%s" preserveAspectRatio="none"/>`+"\n",
				uri, f(s.Width), f(s.Height))
		}
	}

	writeSegments(&buf, "cells", s.Cells, s.Palette.Cell, f)
	writeSegments(&buf, "delaunay", s.Delaunay, s.Palette.Delaunay, f)

	fmt.Fprintf(&buf, `  <g id="points" fill="%s">`+"\n", hex(s.Palette.Point))
	for _, p := range s.Points {
		fmt.Fprintf(&buf, `    <circle cx="%s" cy="%s" r="%s"/>`+"\n", f(p.X), f(p.Y), f(s.PointRadius))
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeSegments(buf *bytes.Buffer, id string, segs []render.Segment, c color.RGBA, f func(float64) string) {
	if len(segs) == 0 {
		return
	}
	fmt.Fprintf(buf, `  <g id="%s" stroke="%s" stroke-width="1" fill="none">`+"\n", id, hex(c))
	for _, sg := range segs {
		fmt.Fprintf(buf, `    <line x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n", f(sg.A.X), f(sg.A.Y), f(sg.B.X), f(sg.B.Y))
	}
	buf.WriteString("  </g>\n")
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func pngDataURI(s *render.Scene) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image.RGBA()); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
