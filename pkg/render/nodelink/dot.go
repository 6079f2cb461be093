package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stippler/pkg/render"
)

// Options configures DOT generation.
type Options struct {
	// Labels names each node by its point index instead of drawing a dot.
	Labels bool
}

// pointsPerUnit converts scene units to Graphviz points (1/72 inch); scene
// units are treated as CSS pixels.
const pointsPerUnit = 0.75

// ToDOT converts the scene's points and Delaunay adjacency to DOT. Node
// positions are pinned with "!" and flipped so the drawing keeps the
// scene's top-left origin.
func ToDOT(s *render.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=false;\n")
	fmt.Fprintf(&buf, "  edge [color=%q, penwidth=0.5];\n", hex(s.Palette.Delaunay))
	if opts.Labels {
		buf.WriteString("  node [shape=plaintext, fontsize=8, margin=0, width=0, height=0];\n")
	} else {
		fmt.Fprintf(&buf, "  node [shape=circle, style=filled, label=\"\", color=%q, fillcolor=%q, width=%.3f, fixedsize=true];\n",
			hex(s.Palette.Point), hex(s.Palette.Point), 2*s.PointRadius*pointsPerUnit/72)
	}
	buf.WriteString("\n")

	for i, p := range s.Points {
		x := p.X * pointsPerUnit
		y := (s.Height - p.Y) * pointsPerUnit
		if opts.Labels {
			fmt.Fprintf(&buf, "  n%d [label=\"%d\", pos=\"%.2f,%.2f!\"];\n", i, i, x, y)
		} else {
			fmt.Fprintf(&buf, "  n%d [pos=\"%.2f,%.2f!\"];\n", i, x, y)
		}
	}

	buf.WriteString("\n")
	for _, nb := range s.Neighbors {
		fmt.Fprintf(&buf, "  n%d -- n%d;\n", nb[0], nb[1])
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG lays out and draws DOT source with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's root element, which carries pt units
// and a transform-dependent viewBox, with a plain pixel-sized one.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

func hex(c interface{ RGBA() (r, g, b, a uint32) }) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
