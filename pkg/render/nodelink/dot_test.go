package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/stippler/pkg/geom"
	"github.com/matzehuels/stippler/pkg/render"
)

func triangleScene() *render.Scene {
	return &render.Scene{
		Width:       100,
		Height:      100,
		Points:      []geom.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 50, Y: 80}},
		Neighbors:   [][2]int{{0, 1}, {0, 2}, {1, 2}},
		PointRadius: 2,
		Palette:     render.DefaultPalette,
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(triangleScene(), Options{})

	tests := []string{
		"graph G {",
		"layout=neato;",
		`n0 [pos="7.50,67.50!"];`,
		`n2 [pos="37.50,15.00!"];`,
		"n0 -- n1;",
		"n1 -- n2;",
		`fillcolor="#ff6dc2"`,
		`edge [color="#0079f1"`,
	}
	for _, want := range tests {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "->") {
		t.Error("Delaunay graph must be undirected")
	}
}

func TestToDOTLabels(t *testing.T) {
	dot := ToDOT(triangleScene(), Options{Labels: true})
	if !strings.Contains(dot, `n1 [label="1", pos=`) {
		t.Errorf("labels missing:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(triangleScene(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	s := string(svg)
	if !strings.HasPrefix(strings.TrimSpace(s[strings.Index(s, "<svg"):]), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("root element not normalized: %.200s", s)
	}
	if !strings.Contains(s, "</svg>") {
		t.Error("SVG not closed")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox = %s, want %s", out, want)
	}
	if got := string(normalizeViewBox([]byte("<svg>"))); got != "<svg>" {
		t.Errorf("no viewBox should be untouched, got %s", got)
	}
}
