package sink

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
	"github.com/matzehuels/stippler/pkg/render"
)

func testScene() *render.Scene {
	return &render.Scene{
		Width:       40,
		Height:      20,
		Points:      []geom.Point{{X: 10, Y: 10}, {X: 30, Y: 10}},
		Neighbors:   [][2]int{{0, 1}},
		Cells:       []render.Segment{{A: geom.Pt(20, 0), B: geom.Pt(20, 20)}},
		Delaunay:    []render.Segment{{A: geom.Pt(10, 10), B: geom.Pt(30, 10)}},
		PointRadius: 2,
		Palette:     render.DefaultPalette,
	}
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(testScene()))

	tests := []struct {
		name, want string
	}{
		{"root", `viewBox="0 0 40.0 20.0"`},
		{"background", `fill="#f5f5f5"`},
		{"cells", `<g id="cells" stroke="#ffffff"`},
		{"delaunay", `<g id="delaunay" stroke="#0079f1"`},
		{"points", `<g id="points" fill="#ff6dc2"`},
		{"circle", `<circle cx="10.00" cy="10.00" r="2.00"/>`},
	}
	for _, tt := range tests {
		if !strings.Contains(svg, tt.want) {
			t.Errorf("%s: SVG missing %q", tt.name, tt.want)
		}
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("got %d circles, want 2", n)
	}
	if strings.Contains(svg, "<image") {
		t.Error("no image requested")
	}
}

func TestRenderSVGOptions(t *testing.T) {
	s := testScene()
	s.Image = density.Uniform(4, 2, 128)

	svg := string(RenderSVG(s, WithBackground(false), WithPrecision(0)))
	if strings.Contains(svg, "<rect") {
		t.Error("background should be disabled")
	}
	if !strings.Contains(svg, `<image href="data:image/png;base64,`) {
		t.Error("image backdrop missing")
	}
	if !strings.Contains(svg, `<circle cx="10" cy="10" r="2"/>`) {
		t.Error("precision option not applied")
	}
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(testScene(), WithPNGScale(2))
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Errorf("size = %v, want 80x40", b.Size())
	}

	// The first dot is centred at (20, 20) after scaling.
	r, g, b, _ := img.At(20, 20).RGBA()
	if r>>8 != 255 || g>>8 != 109 || b>>8 != 194 {
		t.Errorf("dot centre colour = %d,%d,%d", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(2, 38).RGBA()
	if r>>8 != 245 || g>>8 != 245 || b>>8 != 245 {
		t.Errorf("background colour = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestRenderPNGInvalid(t *testing.T) {
	if _, err := RenderPNG(testScene(), WithPNGScale(0)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero scale: got %v", err)
	}
	if _, err := RenderPNG(testScene(), WithPNGScale(1e6)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("huge scale: got %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := PointSet{
		Extent:   geom.R(0, 0, 640, 480),
		Points:   []geom.Point{{X: 1.5, Y: 2.25}, {X: 600, Y: 479.125}},
		Passes:   250,
		Seed:     42,
		Polarity: "dark",
	}
	data, err := RenderJSON(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ReadJSON(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if out.Extent != in.Extent || out.Passes != in.Passes || out.Seed != in.Seed || out.Polarity != in.Polarity {
		t.Errorf("metadata mismatch: %+v", out)
	}
	if len(out.Points) != 2 || out.Points[1] != in.Points[1] {
		t.Errorf("points = %v", out.Points)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"garbage", `{`, errors.ErrCodeInvalidFormat},
		{"count", `{"extent":{"max_x":1,"max_y":1},"count":3,"points":[[0,0]]}`, errors.ErrCodeIndexMismatch},
		{"extent", `{"extent":{"max_x":0,"max_y":1},"count":0,"points":[]}`, errors.ErrCodeDegenerateGeometry},
	}
	for _, tt := range tests {
		_, err := ReadJSON(strings.NewReader(tt.doc))
		if !errors.Is(err, tt.code) {
			t.Errorf("%s: got %v, want %s", tt.name, err, tt.code)
		}
	}
}
