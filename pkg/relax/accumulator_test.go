package relax

import (
	"math"
	"testing"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
)

// bruteCentroid averages every contained pixel of the whole raster with
// unit weight, in raster space.
func bruteCentroid(poly []geom.Point, w, h int) (geom.Point, int) {
	var sx, sy float64
	var n int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := geom.Pt(float64(x), float64(y))
			if geom.Contains(poly, p) {
				sx += p.X
				sy += p.Y
				n++
			}
		}
	}
	if n == 0 {
		return geom.Point{}, 0
	}
	return geom.Pt(sx/float64(n), sy/float64(n)), n
}

func TestCentroidUniformMatchesPixelMean(t *testing.T) {
	black := density.Uniform(50, 50, 0)
	m, _ := geom.NewRemapper(geom.Pt(0, 0), geom.Pt(50, 50), geom.Pt(50, 50))

	tests := []struct {
		name string
		poly []geom.Point
	}{
		{"square", square(10, 10, 20, 20)},
		{"triangle", []geom.Point{{X: 5, Y: 5}, {X: 40, Y: 8}, {X: 12, Y: 37}}},
		{"hexagon", []geom.Point{{X: 25, Y: 10}, {X: 38, Y: 17}, {X: 38, Y: 32}, {X: 25, Y: 40}, {X: 12, Y: 32}, {X: 12, Y: 17}}},
		{"fractional", square(10.3, 11.7, 19.2, 18.9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewAccumulator(0).Centroid(tt.poly, black, m, density.Dark)
			if err != nil {
				t.Fatalf("Centroid: %v", err)
			}
			want, n := bruteCentroid(tt.poly, 50, 50)
			if !c.OK {
				t.Fatal("expected a centroid")
			}
			if c.Pixels != n {
				t.Errorf("Pixels = %d, want %d", c.Pixels, n)
			}
			if math.Abs(c.Point.X-want.X) > 1e-9 || math.Abs(c.Point.Y-want.Y) > 1e-9 {
				t.Errorf("Point = %v, want %v", c.Point, want)
			}
			if c.Weight != float64(n) {
				t.Errorf("Weight = %g, want %d", c.Weight, n)
			}
		})
	}
}

func TestCentroidRemapsBackToDiagram(t *testing.T) {
	black := density.Uniform(40, 20, 0)
	// Diagram [-1,1]×[-1,1] stretched onto a 40×20 raster.
	m, err := geom.NewRemapper(geom.Pt(-1, -1), geom.Pt(1, 1), geom.Pt(40, 20))
	if err != nil {
		t.Fatal(err)
	}
	cell := square(-1, -1, 1, 1)

	c, err := NewAccumulator(0).Centroid(cell, black, m, density.Dark)
	if err != nil {
		t.Fatal(err)
	}
	// Pixels 0..39 and 0..19 average to 19.5 and 9.5.
	want := m.ToDiagram(geom.Pt(19.5, 9.5))
	if math.Abs(c.Point.X-want.X) > 1e-12 || math.Abs(c.Point.Y-want.Y) > 1e-12 {
		t.Errorf("Point = %v, want %v", c.Point, want)
	}
	if c.Pixels != 800 {
		t.Errorf("Pixels = %d, want 800", c.Pixels)
	}
}

func TestCentroidClipsToRaster(t *testing.T) {
	black := density.Uniform(10, 10, 0)
	m, _ := geom.NewRemapper(geom.Pt(0, 0), geom.Pt(10, 10), geom.Pt(10, 10))

	// Half the cell hangs off the right edge of the raster.
	c, err := NewAccumulator(0).Centroid(square(5, 0, 15, 10), black, m, density.Dark)
	if err != nil {
		t.Fatal(err)
	}
	if c.Pixels != 50 {
		t.Errorf("Pixels = %d, want 50", c.Pixels)
	}
	if math.Abs(c.Point.X-7) > 1e-12 {
		t.Errorf("X = %g, want 7", c.Point.X)
	}

	// A cell entirely outside the raster has no contribution.
	c, err = NewAccumulator(0).Centroid(square(20, 20, 30, 30), black, m, density.Dark)
	if err != nil {
		t.Fatal(err)
	}
	if c.OK || c.Pixels != 0 {
		t.Errorf("got %+v, want empty", c)
	}
}

func TestCentroidZeroWeight(t *testing.T) {
	white := density.Uniform(10, 10, 255)
	m, _ := geom.NewRemapper(geom.Pt(0, 0), geom.Pt(10, 10), geom.Pt(10, 10))

	c, err := NewAccumulator(0).Centroid(square(0, 0, 10, 10), white, m, density.Dark)
	if err != nil {
		t.Fatal(err)
	}
	if c.OK {
		t.Error("white cell under dark polarity should be empty")
	}
	if c.Pixels != 100 {
		t.Errorf("Pixels = %d, want 100", c.Pixels)
	}

	c, err = NewAccumulator(0).Centroid(square(0, 0, 10, 10), white, m, density.Light)
	if err != nil {
		t.Fatal(err)
	}
	if !c.OK {
		t.Error("white cell under light polarity should carry weight")
	}
}

func TestCentroidVertexCap(t *testing.T) {
	black := density.Uniform(10, 10, 0)
	m, _ := geom.NewRemapper(geom.Pt(0, 0), geom.Pt(10, 10), geom.Pt(10, 10))

	circle := make([]geom.Point, 100)
	for i := range circle {
		a := 2 * math.Pi * float64(i) / float64(len(circle))
		circle[i] = geom.Pt(5+4*math.Cos(a), 5+4*math.Sin(a))
	}

	tests := []struct {
		name    string
		max     int
		wantErr bool
	}{
		{"default cap", 0, true},
		{"explicit cap", 99, true},
		{"large cap", 100, false},
		{"disabled", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccumulator(tt.max).Centroid(circle, black, m, density.Dark)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeDegenerateGeometry) {
					t.Errorf("expected DEGENERATE_GEOMETRY, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCentroidEmptyBoundary(t *testing.T) {
	m, _ := geom.NewRemapper(geom.Pt(0, 0), geom.Pt(10, 10), geom.Pt(10, 10))
	_, err := NewAccumulator(0).Centroid(nil, density.Uniform(10, 10, 0), m, density.Dark)
	if !errors.Is(err, errors.ErrCodeDegenerateGeometry) {
		t.Errorf("expected DEGENERATE_GEOMETRY, got %v", err)
	}
}

func TestAccumulatorReusesScratch(t *testing.T) {
	black := density.Uniform(20, 20, 0)
	m, _ := geom.NewRemapper(geom.Pt(0, 0), geom.Pt(20, 20), geom.Pt(20, 20))
	acc := NewAccumulator(0)

	big := []geom.Point{{X: 1, Y: 1}, {X: 10, Y: 0}, {X: 19, Y: 1}, {X: 19, Y: 19}, {X: 10, Y: 18}, {X: 1, Y: 19}}
	if _, err := acc.Centroid(big, black, m, density.Dark); err != nil {
		t.Fatal(err)
	}
	before := cap(acc.scratch)

	small := square(2, 2, 6, 6)
	c, err := acc.Centroid(small, black, m, density.Dark)
	if err != nil {
		t.Fatal(err)
	}
	if cap(acc.scratch) != before {
		t.Errorf("scratch reallocated: cap %d -> %d", before, cap(acc.scratch))
	}
	if len(acc.scratch) != len(small) {
		t.Errorf("scratch holds %d vertices, want %d", len(acc.scratch), len(small))
	}
	if math.Abs(c.Point.X-3.5) > 1e-12 || math.Abs(c.Point.Y-3.5) > 1e-12 {
		t.Errorf("Point = %v, want (3.5,3.5)", c.Point)
	}
}
