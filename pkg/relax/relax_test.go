package relax

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
)

// square returns the axis-aligned square cell [x0,x1]×[y0,y1].
func square(x0, y0, x1, y1 float64) []geom.Point {
	return []geom.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// gradient returns a w×h image whose brightness rises left to right.
func gradient(w, h int) *density.Image {
	pix := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			i := (y*w + x) * 3
			pix[i], pix[i+1], pix[i+2] = v, v, v
		}
	}
	img, _ := density.New(w, h, pix)
	return img
}

// gridCells tiles extent 0..size with n×n square cells and returns the
// cells and their centres.
func gridCells(n int, size float64) ([][]geom.Point, []geom.Point) {
	step := size / float64(n)
	var cells [][]geom.Point
	var sites []geom.Point
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x0, y0 := float64(i)*step, float64(j)*step
			cells = append(cells, square(x0, y0, x0+step, y0+step))
			sites = append(sites, geom.Pt(x0+step/3, y0+step/3))
		}
	}
	return cells, sites
}

func TestRelaxZeroWeightLeavesPointsUnchanged(t *testing.T) {
	white := density.Uniform(20, 20, 255)
	cells, sites := gridCells(2, 20)
	st := NewState(sites)

	stats, err := Relax(context.Background(), st, cells, white, geom.R(0, 0, 20, 20), geom.Pt(20, 20), Options{Polarity: density.Dark})
	require.NoError(t, err)
	assert.Equal(t, sites, st.Points)
	assert.Equal(t, 4, stats.Empty)
	assert.Equal(t, 0, stats.Moved)
	assert.Equal(t, 1, st.Pass)
	assert.Zero(t, stats.MaxShift)
}

func TestRelaxDampingFraction(t *testing.T) {
	black := density.Uniform(10, 10, 0)
	cell := square(2, 2, 8, 8)
	old := geom.Pt(2.5, 7)

	c, err := NewAccumulator(0).Centroid(cell, black, mustRemapper(t, geom.R(0, 0, 10, 10), geom.Pt(10, 10)), density.Dark)
	require.NoError(t, err)
	require.True(t, c.OK)

	for _, d := range []float64{0.1, 0.5, 1} {
		st := NewState([]geom.Point{old})
		_, err := Relax(context.Background(), st, [][]geom.Point{cell}, black, geom.R(0, 0, 10, 10), geom.Pt(10, 10), Options{Damping: d})
		require.NoError(t, err)

		want := geom.Pt(old.X+d*(c.Point.X-old.X), old.Y+d*(c.Point.Y-old.Y))
		assert.InDelta(t, want.X, st.Points[0].X, 1e-12, "damping %g", d)
		assert.InDelta(t, want.Y, st.Points[0].Y, 1e-12, "damping %g", d)
		assert.InDelta(t, d*old.Dist(c.Point), old.Dist(st.Points[0]), 1e-12, "damping %g", d)
	}
}

func TestRelaxDefaultDamping(t *testing.T) {
	black := density.Uniform(10, 10, 0)
	st := NewState([]geom.Point{{X: 0.5, Y: 0.5}})
	_, err := Relax(context.Background(), st, [][]geom.Point{square(2, 2, 8, 8)}, black, geom.R(0, 0, 10, 10), geom.Pt(10, 10), Options{})
	require.NoError(t, err)
	// Centroid of pixels 2..7 is 4.5; 10% of the way from 0.5 is 0.9.
	assert.InDelta(t, 0.9, st.Points[0].X, 1e-12)
	assert.InDelta(t, 0.9, st.Points[0].Y, 1e-12)
}

func TestRelaxFixedPoint(t *testing.T) {
	black := density.Uniform(10, 10, 0)
	cell := square(2, 2, 8, 8)
	st := NewState([]geom.Point{{X: 4.5, Y: 4.5}})

	for range 5 {
		stats, err := Relax(context.Background(), st, [][]geom.Point{cell}, black, geom.R(0, 0, 10, 10), geom.Pt(10, 10), Options{Damping: 0.3})
		require.NoError(t, err)
		assert.InDelta(t, 0, stats.MaxShift, 1e-12)
	}
	assert.InDelta(t, 4.5, st.Points[0].X, 1e-12)
	assert.InDelta(t, 4.5, st.Points[0].Y, 1e-12)
	assert.Equal(t, 5, st.Pass)
}

func TestRelaxIndexStability(t *testing.T) {
	img := gradient(60, 60)
	cells, sites := gridCells(3, 60)
	extent, raster := geom.R(0, 0, 60, 60), geom.Pt(60, 60)

	st := NewState(sites)
	_, err := Relax(context.Background(), st, cells, img, extent, raster, Options{Damping: 0.5})
	require.NoError(t, err)
	require.Len(t, st.Points, len(sites))

	for i := range sites {
		single := NewState([]geom.Point{sites[i]})
		_, err := Relax(context.Background(), single, [][]geom.Point{cells[i]}, img, extent, raster, Options{Damping: 0.5})
		require.NoError(t, err)
		assert.Equal(t, single.Points[0], st.Points[i], "site %d", i)
	}
}

func TestRelaxParallelMatchesSequential(t *testing.T) {
	img := gradient(200, 200)
	cells, sites := gridCells(20, 200)
	extent, raster := geom.R(0, 0, 200, 200), geom.Pt(200, 200)

	seq := NewState(sites)
	seqStats, err := Relax(context.Background(), seq, cells, img, extent, raster, Options{})
	require.NoError(t, err)

	par := NewState(sites)
	parStats, err := Relax(context.Background(), par, cells, img, extent, raster, Options{Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, seq.Points, par.Points)
	assert.Equal(t, seqStats.Moved, parStats.Moved)
	assert.Equal(t, seqStats.Empty, parStats.Empty)
	assert.InDelta(t, seqStats.MeanShift, parStats.MeanShift, 1e-9)
}

func TestRelaxPolarity(t *testing.T) {
	img := gradient(40, 40)
	cell := square(0, 0, 40, 40)
	start := geom.Pt(20, 20)
	extent, raster := geom.R(0, 0, 40, 40), geom.Pt(40, 40)

	dark := NewState([]geom.Point{start})
	_, err := Relax(context.Background(), dark, [][]geom.Point{cell}, img, extent, raster, Options{Polarity: density.Dark, Damping: 1})
	require.NoError(t, err)

	light := NewState([]geom.Point{start})
	_, err = Relax(context.Background(), light, [][]geom.Point{cell}, img, extent, raster, Options{Polarity: density.Light, Damping: 1})
	require.NoError(t, err)

	assert.Less(t, dark.Points[0].X, 19.5, "dark polarity should pull toward the dark left side")
	assert.Greater(t, light.Points[0].X, 19.5, "light polarity should pull toward the bright right side")
}

func TestRelaxIndexMismatch(t *testing.T) {
	cells, sites := gridCells(2, 10)
	st := NewState(sites)
	_, err := Relax(context.Background(), st, cells[:3], density.Uniform(10, 10, 0), geom.R(0, 0, 10, 10), geom.Pt(10, 10), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeIndexMismatch), "got %v", err)
	assert.Equal(t, sites, st.Points)
	assert.Zero(t, st.Pass)
}

func TestRelaxMissingBoundaryAbortsPass(t *testing.T) {
	cells, sites := gridCells(2, 10)
	cells[2] = nil
	st := NewState(sites)
	_, err := Relax(context.Background(), st, cells, density.Uniform(10, 10, 0), geom.R(0, 0, 10, 10), geom.Pt(10, 10), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDegenerateGeometry), "got %v", err)
	assert.True(t, strings.HasPrefix(err.Error(), "site 2: "), "got %v", err)
	assert.Equal(t, 1, strings.Count(err.Error(), string(errors.ErrCodeDegenerateGeometry)), "code repeated in %q", err)
	assert.Equal(t, sites, st.Points, "aborted pass must not write any point")
}

func TestRelaxDegenerateExtent(t *testing.T) {
	st := NewState([]geom.Point{{X: 1, Y: 1}})
	_, err := Relax(context.Background(), st, [][]geom.Point{square(0, 0, 2, 2)}, density.Uniform(4, 4, 0), geom.R(0, 0, 0, 5), geom.Pt(4, 4), Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeDegenerateGeometry), "got %v", err)
}

func TestRelaxInvalidDamping(t *testing.T) {
	st := NewState([]geom.Point{{X: 1, Y: 1}})
	_, err := Relax(context.Background(), st, [][]geom.Point{square(0, 0, 2, 2)}, density.Uniform(4, 4, 0), geom.R(0, 0, 4, 4), geom.Pt(4, 4), Options{Damping: 1.5})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestRelaxCancelledBeforePass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := NewState([]geom.Point{{X: 1, Y: 1}})
	_, err := Relax(ctx, st, [][]geom.Point{square(0, 0, 2, 2)}, density.Uniform(4, 4, 0), geom.R(0, 0, 4, 4), geom.Pt(4, 4), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.Pass)
}

func TestSplitRanges(t *testing.T) {
	tests := []struct {
		n, workers int
		want       int
	}{
		{0, 4, 1},
		{10, 4, 1},
		{128, 4, 2},
		{1000, 4, 4},
		{1000, 0, 1},
	}

	for _, tt := range tests {
		ranges := splitRanges(tt.n, tt.workers)
		if len(ranges) != tt.want {
			t.Errorf("splitRanges(%d, %d) gave %d ranges, want %d", tt.n, tt.workers, len(ranges), tt.want)
		}
		next := 0
		for _, r := range ranges {
			if r[0] != next {
				t.Errorf("splitRanges(%d, %d) gap at %d", tt.n, tt.workers, r[0])
			}
			next = r[1]
		}
		if next != tt.n {
			t.Errorf("splitRanges(%d, %d) ends at %d", tt.n, tt.workers, next)
		}
	}
}

func mustRemapper(t *testing.T, extent geom.Rect, raster geom.Point) geom.Remapper {
	t.Helper()
	m, err := geom.NewRemapper(extent.Min, extent.Max, raster)
	require.NoError(t, err)
	return m
}
