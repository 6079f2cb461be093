package relax

import (
	"math"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
)

// DefaultMaxVertices is the boundary vertex cap applied when
// Options.MaxVertices is zero. Voronoi cells of scattered points rarely
// exceed a dozen edges; anything far beyond that signals a broken partition.
const DefaultMaxVertices = 64

// Centroid is the outcome of accumulating one cell.
type Centroid struct {
	Point  geom.Point // weighted centroid in diagram space (valid when OK)
	Weight float64    // total accumulated weight
	Pixels int        // pixels that passed the containment test
	OK     bool       // false means no contribution: leave the site alone
}

// Accumulator computes weighted centroids. It owns a scratch buffer for the
// raster-space boundary that grows as needed and is reused across cells, so
// a single Accumulator should be used by one goroutine at a time.
type Accumulator struct {
	// MaxVertices caps the boundary length. Zero selects
	// DefaultMaxVertices; a negative value disables the cap.
	MaxVertices int

	scratch []geom.Point
}

// NewAccumulator returns an Accumulator with the given vertex cap.
func NewAccumulator(maxVertices int) *Accumulator {
	return &Accumulator{MaxVertices: maxVertices}
}

func (a *Accumulator) limit() int {
	if a.MaxVertices == 0 {
		return DefaultMaxVertices
	}
	return a.MaxVertices
}

// Centroid accumulates the density image over one cell.
//
// The boundary is remapped into raster space once, the cell's bounding box is
// turned into a clipped pixel window, and every pixel in the window that lies
// inside the boundary contributes pol.Weight(brightness) at its position.
// The weighted mean is converted back to diagram space. Pixels with
// non-positive weight are skipped. A zero total weight yields a Centroid
// with OK false.
func (a *Accumulator) Centroid(boundary []geom.Point, img *density.Image, m geom.Remapper, pol density.Polarity) (Centroid, error) {
	if len(boundary) == 0 {
		return Centroid{}, errors.New(errors.ErrCodeDegenerateGeometry, "cell boundary has no vertices")
	}
	if limit := a.limit(); limit > 0 && len(boundary) > limit {
		return Centroid{}, errors.New(errors.ErrCodeDegenerateGeometry,
			"cell boundary has %d vertices (max %d)", len(boundary), limit)
	}

	a.scratch = m.PolygonToRaster(a.scratch[:0], boundary)
	poly := a.scratch

	bounds, err := geom.Bounds(poly)
	if err != nil {
		return Centroid{}, err
	}

	w := min(img.Width, int(math.Round(m.Size.X)))
	h := min(img.Height, int(math.Round(m.Size.Y)))
	win := bounds.Pixels(w, h)

	var sumX, sumY, total float64
	var pixels int
	for y := win.Min.Y; y < win.Max.Y; y++ {
		row := img.Pix[y*img.Width*3:]
		fy := float64(y)
		for x := win.Min.X; x < win.Max.X; x++ {
			if !geom.Contains(poly, geom.Point{X: float64(x), Y: fy}) {
				continue
			}
			pixels++
			i := x * 3
			avg := (float64(row[i]) + float64(row[i+1]) + float64(row[i+2])) / 3
			weight := pol.Weight(avg)
			if weight <= 0 {
				continue
			}
			sumX += float64(x) * weight
			sumY += fy * weight
			total += weight
		}
	}

	if total <= 0 {
		return Centroid{Pixels: pixels}, nil
	}
	// ToDiagram is affine, so mapping the raster-space weighted mean equals
	// the weighted mean of the individually mapped pixels.
	return Centroid{
		Point:  m.ToDiagram(geom.Point{X: sumX / total, Y: sumY / total}),
		Weight: total,
		Pixels: pixels,
		OK:     true,
	}, nil
}
