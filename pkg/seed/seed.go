// Package seed produces the initial point distribution handed to the
// relaxation driver.
//
// All generators draw from a caller-supplied *rand.Rand, so a run is
// reproducible from its seed. Use [NewRand] to build one the same way
// everywhere.
package seed

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
)

// Strategy names an initial distribution.
type Strategy string

const (
	// StrategyUniform scatters points uniformly over the extent.
	StrategyUniform Strategy = "uniform"
	// StrategyRejection keeps uniform samples with probability equal to
	// their pixel weight, so the start already follows the image.
	StrategyRejection Strategy = "rejection"
	// StrategyPoisson draws a Poisson-disk (blue noise) set and tops it up
	// with uniform points.
	StrategyPoisson Strategy = "poisson"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyUniform, StrategyRejection, StrategyPoisson}

// ParseStrategy parses a strategy name. The empty string selects
// StrategyUniform.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyUniform:
		return StrategyUniform, nil
	case StrategyRejection:
		return StrategyRejection, nil
	case StrategyPoisson:
		return StrategyPoisson, nil
	}
	return "", errors.New(errors.ErrCodeInvalidSeeding, "unknown seeding strategy %q (want uniform, rejection or poisson)", s)
}

// NewRand returns a PCG-backed generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Request describes an initial distribution.
type Request struct {
	Strategy Strategy
	N        int
	Extent   geom.Rect

	// Image and Polarity drive StrategyRejection. The image is stretched
	// over Extent.
	Image    *density.Image
	Polarity density.Polarity
}

// Generate returns exactly req.N distinct points inside req.Extent.
func Generate(rng *rand.Rand, req Request) ([]geom.Point, error) {
	if err := errors.ValidatePointCount(req.N); err != nil {
		return nil, err
	}
	if req.Extent.Empty() {
		return nil, errors.New(errors.ErrCodeDegenerateGeometry, "seed extent %v has no area", req.Extent)
	}

	switch req.Strategy {
	case StrategyUniform, "":
		return Uniform(rng, req.N, req.Extent), nil
	case StrategyRejection:
		if req.Image == nil {
			return nil, errors.New(errors.ErrCodeInvalidSeeding, "rejection seeding needs a density image")
		}
		return Rejection(rng, req.N, req.Extent, req.Image, req.Polarity, 0)
	case StrategyPoisson:
		r := PoissonRadius(req.N, req.Extent)
		pts := Poisson(rng, req.Extent, r, DefaultPoissonAttempts, req.N)
		return fill(rng, pts, req.N, req.Extent), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidSeeding, "unknown seeding strategy %q", req.Strategy)
}

// Uniform returns n distinct points drawn uniformly from ext.
func Uniform(rng *rand.Rand, n int, ext geom.Rect) []geom.Point {
	return fill(rng, make([]geom.Point, 0, n), n, ext)
}

// fill appends uniform points to pts until it holds n distinct points.
func fill(rng *rand.Rand, pts []geom.Point, n int, ext geom.Rect) []geom.Point {
	seen := make(map[geom.Point]bool, n)
	for _, p := range pts {
		seen[p] = true
	}
	for len(pts) < n {
		p := geom.Pt(
			ext.Min.X+rng.Float64()*ext.Width(),
			ext.Min.Y+rng.Float64()*ext.Height(),
		)
		if seen[p] {
			continue
		}
		seen[p] = true
		pts = append(pts, p)
	}
	return pts
}

// DefaultRejectionAttempts bounds rejection sampling at this many draws per
// requested point.
const DefaultRejectionAttempts = 1000

// Rejection draws uniform candidates over ext and keeps each with
// probability pol.Weight of the pixel under it. maxAttempts bounds the
// total number of draws (zero selects n*DefaultRejectionAttempts); an image
// with too little mass for n points is an INVALID_SEEDING error.
func Rejection(rng *rand.Rand, n int, ext geom.Rect, img *density.Image, pol density.Polarity, maxAttempts int) ([]geom.Point, error) {
	m, err := geom.NewRemapper(ext.Min, ext.Max, geom.Pt(float64(img.Width), float64(img.Height)))
	if err != nil {
		return nil, err
	}
	if maxAttempts <= 0 {
		maxAttempts = n * DefaultRejectionAttempts
	}

	pts := make([]geom.Point, 0, n)
	seen := make(map[geom.Point]bool, n)
	for attempt := 0; len(pts) < n; attempt++ {
		if attempt >= maxAttempts {
			return nil, errors.New(errors.ErrCodeInvalidSeeding,
				"rejection sampling placed %d of %d points in %d draws; image has too little %s mass", len(pts), n, maxAttempts, pol)
		}
		p := geom.Pt(
			ext.Min.X+rng.Float64()*ext.Width(),
			ext.Min.Y+rng.Float64()*ext.Height(),
		)
		r := m.ToRaster(p)
		x := min(int(r.X), img.Width-1)
		y := min(int(r.Y), img.Height-1)
		if rng.Float64() >= pol.Weight(img.Brightness(x, y)) || seen[p] {
			continue
		}
		seen[p] = true
		pts = append(pts, p)
	}
	return pts, nil
}

// DefaultPoissonAttempts is the number of candidates tried around each
// active sample before it is retired.
const DefaultPoissonAttempts = 30

// PoissonRadius returns a minimum distance for which a Poisson-disk set in
// ext holds roughly n points.
func PoissonRadius(n int, ext geom.Rect) float64 {
	return 0.7 * math.Sqrt(ext.Width()*ext.Height()/float64(n))
}

// Poisson returns a Poisson-disk sample of ext with minimum distance radius
// using Bridson's algorithm. It stops after limit points when limit > 0.
func Poisson(rng *rand.Rand, ext geom.Rect, radius float64, attempts, limit int) []geom.Point {
	if radius <= 0 || ext.Empty() {
		return nil
	}
	if attempts <= 0 {
		attempts = DefaultPoissonAttempts
	}

	cell := radius / math.Sqrt2
	cols := int(math.Ceil(ext.Width() / cell))
	rows := int(math.Ceil(ext.Height() / cell))
	grid := make([]int, cols*rows)
	for i := range grid {
		grid[i] = -1
	}
	gridAt := func(p geom.Point) (int, int) {
		c := min(int((p.X-ext.Min.X)/cell), cols-1)
		r := min(int((p.Y-ext.Min.Y)/cell), rows-1)
		return c, r
	}

	var pts, active []geom.Point
	add := func(p geom.Point) {
		c, r := gridAt(p)
		grid[r*cols+c] = len(pts)
		pts = append(pts, p)
		active = append(active, p)
	}
	fits := func(p geom.Point) bool {
		if !ext.ContainsPoint(p) || p.X == ext.Max.X || p.Y == ext.Max.Y {
			return false
		}
		c, r := gridAt(p)
		for y := max(r-2, 0); y <= min(r+2, rows-1); y++ {
			for x := max(c-2, 0); x <= min(c+2, cols-1); x++ {
				if j := grid[y*cols+x]; j >= 0 && pts[j].Dist(p) < radius {
					return false
				}
			}
		}
		return true
	}

	add(geom.Pt(ext.Min.X+rng.Float64()*ext.Width(), ext.Min.Y+rng.Float64()*ext.Height()))
	for len(active) > 0 && (limit <= 0 || len(pts) < limit) {
		k := rng.IntN(len(active))
		base := active[k]
		placed := false
		for range attempts {
			a := rng.Float64() * 2 * math.Pi
			d := radius * (1 + rng.Float64())
			p := geom.Pt(base.X+d*math.Cos(a), base.Y+d*math.Sin(a))
			if fits(p) {
				add(p)
				placed = true
				break
			}
		}
		if !placed {
			active[k] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}
	return pts
}
