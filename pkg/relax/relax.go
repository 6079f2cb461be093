package relax

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
)

// DefaultDamping is the fraction of the distance to the centroid covered in
// one pass. Jumping straight to the centroid makes successive partitions
// oscillate.
const DefaultDamping = 0.1

// minCellsPerWorker keeps tiny passes on a single goroutine.
const minCellsPerWorker = 64

// State is the mutable relaxation state: one point per site, indexed by the
// site's stable index, plus the number of completed passes.
type State struct {
	Points []geom.Point
	Pass   int
}

// NewState copies points into a fresh State at pass zero.
func NewState(points []geom.Point) *State {
	return &State{Points: append([]geom.Point(nil), points...)}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	return &State{Points: append([]geom.Point(nil), s.Points...), Pass: s.Pass}
}

// Options configures one relaxation pass.
type Options struct {
	// Damping is the fraction of the way each site moves toward its
	// centroid, in (0, 1]. Zero selects DefaultDamping.
	Damping float64

	// Polarity selects whether dark or light pixels carry mass.
	Polarity density.Polarity

	// MaxVertices caps cell boundary length (see Accumulator.MaxVertices).
	MaxVertices int

	// Workers is the number of goroutines sharing the cells of a pass.
	// Values below 2 run sequentially.
	Workers int
}

func (o Options) damping() float64 {
	if o.Damping == 0 {
		return DefaultDamping
	}
	return o.Damping
}

// Stats summarizes one pass.
type Stats struct {
	Pass      int     // pass number after commit (1-based)
	Moved     int     // sites that received a centroid
	Empty     int     // sites whose cell had zero weight
	MaxShift  float64 // largest displacement, diagram units
	MeanShift float64 // mean displacement over all sites, diagram units
}

// Relax runs one pass over every site of st.
//
// boundaries[i] is the cell of st.Points[i], in diagram space; extent is the
// diagram bounding box and raster the pixel size of img's coordinate grid.
// Sites whose cell yields a centroid move to Lerp(old, centroid, damping);
// the rest stay put. The pass is all or nothing: on error st is unchanged.
//
// ctx is consulted once before the pass starts. A pass always runs to
// completion once begun.
func Relax(ctx context.Context, st *State, boundaries [][]geom.Point, img *density.Image, extent geom.Rect, raster geom.Point, opts Options) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	if len(boundaries) != len(st.Points) {
		return Stats{}, errors.New(errors.ErrCodeIndexMismatch,
			"partition has %d cells for %d sites", len(boundaries), len(st.Points))
	}
	damping := opts.damping()
	if err := errors.ValidateDamping(damping); err != nil {
		return Stats{}, err
	}
	if img == nil {
		return Stats{}, errors.New(errors.ErrCodeInvalidImage, "no density image")
	}
	m, err := geom.NewRemapper(extent.Min, extent.Max, raster)
	if err != nil {
		return Stats{}, err
	}

	next := make([]geom.Point, len(st.Points))
	parts := splitRanges(len(st.Points), opts.Workers)
	partial := make([]Stats, len(parts))

	var g errgroup.Group
	for k, r := range parts {
		g.Go(func() error {
			acc := NewAccumulator(opts.MaxVertices)
			s := &partial[k]
			for i := r[0]; i < r[1]; i++ {
				old := st.Points[i]
				c, err := acc.Centroid(boundaries[i], img, m, opts.Polarity)
				if err != nil {
					return fmt.Errorf("site %d: %w", i, err)
				}
				if !c.OK {
					next[i] = old
					s.Empty++
					continue
				}
				p := old.Lerp(c.Point, damping)
				next[i] = p
				s.Moved++
				shift := old.Dist(p)
				s.MaxShift = math.Max(s.MaxShift, shift)
				s.MeanShift += shift
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	copy(st.Points, next)
	st.Pass++

	stats := Stats{Pass: st.Pass}
	for _, s := range partial {
		stats.Moved += s.Moved
		stats.Empty += s.Empty
		stats.MaxShift = math.Max(stats.MaxShift, s.MaxShift)
		stats.MeanShift += s.MeanShift
	}
	if n := len(st.Points); n > 0 {
		stats.MeanShift /= float64(n)
	}
	return stats, nil
}

// splitRanges divides [0, n) into at most workers contiguous half-open
// ranges of near-equal size.
func splitRanges(n, workers int) [][2]int {
	if maxWorkers := n / minCellsPerWorker; workers > maxWorkers {
		workers = maxWorkers
	}
	if workers < 1 {
		workers = 1
	}
	ranges := make([][2]int, 0, workers)
	for k := 0; k < workers; k++ {
		lo, hi := k*n/workers, (k+1)*n/workers
		ranges = append(ranges, [2]int{lo, hi})
	}
	return ranges
}
