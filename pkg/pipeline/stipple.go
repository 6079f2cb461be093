package pipeline

import (
	"bytes"
	"context"
	"runtime"
	"time"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/geom"
	"github.com/matzehuels/stippler/pkg/observability"
	"github.com/matzehuels/stippler/pkg/partition"
	"github.com/matzehuels/stippler/pkg/relax"
	"github.com/matzehuels/stippler/pkg/seed"
)

// LoadImage returns the source image named by opts.
func LoadImage(opts Options) (*density.Image, error) {
	switch {
	case opts.Image != nil:
		return opts.Image, nil
	case len(opts.ImageData) > 0:
		img, _, err := density.Decode(bytes.NewReader(opts.ImageData))
		return img, err
	default:
		return density.Load(opts.ImagePath)
	}
}

// Extent returns the diagram bounding box for a source image: its pixel
// rectangle.
func Extent(src *density.Image) geom.Rect {
	return geom.R(0, 0, float64(src.Width), float64(src.Height))
}

// Raster returns the density raster for src, resampled when the options ask
// for a different size.
func Raster(src *density.Image, opts Options) *density.Image {
	if opts.RasterWidth == 0 && opts.RasterHeight == 0 {
		return src
	}
	return src.Resample(opts.RasterWidth, opts.RasterHeight)
}

// Stipple seeds opts.Points points over src and relaxes them for
// opts.Passes passes. Diagram space is the pixel rectangle of src; the
// density raster may be smaller or larger (see [Raster]).
//
// ctx is checked between passes. On cancellation the last committed state
// is returned together with ctx.Err().
func Stipple(ctx context.Context, src *density.Image, opts Options) (*relax.State, relax.Stats, error) {
	if err := opts.ValidateForRelax(); err != nil {
		return nil, relax.Stats{}, err
	}
	logger := opts.Logger

	extent := Extent(src)
	raster := Raster(src, opts)
	rasterSize := geom.Pt(float64(raster.Width), float64(raster.Height))

	strategy, _ := seed.ParseStrategy(opts.SeedStrategy)
	points, err := seed.Generate(seed.NewRand(opts.Seed), seed.Request{
		Strategy: strategy,
		N:        opts.Points,
		Extent:   extent,
		Image:    raster,
		Polarity: opts.polarity(),
	})
	if err != nil {
		return nil, relax.Stats{}, err
	}

	st := relax.NewState(points)
	gen := partition.NewFortune(extent)
	relaxOpts := relax.Options{
		Damping:     opts.Damping,
		Polarity:    opts.polarity(),
		MaxVertices: opts.MaxVertices,
		Workers:     opts.workers(),
	}

	hooks := observability.Relax()
	hooks.OnRunStart(ctx, len(points), opts.Passes)
	start := time.Now()

	var last relax.Stats
	for st.Pass < opts.Passes {
		if err := ctx.Err(); err != nil {
			hooks.OnRunComplete(ctx, st.Pass, time.Since(start), err)
			return st, last, err
		}
		passStart := time.Now()

		part, err := gen.Generate(st.Points)
		if err != nil {
			hooks.OnRunComplete(ctx, st.Pass, time.Since(start), err)
			return st, last, err
		}
		stats, err := relax.Relax(ctx, st, part.Cells, raster, extent, rasterSize, relaxOpts)
		if err != nil {
			hooks.OnRunComplete(ctx, st.Pass, time.Since(start), err)
			return st, last, err
		}
		last = stats

		hooks.OnPassComplete(ctx, stats.Pass, stats.MaxShift, time.Since(passStart))
		logger.Debug("relaxed",
			"pass", stats.Pass,
			"moved", stats.Moved,
			"empty", stats.Empty,
			"max_shift", stats.MaxShift)
		if opts.OnPass != nil {
			opts.OnPass(stats)
		}
	}

	hooks.OnRunComplete(ctx, st.Pass, time.Since(start), nil)
	return st, last, nil
}

// workers returns the configured worker count, or one per CPU.
func (o *Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}
