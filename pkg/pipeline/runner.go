package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/stippler/pkg/cache"
	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/observability"
	"github.com/matzehuels/stippler/pkg/partition"
	"github.com/matzehuels/stippler/pkg/relax"
	"github.com/matzehuels/stippler/pkg/render/sink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so the caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → relax → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	result := &Result{
		RunID:     runID,
		Artifacts: make(map[string][]byte),
	}
	logger := opts.Logger.With("run", shortID(runID))
	opts.Logger = logger

	// Stage 1: Load
	loadStart := time.Now()
	src, err := LoadImage(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Extent = Extent(src)
	result.Stats.LoadTime = time.Since(loadStart)

	logger.Info("loaded image",
		"width", src.Width,
		"height", src.Height,
		"duration", result.Stats.LoadTime)

	// Stage 2: Relax
	relaxStart := time.Now()
	ps, last, relaxHit, err := r.StippleWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("relax: %w", err)
	}
	result.Points = ps.Points
	result.Stats.Points = len(ps.Points)
	result.Stats.Passes = opts.Passes
	result.Stats.Last = last
	result.CacheInfo.RelaxHit = relaxHit

	part, err := partition.NewFortune(result.Extent).Generate(ps.Points)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	result.Partition = part
	result.Stats.RelaxTime = time.Since(relaxStart)

	logger.Info("relaxed points",
		"points", len(ps.Points),
		"passes", opts.Passes,
		"cached", relaxHit,
		"duration", result.Stats.RelaxTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, ps, part, src, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// StippleWithCacheInfo relaxes a point set over src with caching and returns
// cache hit info. A cache hit skips the relaxation loop entirely, so
// opts.OnPass is not called and the returned pass stats are zero.
func (r *Runner) StippleWithCacheInfo(ctx context.Context, src *density.Image, opts Options) (sink.PointSet, relax.Stats, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRelax(); err != nil {
		return sink.PointSet{}, relax.Stats{}, false, err
	}
	hooks := observability.Cache()
	cacheKey := r.Keyer.RelaxKey(src.Hash(), opts.RelaxKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if ps, err := sink.ReadJSON(bytes.NewReader(data)); err == nil && len(ps.Points) == opts.Points {
				hooks.OnCacheHit(ctx, "relax")
				return ps, relax.Stats{}, true, nil
			}
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "err", err)
		}
	}
	hooks.OnCacheMiss(ctx, "relax")

	st, last, err := Stipple(ctx, src, opts)
	if err != nil {
		return sink.PointSet{}, last, false, err
	}
	ps := PointSet(Extent(src), st.Points, opts)

	if data, err := sink.RenderJSON(ps); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLRelax); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "relax", len(data))
		}
	}
	return ps, last, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, ps sink.PointSet, part *partition.Partition, img *density.Image, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	pointsData, err := sink.RenderJSON(ps)
	if err != nil {
		return nil, false, fmt.Errorf("serialize points for cache key: %w", err)
	}
	pointsHash := cache.Hash(pointsData)
	imageHash := ""
	if opts.ShowImage && img != nil {
		imageHash = img.Hash()
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(pointsHash, opts.ArtifactKeyOpts(format, imageHash))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		hooks.OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	hooks.OnCacheMiss(ctx, "artifact")

	renderHooks := observability.Render()
	renderHooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, ps, part, img, opts)
	renderHooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(pointsHash, opts.ArtifactKeyOpts(format, imageHash))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// shortID trims a UUID to its first group for log lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
