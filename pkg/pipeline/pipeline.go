// Package pipeline runs a complete stippling job for the CLI and the API.
//
// # Architecture
//
// A run has three stages:
//
//  1. Load: decode the image and resample it to the density raster
//  2. Relax: seed the points, then alternate Voronoi partition and weighted
//     Lloyd relaxation for a fixed number of passes
//  3. Render: build a scene and write every requested format
//
// The relax stage is cached by image content and relaxation options; the
// render stage by point set and presentation options. Changing only the
// output format of a previous run costs one partition and a render.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ImagePath: "portrait.jpg",
//	    Points:    4000,
//	    Formats:   []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stippler/pkg/cache"
	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
	"github.com/matzehuels/stippler/pkg/partition"
	"github.com/matzehuels/stippler/pkg/relax"
	"github.com/matzehuels/stippler/pkg/render"
	"github.com/matzehuels/stippler/pkg/seed"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultPoints is the number of stipples.
	DefaultPoints = 2000

	// DefaultPasses is the number of relaxation passes. Most images settle
	// well before this; the tail only polishes.
	DefaultPasses = 250

	// DefaultDamping is the per-pass step toward the centroid.
	DefaultDamping = relax.DefaultDamping

	// DefaultPolarity makes dark regions attract points.
	DefaultPolarity = density.PolarityDark

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultSeedStrategy is the default initial distribution.
	DefaultSeedStrategy = string(seed.StrategyUniform)

	// DefaultScale is the output size relative to the source image.
	DefaultScale = render.DefaultScale

	// DefaultPointRadius is the stipple radius in output pixels.
	DefaultPointRadius = render.DefaultPointRadius

	// MaxPasses bounds the pass count accepted from untrusted input.
	MaxPasses = 10000
)

// Format constants for output formats.
const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatJSON  = "json"
	FormatDOT   = "dot"
	FormatGraph = "graph" // Delaunay graph drawn by Graphviz, as SVG
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:   true,
	FormatPNG:   true,
	FormatJSON:  true,
	FormatDOT:   true,
	FormatGraph: true,
}

// FormatExtension returns the file extension for a format.
func FormatExtension(format string) string {
	if format == FormatGraph {
		return ".graph.svg"
	}
	return "." + format
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a stippling run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input: exactly one of Image, ImageData or ImagePath is used, in
	// that order of preference.
	ImagePath string         `json:"image_path,omitempty"`
	ImageData []byte         `json:"-"`
	Image     *density.Image `json:"-"`

	// Relax options
	Points       int     `json:"points,omitempty"`
	Passes       int     `json:"passes,omitempty"`
	Damping      float64 `json:"damping,omitempty"`
	Polarity     string  `json:"polarity,omitempty"`
	Seed         uint64  `json:"seed,omitempty"`
	SeedStrategy string  `json:"seed_strategy,omitempty"`
	RasterWidth  int     `json:"raster_width,omitempty"`
	RasterHeight int     `json:"raster_height,omitempty"`
	Workers      int     `json:"workers,omitempty"`
	MaxVertices  int     `json:"max_vertices,omitempty"`
	Refresh      bool    `json:"refresh,omitempty"`

	// Render options
	Formats      []string `json:"formats,omitempty"`
	ShowCells    bool     `json:"show_cells,omitempty"`
	ShowDelaunay bool     `json:"show_delaunay,omitempty"`
	ShowImage    bool     `json:"show_image,omitempty"`
	PointRadius  float64  `json:"point_radius,omitempty"`
	Scale        float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// RunID names the run in logs and results. Empty generates one.
	RunID string `json:"-"`

	// OnPass is called after every committed pass. It runs on the
	// relaxation goroutine and must return quickly.
	OnPass func(relax.Stats) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and API responses.
	RunID string

	// Extent is the diagram bounding box: the source image in pixels.
	Extent geom.Rect

	// Points is the relaxed point set, indexed by site.
	Points []geom.Point

	// Partition is the Voronoi partition of Points.
	Partition *partition.Partition

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Points     int
	Passes     int
	Last       relax.Stats // statistics of the final pass; zero on a cache hit
	LoadTime   time.Duration
	RelaxTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RelaxHit  bool // Whether the point set came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, json, dot, graph)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePolarity checks that a polarity name is valid.
func ValidatePolarity(p string) error {
	_, err := density.ParsePolarity(p)
	return err
}

// ValidateSeedStrategy checks that a seeding strategy name is valid.
func ValidateSeedStrategy(s string) error {
	_, err := seed.ParseStrategy(s)
	return err
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Image == nil && len(o.ImageData) == 0 {
		if err := errors.ValidateImagePath(o.ImagePath); err != nil {
			return err
		}
	}
	if err := o.ValidateForRelax(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRelaxDefaults sets default values for the relax stage.
func (o *Options) SetRelaxDefaults() {
	if o.Points == 0 {
		o.Points = DefaultPoints
	}
	if o.Passes == 0 {
		o.Passes = DefaultPasses
	}
	if o.Damping == 0 {
		o.Damping = DefaultDamping
	}
	if o.Polarity == "" {
		o.Polarity = DefaultPolarity
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.SeedStrategy == "" {
		o.SeedStrategy = DefaultSeedStrategy
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRelax validates and sets defaults for the relax stage.
func (o *Options) ValidateForRelax() error {
	o.SetRelaxDefaults()
	if err := errors.ValidatePointCount(o.Points); err != nil {
		return err
	}
	if o.Passes < 0 || o.Passes > MaxPasses {
		return errors.New(errors.ErrCodeInvalidInput, "passes must be in [0, %d], got %d", MaxPasses, o.Passes)
	}
	if err := errors.ValidateDamping(o.Damping); err != nil {
		return err
	}
	if err := ValidatePolarity(o.Polarity); err != nil {
		return err
	}
	if err := ValidateSeedStrategy(o.SeedStrategy); err != nil {
		return err
	}
	if err := errors.ValidateRasterSize(o.RasterWidth, o.RasterHeight); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.PointRadius == 0 {
		o.PointRadius = DefaultPointRadius
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 || o.PointRadius < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale and point radius must be positive")
	}
	return ValidateFormats(o.Formats)
}

// polarity returns the parsed polarity. Options must be validated.
func (o *Options) polarity() density.Polarity {
	p, _ := density.ParsePolarity(o.Polarity)
	return p
}

// RelaxKeyOpts returns cache key options for the relax stage. Workers is
// left out: it never changes the result.
func (o *Options) RelaxKeyOpts() cache.RelaxKeyOpts {
	return cache.RelaxKeyOpts{
		Points:       o.Points,
		Passes:       o.Passes,
		Damping:      o.Damping,
		Polarity:     o.Polarity,
		Seed:         o.Seed,
		SeedStrategy: o.SeedStrategy,
		RasterWidth:  o.RasterWidth,
		RasterHeight: o.RasterHeight,
		MaxVertices:  o.MaxVertices,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
// imageHash is only recorded when the image is drawn.
func (o *Options) ArtifactKeyOpts(format, imageHash string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:       format,
		ShowCells:    o.ShowCells,
		ShowDelaunay: o.ShowDelaunay,
		ShowImage:    o.ShowImage,
		PointRadius:  o.PointRadius,
		Scale:        o.Scale,
	}
	if o.ShowImage {
		k.ImageHash = imageHash
	}
	return k
}
