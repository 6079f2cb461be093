package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stippler/pkg/config"
	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/pipeline"
	"github.com/matzehuels/stippler/pkg/relax"
)

// relaxFlags holds the relax flags that do not map one-to-one onto
// pipeline.Options fields.
type relaxFlags struct {
	output  string // output file (single format) or base path
	formats string // comma-separated formats
	light   bool   // light pixels attract points
	raster  string // density raster size, "WxH"
	tui     bool   // interactive pass monitor
	noCache bool
}

// relaxCommand creates the relax command, the main entry point: image in,
// stipple drawing out.
func (c *CLI) relaxCommand() *cobra.Command {
	var flags relaxFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "relax [image]",
		Short: "Stipple an image with weighted Lloyd relaxation",
		Long: `Stipple an image with weighted Lloyd relaxation.

Points are seeded over the image, then every pass moves each point a step
toward the weighted centroid of its Voronoi cell. Dark pixels carry the
weight by default; use --light for inverted images.

Relaxed point sets are cached by image content and options, so asking for
another format or overlay only re-renders.`,
		Example: `  stippler relax portrait.jpg
  stippler relax portrait.jpg -n 5000 -p 400 -f svg,png --cells
  stippler relax logo.png --light --seeding rejection -o logo.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := applyRelaxFlags(cmd, &opts, flags, cfg); err != nil {
				return err
			}
			return c.runRelax(cmd.Context(), args[0], opts, flags, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.StringVarP(&flags.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg, png, json, dot, graph (comma-separated)")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&flags.tui, "tui", false, "show an interactive pass monitor")

	// Relax flags
	f.IntVarP(&opts.Points, "points", "n", pipeline.DefaultPoints, "number of points")
	f.IntVarP(&opts.Passes, "passes", "p", pipeline.DefaultPasses, "number of relaxation passes")
	f.Float64Var(&opts.Damping, "damping", pipeline.DefaultDamping, "fraction of the way to the centroid per pass, in (0, 1]")
	f.BoolVar(&flags.light, "light", false, "light pixels attract points instead of dark ones")
	f.Uint64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "random seed")
	f.StringVar(&opts.SeedStrategy, "seeding", pipeline.DefaultSeedStrategy, "initial distribution: uniform, rejection, poisson")
	f.StringVar(&flags.raster, "raster", "", "density raster size WxH (default: image size)")
	f.IntVar(&opts.Workers, "workers", 0, "goroutines per pass (default: GOMAXPROCS)")
	f.IntVar(&opts.MaxVertices, "max-vertices", 0, "largest accepted cell boundary (default 100)")
	f.BoolVar(&opts.Refresh, "refresh", false, "ignore a cached point set and relax again")

	// Render flags
	f.BoolVar(&opts.ShowCells, "cells", false, "draw Voronoi cell edges")
	f.BoolVar(&opts.ShowDelaunay, "delaunay", false, "draw Delaunay edges")
	f.BoolVar(&opts.ShowImage, "image", false, "draw the source image underneath")
	f.Float64Var(&opts.PointRadius, "radius", pipeline.DefaultPointRadius, "point radius in output pixels")
	f.Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "output size relative to the image")

	return cmd
}

// applyRelaxFlags folds the composite flags and the config file into opts.
// Flags set on the command line win over the file.
func applyRelaxFlags(cmd *cobra.Command, opts *pipeline.Options, flags relaxFlags, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	opts.Formats = pipeline.ParseFormats(flags.formats)
	if changed("light") {
		opts.Polarity = density.PolarityDark
		if flags.light {
			opts.Polarity = density.PolarityLight
		}
	}
	if flags.raster != "" {
		w, h, err := config.ParseRaster(flags.raster)
		if err != nil {
			return err
		}
		opts.RasterWidth, opts.RasterHeight = w, h
	}

	cfg.Apply(opts, changed)
	return pipeline.ValidateFormats(opts.Formats)
}

// runRelax executes the pipeline and writes every artifact.
func (c *CLI) runRelax(ctx context.Context, input string, opts pipeline.Options, flags relaxFlags, cfg *config.Config) error {
	opts.ImagePath = input
	opts.Logger = c.Logger

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var result *pipeline.Result
	if flags.tui {
		result, err = relaxWithMonitor(ctx, runner, opts)
	} else {
		result, err = relaxWithSpinner(ctx, runner, opts)
	}
	if err != nil {
		return err
	}

	printSuccess("Stippled %s", StyleHighlight.Render(input))
	printStats(result.Stats.Points, result.Stats.Passes, result.CacheInfo.RelaxHit)
	printTimings(result.Stats)
	if dropped := result.Partition.Dropped(); len(dropped) > 0 {
		printWarning("%d points share a site with another point and have no cell", len(dropped))
	}
	if err := writeArtifacts(result.Artifacts, opts.Formats, flags.output, input); err != nil {
		return err
	}
	if slices.Contains(opts.Formats, pipeline.FormatJSON) {
		printNewline()
		printNextStep("Re-render", fmt.Sprintf("%s render %s -f png --cells", appName, outputPaths(flags.output, input, opts.Formats)[pipeline.FormatJSON]))
	}
	return nil
}

// relaxWithSpinner runs the pipeline behind a spinner that counts passes.
func relaxWithSpinner(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Relaxing %d points...", opts.Points))
	opts.OnPass = func(s relax.Stats) {
		spinner.SetMessage(fmt.Sprintf("Relaxing %d points: pass %d/%d", opts.Points, s.Pass, opts.Passes))
	}
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Stippling failed")
		return nil, err
	}
	spinner.Stop()
	return result, nil
}

// =============================================================================
// Output
// =============================================================================

// outputPaths maps each format to its file. With no output, files go next to
// the input as NAME.stipple.EXT so the input image is never overwritten. A
// single format written to an explicit path uses that path as given.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + pipeline.FormatExtension(f)
	}
	return paths
}

// stippleSuffix marks derived files next to the input.
const stippleSuffix = ".stipple"

// extOrder lists formats longest extension first so ".graph.svg" is
// stripped before ".svg".
var extOrder = []string{pipeline.FormatGraph, pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatJSON, pipeline.FormatDOT}

// basePath derives the base output path from the output and input paths.
// Known format extensions are stripped from output.
func basePath(output, input string) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		if !strings.HasSuffix(base, stippleSuffix) {
			base += stippleSuffix
		}
		return base
	}
	for _, f := range extOrder {
		if ext := pipeline.FormatExtension(f); strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// writeArtifacts writes each artifact to its output path in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, input string) error {
	paths := outputPaths(output, input, formats)
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		if err := os.WriteFile(paths[f], data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f, err)
		}
		printFile(paths[f])
	}
	return nil
}
