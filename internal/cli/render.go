package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/partition"
	"github.com/matzehuels/stippler/pkg/pipeline"
	"github.com/matzehuels/stippler/pkg/render/sink"
)

// renderFlags holds the render command flags not carried by pipeline.Options.
type renderFlags struct {
	output  string
	formats string
	image   string // source image drawn underneath
	noCache bool
}

// renderCommand creates the render command, which redraws a point set
// written by relax -f json without relaxing again.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [points.json]",
		Short: "Render a saved point set",
		Long: `Render a saved point set.

The render command takes a point set written by 'relax -f json' and draws
it again, for example with cell or Delaunay overlays or in another format.
The Voronoi partition is rebuilt from the points; nothing is relaxed.`,
		Example: `  stippler render portrait.stipple.json -f png --cells
  stippler render portrait.stipple.json --image portrait.jpg --delaunay`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.Formats = pipeline.ParseFormats(flags.formats)
			cfg.Apply(&opts, cmd.Flags().Changed)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), cfg, flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()
			return c.runRender(cmd.Context(), runner, args[0], opts, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.StringVarP(&flags.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg, png, json, dot, graph (comma-separated)")
	f.StringVar(&flags.image, "image", "", "draw this image underneath the points")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&opts.ShowCells, "cells", false, "draw Voronoi cell edges")
	f.BoolVar(&opts.ShowDelaunay, "delaunay", false, "draw Delaunay edges")
	f.Float64Var(&opts.PointRadius, "radius", pipeline.DefaultPointRadius, "point radius in output pixels")
	f.Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "output size relative to the image")

	return cmd
}

// runRender loads the point set, rebuilds its partition and renders it.
func (c *CLI) runRender(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options, flags renderFlags) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	ps, err := sink.ReadJSON(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("load points %s: %w", input, err)
	}
	logger.Debug("loaded point set", "points", len(ps.Points), "passes", ps.Passes)

	var img *density.Image
	opts.ShowImage = flags.image != ""
	if opts.ShowImage {
		if img, err = density.Load(flags.image); err != nil {
			return err
		}
	}

	part, err := partition.NewFortune(ps.Extent).Generate(ps.Points)
	if err != nil {
		return fmt.Errorf("partition: %w", err)
	}

	opts.Passes = ps.Passes
	opts.Seed = ps.Seed
	opts.Polarity = ps.Polarity
	opts.Logger = logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d points...", len(ps.Points)))
	spinner.Start()
	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, ps, part, img, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d points", len(ps.Points)))

	printSuccess("Rendered %s", StyleHighlight.Render(input))
	printStats(len(ps.Points), ps.Passes, cacheHit)
	return writeArtifacts(artifacts, opts.Formats, flags.output, input)
}
