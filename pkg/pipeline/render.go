package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/geom"
	"github.com/matzehuels/stippler/pkg/partition"
	"github.com/matzehuels/stippler/pkg/render"
	"github.com/matzehuels/stippler/pkg/render/nodelink"
	"github.com/matzehuels/stippler/pkg/render/sink"
)

// PointSet packages a relaxed point set for the JSON sink.
func PointSet(extent geom.Rect, points []geom.Point, opts Options) sink.PointSet {
	return sink.PointSet{
		Extent:   extent,
		Points:   points,
		Passes:   opts.Passes,
		Seed:     opts.Seed,
		Polarity: opts.Polarity,
	}
}

// Render generates output artifacts in the requested formats. img is only
// drawn when opts.ShowImage is set and may be nil otherwise.
func Render(ctx context.Context, ps sink.PointSet, part *partition.Partition, img *density.Image, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	sceneOpts := render.SceneOptions{
		Extent:       ps.Extent,
		Scale:        opts.Scale,
		PointRadius:  opts.PointRadius,
		ShowCells:    opts.ShowCells,
		ShowDelaunay: opts.ShowDelaunay,
	}
	if opts.ShowImage {
		sceneOpts.Image = img
	}
	scene, err := render.NewScene(ps.Points, part, sceneOpts)
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(scene)
		case FormatPNG:
			data, err = sink.RenderPNG(scene)
		case FormatJSON:
			data, err = sink.RenderJSON(ps)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(scene, nodelink.Options{}))
		case FormatGraph:
			data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(scene, nodelink.Options{}))
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
