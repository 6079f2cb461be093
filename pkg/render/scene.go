package render

import (
	"image/color"

	"github.com/matzehuels/stippler/pkg/density"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
	"github.com/matzehuels/stippler/pkg/partition"
)

// DefaultPointRadius is the stipple dot radius in output units.
const DefaultPointRadius = 2.0

// DefaultScale is the output size relative to the diagram extent.
const DefaultScale = 2.0

// Palette holds the colours of each layer.
type Palette struct {
	Background color.RGBA
	Cell       color.RGBA
	Delaunay   color.RGBA
	Point      color.RGBA
}

// DefaultPalette draws pink dots with white cell edges and blue Delaunay
// edges on an off-white background.
var DefaultPalette = Palette{
	Background: color.RGBA{245, 245, 245, 255},
	Cell:       color.RGBA{255, 255, 255, 255},
	Delaunay:   color.RGBA{0, 121, 241, 255},
	Point:      color.RGBA{255, 109, 194, 255},
}

// Segment is a line segment in output space.
type Segment struct {
	A, B geom.Point
}

// Scene is a point set and its overlays in output space, ready for a sink.
type Scene struct {
	Width, Height float64

	// Points are the stipple dots, indexed like the input points.
	Points []geom.Point

	// Neighbors are Delaunay pairs of point indices.
	Neighbors [][2]int

	// Cells and Delaunay are the overlay segments. Empty unless requested.
	Cells    []Segment
	Delaunay []Segment

	// Image, when set, is stretched over the whole scene as a backdrop.
	Image *density.Image

	PointRadius float64
	Palette     Palette
}

// SceneOptions selects what NewScene includes.
type SceneOptions struct {
	// Extent is the diagram bounding box. Zero uses the partition's extent.
	Extent geom.Rect

	// Scale multiplies the extent to get the output size. Zero selects
	// DefaultScale.
	Scale float64

	// PointRadius is the dot radius in output units. Zero selects
	// DefaultPointRadius.
	PointRadius float64

	ShowCells    bool
	ShowDelaunay bool

	// Image is drawn as a backdrop when non-nil.
	Image *density.Image

	// Palette overrides DefaultPalette when non-zero.
	Palette *Palette
}

// NewScene maps points and the partition overlays into output space.
// part may be nil when neither overlay is requested and opts.Extent is set.
func NewScene(points []geom.Point, part *partition.Partition, opts SceneOptions) (*Scene, error) {
	extent := opts.Extent
	if extent.Empty() && part != nil {
		extent = part.Extent
	}
	if extent.Empty() {
		return nil, errors.New(errors.ErrCodeDegenerateGeometry, "scene extent %v has no area", extent)
	}
	if part == nil && (opts.ShowCells || opts.ShowDelaunay) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cell and Delaunay overlays need a partition")
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	size := geom.Pt(extent.Width()*scale, extent.Height()*scale)
	m, err := geom.NewRemapper(extent.Min, extent.Max, size)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		Width:       size.X,
		Height:      size.Y,
		Points:      m.PolygonToRaster(make([]geom.Point, 0, len(points)), points),
		Image:       opts.Image,
		PointRadius: opts.PointRadius,
		Palette:     DefaultPalette,
	}
	if s.PointRadius <= 0 {
		s.PointRadius = DefaultPointRadius
	}
	if opts.Palette != nil {
		s.Palette = *opts.Palette
	}
	if part == nil {
		return s, nil
	}

	s.Neighbors = part.Neighbors
	if opts.ShowCells {
		s.Cells = make([]Segment, 0, len(part.Edges))
		for _, e := range part.Edges {
			s.Cells = append(s.Cells, Segment{A: m.ToRaster(e.A), B: m.ToRaster(e.B)})
		}
	}
	if opts.ShowDelaunay {
		s.Delaunay = make([]Segment, 0, len(part.Neighbors))
		for _, nb := range part.Neighbors {
			if nb[0] >= len(s.Points) || nb[1] >= len(s.Points) {
				return nil, errors.New(errors.ErrCodeIndexMismatch,
					"Delaunay pair %v refers past %d points", nb, len(s.Points))
			}
			s.Delaunay = append(s.Delaunay, Segment{A: s.Points[nb[0]], B: s.Points[nb[1]]})
		}
	}
	return s, nil
}
