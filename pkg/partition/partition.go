// Package partition builds the Voronoi partition the relaxation driver
// consumes: one closed boundary per site, indexed like the input points.
//
// The partition is produced from scratch on every pass; nothing here keeps
// state between calls. [Fortune] wraps github.com/pzsz/voronoi, a port of
// Fortune's sweep line algorithm, and clips every cell to a fixed extent.
package partition

import (
	"math"

	"github.com/pzsz/voronoi"

	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
)

// Partition is a Voronoi diagram of a point set clipped to Extent.
type Partition struct {
	// Cells[i] is the boundary of input point i in diagram space. It is nil
	// when the generator dropped the site, which happens for duplicate
	// coordinates.
	Cells [][]geom.Point

	// Extent is the diagram bounding box the cells were clipped to.
	Extent geom.Rect

	// Edges are the diagram's edges, including the closing segments along
	// the extent.
	Edges []Edge

	// Neighbors lists each Delaunay pair (i < j) once: sites whose cells
	// share an edge.
	Neighbors [][2]int
}

// Edge is one segment of the diagram. Left and Right are the input indices
// of the cells on either side; Right is -1 for segments on the extent.
type Edge struct {
	A, B        geom.Point
	Left, Right int
}

// Generator builds a partition from a point set.
type Generator interface {
	Generate(points []geom.Point) (*Partition, error)
}

// Dropped returns the indices of sites that received no cell.
func (p *Partition) Dropped() []int {
	var out []int
	for i, c := range p.Cells {
		if c == nil {
			out = append(out, i)
		}
	}
	return out
}

// Fortune is the Generator backed by github.com/pzsz/voronoi.
type Fortune struct {
	Extent geom.Rect
}

// NewFortune returns a Fortune generator clipping to extent.
func NewFortune(extent geom.Rect) *Fortune {
	return &Fortune{Extent: extent}
}

// Generate computes the clipped diagram of points. Points outside the
// extent are clamped onto it first. Cells are mapped back to input indices
// by site coordinate; when several inputs share a coordinate only the first
// gets the cell.
func (f *Fortune) Generate(points []geom.Point) (*Partition, error) {
	if len(points) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no points to partition")
	}
	ext := f.Extent
	if ext.Empty() || !ext.Min.IsFinite() || !ext.Max.IsFinite() {
		return nil, errors.New(errors.ErrCodeDegenerateGeometry, "partition extent %v has no area", ext)
	}

	sites := make([]voronoi.Vertex, len(points))
	index := make(map[voronoi.Vertex]int, len(points))
	for i, p := range points {
		if !p.IsFinite() {
			return nil, errors.New(errors.ErrCodeDegenerateGeometry, "site %d is not finite: %v", i, p)
		}
		p = ext.Clamp(p)
		v := voronoi.Vertex{X: p.X, Y: p.Y}
		sites[i] = v
		if _, dup := index[v]; !dup {
			index[v] = i
		}
	}

	bbox := voronoi.NewBBox(ext.Min.X, ext.Max.X, ext.Min.Y, ext.Max.Y)
	diagram := voronoi.ComputeDiagram(sites, bbox, true)

	part := &Partition{
		Cells:  make([][]geom.Point, len(points)),
		Extent: ext,
	}
	cellIndex := make(map[*voronoi.Cell]int, len(diagram.Cells))
	for _, cell := range diagram.Cells {
		i, ok := index[cell.Site]
		if !ok || len(cell.Halfedges) == 0 {
			continue
		}
		cellIndex[cell] = i
		poly := make([]geom.Point, 0, len(cell.Halfedges))
		for _, he := range cell.Halfedges {
			v := he.GetStartpoint()
			poly = append(poly, geom.Pt(v.X, v.Y))
		}
		part.Cells[i] = poly
	}

	seen := make(map[[2]int]bool)
	for _, e := range diagram.Edges {
		if !finite(e.Va.Vertex) || !finite(e.Vb.Vertex) {
			continue
		}
		left, right := lookup(cellIndex, e.LeftCell), lookup(cellIndex, e.RightCell)
		part.Edges = append(part.Edges, Edge{
			A:     geom.Pt(e.Va.X, e.Va.Y),
			B:     geom.Pt(e.Vb.X, e.Vb.Y),
			Left:  left,
			Right: right,
		})
		if left < 0 || right < 0 || left == right {
			continue
		}
		pair := [2]int{min(left, right), max(left, right)}
		if !seen[pair] {
			seen[pair] = true
			part.Neighbors = append(part.Neighbors, pair)
		}
	}
	return part, nil
}

func lookup(m map[*voronoi.Cell]int, c *voronoi.Cell) int {
	if c == nil {
		return -1
	}
	if i, ok := m[c]; ok {
		return i
	}
	return -1
}

func finite(v voronoi.Vertex) bool {
	return !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsNaN(v.X) && !math.IsNaN(v.Y)
}
