package geom

import "github.com/matzehuels/stippler/pkg/errors"

// Remapper is the bidirectional affine mapping between diagram space, bounded
// by [Min, Max], and raster space, spanning [0, Size].
//
// Use [NewRemapper] to build one: it checks the positive-extent precondition
// once so the per-pixel conversions never divide by zero.
type Remapper struct {
	Min, Max Point // diagram extent
	Size     Point // raster extent (width, height)
}

// NewRemapper validates the diagram extent and raster size and returns a
// Remapper. Zero or negative extent on either axis, a non-positive raster
// size, or non-finite values are degenerate-geometry errors.
func NewRemapper(min, max, size Point) (Remapper, error) {
	m := Remapper{Min: min, Max: max, Size: size}
	if !min.IsFinite() || !max.IsFinite() || !size.IsFinite() {
		return Remapper{}, errors.New(errors.ErrCodeDegenerateGeometry, "non-finite extent %v-%v or raster size %v", min, max, size)
	}
	if !(max.X > min.X) || !(max.Y > min.Y) {
		return Remapper{}, errors.New(errors.ErrCodeDegenerateGeometry, "diagram extent %v-%v has no area", min, max)
	}
	if !(size.X > 0) || !(size.Y > 0) {
		return Remapper{}, errors.New(errors.ErrCodeDegenerateGeometry, "raster size %v must be positive", size)
	}
	return m, nil
}

// ToRaster maps a diagram-space point into raster space.
func (m Remapper) ToRaster(p Point) Point {
	return Point{
		X: (p.X - m.Min.X) / (m.Max.X - m.Min.X) * m.Size.X,
		Y: (p.Y - m.Min.Y) / (m.Max.Y - m.Min.Y) * m.Size.Y,
	}
}

// ToDiagram maps a raster-space point back into diagram space. It undoes
// exactly the scaling applied by ToRaster.
func (m Remapper) ToDiagram(p Point) Point {
	return Point{
		X: p.X/m.Size.X*(m.Max.X-m.Min.X) + m.Min.X,
		Y: p.Y/m.Size.Y*(m.Max.Y-m.Min.Y) + m.Min.Y,
	}
}

// RectToRaster maps both corners of a diagram-space rectangle.
func (m Remapper) RectToRaster(r Rect) Rect {
	return Rect{Min: m.ToRaster(r.Min), Max: m.ToRaster(r.Max)}
}

// PolygonToRaster appends the raster-space image of every vertex of poly to
// dst and returns the extended slice. Passing dst[:0] reuses its storage.
func (m Remapper) PolygonToRaster(dst, poly []Point) []Point {
	for _, p := range poly {
		dst = append(dst, m.ToRaster(p))
	}
	return dst
}
