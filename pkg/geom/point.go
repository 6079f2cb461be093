package geom

import (
	"fmt"
	"image"
	"math"

	"github.com/matzehuels/stippler/pkg/errors"
)

// Point is a pair of real-valued coordinates in either diagram or raster space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul returns p scaled by k.
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Lerp returns the point at fraction f along the segment from p to q.
// f=0 yields p, f=1 yields q.
func (p Point) Lerp(q Point, f float64) Point {
	return Point{
		X: p.X*(1-f) + q.X*f,
		Y: p.Y*(1-f) + q.Y*f,
	}
}

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Rect is an axis-aligned rectangle given by its min and max corners.
// It carries no space tag; callers track which space it was computed in.
type Rect struct {
	Min, Max Point
}

// R is shorthand for Rect{Pt(x0, y0), Pt(x1, y1)}.
func R(x0, y0, x1, y1 float64) Rect { return Rect{Point{x0, y0}, Point{x1, y1}} }

// Width returns Max.X - Min.X.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns Max.Y - Min.Y.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether r has no positive area.
func (r Rect) Empty() bool { return !(r.Width() > 0) || !(r.Height() > 0) }

// Clamp returns p moved to the nearest point inside r.
func (r Rect) Clamp(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, r.Min.X), r.Max.X),
		Y: math.Min(math.Max(p.Y, r.Min.Y), r.Max.Y),
	}
}

// ContainsPoint reports whether p lies in the closed rectangle.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Pixels converts a raster-space rectangle into the integer pixel window that
// can hold contained pixel centres, clipped to [0,w)×[0,h). The window is
// rounded outward so no pixel inside the polygon is skipped; the containment
// test rejects the extra border pixels.
func (r Rect) Pixels(w, h int) image.Rectangle {
	win := image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X))+1, int(math.Ceil(r.Max.Y))+1,
	)
	return win.Intersect(image.Rect(0, 0, w, h))
}

func (r Rect) String() string { return fmt.Sprintf("[%v-%v]", r.Min, r.Max) }

// Bounds returns the axis-aligned bounds of poly in the space its vertices are
// expressed in. An empty vertex list is a degenerate-geometry error: the
// partition generator must never emit a cell without vertices.
func Bounds(poly []Point) (Rect, error) {
	if len(poly) == 0 {
		return Rect{}, errors.New(errors.ErrCodeDegenerateGeometry, "cell boundary has no vertices")
	}
	r := Rect{Min: poly[0], Max: poly[0]}
	for _, p := range poly[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r, nil
}
