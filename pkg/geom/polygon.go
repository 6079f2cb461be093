package geom

// Contains reports whether p lies inside the simple polygon poly using the
// crossing-number (even-odd) rule. Edges wrap from the last vertex to the
// first. Polygons with fewer than three vertices contain nothing.
//
// Collinear or repeated vertices are tolerated: a horizontal edge never
// straddles p.Y, so the intersection never divides by zero.
func Contains(poly []Point, p Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
