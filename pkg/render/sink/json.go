package sink

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/geom"
)

// PointSet is a relaxed point set with the context needed to re-render it.
type PointSet struct {
	// Extent is the diagram bounding box the points were relaxed in.
	Extent geom.Rect

	// Points in diagram space, indexed by site.
	Points []geom.Point

	// Passes, Seed and Polarity record how the set was produced. They are
	// informational and may be zero.
	Passes   int
	Seed     uint64
	Polarity string
}

type jsonOutput struct {
	Extent   jsonExtent   `json:"extent"`
	Passes   int          `json:"passes,omitempty"`
	Seed     uint64       `json:"seed,omitempty"`
	Polarity string       `json:"polarity,omitempty"`
	Count    int          `json:"count"`
	Points   [][2]float64 `json:"points"`
}

type jsonExtent struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// RenderJSON exports a point set as pretty-printed JSON. The document
// round-trips through [ReadJSON].
func RenderJSON(ps PointSet) ([]byte, error) {
	out := jsonOutput{
		Extent: jsonExtent{
			MinX: ps.Extent.Min.X, MinY: ps.Extent.Min.Y,
			MaxX: ps.Extent.Max.X, MaxY: ps.Extent.Max.Y,
		},
		Passes:   ps.Passes,
		Seed:     ps.Seed,
		Polarity: ps.Polarity,
		Count:    len(ps.Points),
		Points:   make([][2]float64, len(ps.Points)),
	}
	for i, p := range ps.Points {
		out.Points[i] = [2]float64{p.X, p.Y}
	}
	return json.MarshalIndent(out, "", "  ")
}

// ReadJSON parses a document written by [RenderJSON].
func ReadJSON(r io.Reader) (PointSet, error) {
	var in jsonOutput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return PointSet{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode point set")
	}
	if in.Count != len(in.Points) {
		return PointSet{}, errors.New(errors.ErrCodeIndexMismatch,
			"point set declares %d points but holds %d", in.Count, len(in.Points))
	}
	ps := PointSet{
		Extent:   geom.R(in.Extent.MinX, in.Extent.MinY, in.Extent.MaxX, in.Extent.MaxY),
		Passes:   in.Passes,
		Seed:     in.Seed,
		Polarity: in.Polarity,
		Points:   make([]geom.Point, len(in.Points)),
	}
	if ps.Extent.Empty() {
		return PointSet{}, errors.New(errors.ErrCodeDegenerateGeometry, "point set extent %v has no area", ps.Extent)
	}
	for i, p := range in.Points {
		ps.Points[i] = geom.Pt(p[0], p[1])
	}
	return ps, nil
}
