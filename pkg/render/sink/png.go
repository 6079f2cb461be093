package sink

import (
	"bytes"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/render"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale     float64
	lineWidth float64
}

// WithPNGScale multiplies the scene size in pixels (default 1).
func WithPNGScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// WithLineWidth sets the overlay stroke width in scene units (default 1).
func WithLineWidth(w float64) PNGOption {
	return func(r *pngRenderer) { r.lineWidth = w }
}

// maxPNGSide bounds the output so a bad scale cannot allocate gigabytes.
const maxPNGSide = 16384

// RenderPNG rasterizes the scene with gg.
func RenderPNG(s *render.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1, lineWidth: 1}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %g", r.scale)
	}
	w := int(math.Ceil(s.Width * r.scale))
	h := int(math.Ceil(s.Height * r.scale))
	if w < 1 || h < 1 || w > maxPNGSide || h > maxPNGSide {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png size %dx%d out of range (max %d per side)", w, h, maxPNGSide)
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(s.Palette.Background)
	dc.Clear()
	dc.Scale(r.scale, r.scale)

	if s.Image != nil {
		dc.Push()
		dc.Scale(s.Width/float64(s.Image.Width), s.Height/float64(s.Image.Height))
		dc.DrawImage(s.Image.RGBA(), 0, 0)
		dc.Pop()
	}

	dc.SetLineWidth(r.lineWidth)
	for _, layer := range []struct {
		segs []render.Segment
		c    color.RGBA
	}{
		{s.Cells, s.Palette.Cell},
		{s.Delaunay, s.Palette.Delaunay},
	} {
		if len(layer.segs) == 0 {
			continue
		}
		for _, sg := range layer.segs {
			dc.DrawLine(sg.A.X, sg.A.Y, sg.B.X, sg.B.Y)
		}
		dc.SetColor(layer.c)
		dc.Stroke()
	}

	dc.SetColor(s.Palette.Point)
	for _, p := range s.Points {
		dc.DrawCircle(p.X, p.Y, s.PointRadius)
	}
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}
