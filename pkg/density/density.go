// Package density holds the immutable brightness field that drives relaxation.
//
// An [Image] is a row-major buffer of RGB triples with no notion of source
// file format. A [Polarity] turns the averaged brightness of a pixel into the
// mass it contributes to a cell's weighted centroid: with [Dark] the darker
// pixels attract points, with [Light] the brighter ones do.
//
// # Usage
//
//	img, err := density.Load("fisk.jpg")
//	if err != nil {
//	    return err
//	}
//	w := density.Dark.Weight(img.Brightness(10, 20))
package density

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"
	"strings"

	"github.com/matzehuels/stippler/pkg/errors"
)

// Image is an immutable RGB brightness buffer, three bytes per pixel,
// indexed row-major. Nothing in the relaxation core writes to it.
type Image struct {
	Width, Height int
	Pix           []uint8
}

// New wraps an existing RGB buffer. The buffer must hold exactly
// width*height*3 bytes.
func New(width, height int, pix []uint8) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "image size %dx%d must be positive", width, height)
	}
	if len(pix) != width*height*3 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "pixel buffer has %d bytes, want %d", len(pix), width*height*3)
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// Uniform returns an image of the given size where every pixel has value v
// on all three channels.
func Uniform(width, height int, v uint8) *Image {
	pix := make([]uint8, width*height*3)
	for i := range pix {
		pix[i] = v
	}
	return &Image{Width: width, Height: height, Pix: pix}
}

// FromImage flattens any decoded image into an RGB buffer. Alpha is dropped
// after premultiplication, so transparent regions read as black.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	img := &Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([]uint8, b.Dx()*b.Dy()*3),
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			img.Pix[i] = uint8(r >> 8)
			img.Pix[i+1] = uint8(g >> 8)
			img.Pix[i+2] = uint8(bl >> 8)
			i += 3
		}
	}
	return img
}

// Bounds returns the pixel rectangle of the image.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// RGB returns the three channels of pixel (x, y). The caller must have
// clipped (x, y) to Bounds.
func (m *Image) RGB(x, y int) (r, g, b uint8) {
	i := (y*m.Width + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Brightness returns the average of the three channels of pixel (x, y),
// in [0, 255].
func (m *Image) Brightness(x, y int) float64 {
	r, g, b := m.RGB(x, y)
	return (float64(r) + float64(g) + float64(b)) / 3
}

// Hash returns a content hash of the image, used in cache keys.
func (m *Image) Hash() string {
	h := sha256.New()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(m.Width))
	binary.LittleEndian.PutUint64(dims[8:], uint64(m.Height))
	h.Write(dims[:])
	h.Write(m.Pix)
	return hex.EncodeToString(h.Sum(nil))
}

// Polarity selects which end of the brightness range carries mass.
type Polarity int

const (
	// Dark gives weight 1 - avg/255: dark regions attract points.
	Dark Polarity = iota
	// Light gives weight avg/255: bright regions attract points.
	Light
)

// Polarity names as accepted by ParsePolarity.
const (
	PolarityDark  = "dark"
	PolarityLight = "light"
)

// ParsePolarity parses "dark" or "light" (case-insensitive). The empty
// string selects Dark.
func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToLower(s) {
	case "", PolarityDark:
		return Dark, nil
	case PolarityLight:
		return Light, nil
	}
	return Dark, errors.New(errors.ErrCodeInvalidPolarity, "invalid polarity: %q (must be one of: dark, light)", s)
}

// Weight maps an averaged brightness in [0, 255] to a pixel mass in [0, 1].
func (p Polarity) Weight(avg float64) float64 {
	if p == Light {
		return avg / 255
	}
	return 1 - avg/255
}

func (p Polarity) String() string {
	if p == Light {
		return PolarityLight
	}
	return PolarityDark
}
