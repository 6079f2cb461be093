package density

import (
	"bufio"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/stippler/pkg/errors"
)

// Decode reads an encoded image (png, jpeg, gif, bmp, tiff, webp) and returns
// its RGB buffer along with the detected format name.
func Decode(r io.Reader) (*Image, string, error) {
	src, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidImage, err, "decode image")
	}
	if src.Bounds().Empty() {
		return nil, "", errors.New(errors.ErrCodeInvalidImage, "image has no pixels")
	}
	return FromImage(src), format, nil
}

// Load decodes the image file at path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := Decode(f)
	return img, err
}

// RGBA returns a copy of the buffer as an *image.RGBA, for renderers that
// draw the density field as a backdrop.
func (m *Image) RGBA() *image.RGBA {
	dst := image.NewRGBA(m.Bounds())
	for i, j := 0, 0; i < len(m.Pix); i, j = i+3, j+4 {
		dst.Pix[j] = m.Pix[i]
		dst.Pix[j+1] = m.Pix[i+1]
		dst.Pix[j+2] = m.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst
}

// Resample scales the image to width×height with Catmull-Rom filtering.
// It returns m itself when the size already matches.
func (m *Image) Resample(width, height int) *Image {
	if width == m.Width && height == m.Height {
		return m
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m.RGBA(), m.Bounds(), draw.Src, nil)
	return FromImage(dst)
}
