package errors

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxPoints is the largest point count accepted from untrusted input.
const MaxPoints = 200_000

// MaxRasterSide is the largest raster width or height accepted from untrusted input.
const MaxRasterSide = 16384

// imageExtensions lists the file extensions the density decoder understands.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// ValidateDamping checks that a damping factor lies in (0, 1].
// A damping of 1 jumps straight to the centroid; 0 would never move.
func ValidateDamping(d float64) error {
	if math.IsNaN(d) || d <= 0 || d > 1 {
		return New(ErrCodeInvalidInput, "damping must be in (0, 1], got %g", d)
	}
	return nil
}

// ValidatePointCount checks that a requested stipple count is usable.
func ValidatePointCount(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidInput, "point count must be positive, got %d", n)
	}
	if n > MaxPoints {
		return New(ErrCodeInvalidInput, "point count too large (max %d)", MaxPoints)
	}
	return nil
}

// ValidateRasterSize checks a raster size. Zero on both axes means
// "use the image size" and is accepted.
func ValidateRasterSize(w, h int) error {
	if w == 0 && h == 0 {
		return nil
	}
	if w <= 0 || h <= 0 {
		return New(ErrCodeInvalidInput, "raster size must be positive on both axes, got %dx%d", w, h)
	}
	if w > MaxRasterSide || h > MaxRasterSide {
		return New(ErrCodeInvalidInput, "raster size too large (max %d per side)", MaxRasterSide)
	}
	return nil
}

// ValidateImagePath validates an input image path.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Extension must be a supported image format
func ValidateImagePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "image path cannot be empty")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "image path contains invalid characters")
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !imageExtensions[ext] {
		return New(ErrCodeInvalidImage, "unsupported image extension: %q", ext)
	}
	return nil
}
