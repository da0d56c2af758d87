package wbox

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/wbox/document"
	"golang.org/x/image/draw"

	// Formats accepted for map and freeze map images
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// Map images are sized in whole tiles of this many pixels
	tileSize = document.TileSize
	minTiles = 2
)

// DecodeImage reads any registered image format from the named file and
// returns it as opaque 8-bit RGB
func DecodeImage(file string) (*image.NRGBA, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return toRGB(m), nil
}

// toRGB copies m into a zero-origin NRGBA buffer and drops alpha
func toRGB(m image.Image) *image.NRGBA {
	b := m.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), m, b.Min, draw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func roundUp(n int) int {
	return max((n+tileSize-1)/tileSize, minTiles) * tileSize
}

// NormalizedSize returns the dimensions an image of size r is scaled to: each
// axis rounded up to a multiple of 64 and no smaller than 128
func NormalizedSize(r image.Rectangle) image.Point {
	return image.Pt(roundUp(r.Dx()), roundUp(r.Dy()))
}

// Normalize scales m to its normalized size using nearest neighbour
// sampling. If m is already the right size it is returned as is.
func Normalize(m *image.NRGBA) *image.NRGBA {
	size := NormalizedSize(m.Bounds())
	if m.Bounds() == (image.Rectangle{Max: size}) {
		return m
	}

	dst := image.NewNRGBA(image.Rectangle{Max: size})
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m, m.Bounds(), draw.Src, nil)
	return dst
}

// WritePreview saves m as a JPEG or PNG, chosen by the file extension
func WritePreview(file string, m image.Image) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, file, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: %s: %w", ErrWriteFailed, file, cerr)
		}
	}()

	switch strings.ToLower(filepath.Ext(file)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, m, &jpeg.Options{Quality: jpeg.DefaultQuality})
	default:
		err = png.Encode(f, m)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, file, err)
	}

	return nil
}
