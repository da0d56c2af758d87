package colormap

import (
	"image"

	"github.com/bodgit/wbox/internal/pipeline"
	"github.com/bodgit/wbox/palette"
)

type band struct {
	y0, y1 int
}

func bands(r image.Rectangle, n int) []band {
	h := r.Dy()
	if h <= 0 {
		return nil
	}
	size := (h + n - 1) / n
	out := make([]band, 0, n)
	for y := r.Min.Y; y < r.Max.Y; y += size {
		out = append(out, band{y, min(y+size, r.Max.Y)})
	}
	return out
}

// Rewrite replaces every pixel of m with its resolved color. Pixels whose
// color isn't in mapping are left alone. Rows are split into bands and
// rewritten by up to workers goroutines.
func Rewrite(m *image.NRGBA, mapping Mapping, workers int) error {
	workers = pipeline.Workers(workers)
	b := m.Bounds()

	// Bands are disjoint so no worker touches another's pixels
	return pipeline.Run(bands(b, workers), workers, func(_ int, bd band) error {
		for y := bd.y0; y < bd.y1; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				p := pixel(m, x, y)
				r, ok := mapping[palette.Color{R: p[0], G: p[1], B: p[2]}]
				if !ok {
					continue
				}
				p[0], p[1], p[2], p[3] = r.Color.R, r.Color.G, r.Color.B, 0xff
			}
		}
		return nil
	})
}
