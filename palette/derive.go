package palette

import (
	"image"
	"image/color"
	"strconv"

	"github.com/ericpauley/go-quantize/quantize"
)

// Derive proposes a palette of at most n colors for m using median cut.
// Entries are numbered from 1 in the order the quantizer returns them,
// with duplicate colors dropped.
func Derive(m image.Image, n int) []Entry {
	if n <= 0 {
		return nil
	}

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, n), m)

	seen := make(map[Color]struct{}, len(p))
	entries := make([]Entry, 0, len(p))
	for _, c := range p {
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		rgb := Color{nc.R, nc.G, nc.B}
		if _, ok := seen[rgb]; ok {
			continue
		}
		seen[rgb] = struct{}{}
		entries = append(entries, Entry{ID: strconv.Itoa(len(entries) + 1), Color: rgb})
	}

	return entries
}
