/*
Package rle run-length encodes a quantized image into the tile grid format
read by the map loader.

The grid is stored as two parallel arrays, the tile of each run as a
position in the map's list of tile ids and the length of that run. Rows are
emitted from the bottom edge of the image to the top, each row left to
right, so row 0 of the loader's grid is the bottom of the picture. A run
never continues from one row into the next.
*/
package rle

import (
	"errors"
	"fmt"
	"image"

	"github.com/bodgit/wbox/palette"
)

var (
	// ErrUnresolvedColor means a pixel has a color with no tile id
	ErrUnresolvedColor = errors.New("rle: color has no tile id")

	// ErrCorrupt means the runs don't describe a grid of the stated size
	ErrCorrupt = errors.New("rle: corrupt encoding")
)

// Run is a single run of identical tiles
type Run struct {
	Tile   int
	Amount int
}

// Encoding is the run-length encoded grid
type Encoding struct {
	Width, Height int
	Tiles         []int
	Amounts       []int
}

// Encode walks m from the bottom row to the top, converting each pixel to a
// tile id with inverse and then to its position in ids. Ids seen for the
// first time are appended to ids.
func Encode(m *image.NRGBA, inverse map[palette.Color]string, ids *IDs) (Encoding, error) {
	b := m.Bounds()
	enc := Encoding{
		Width:  b.Dx(),
		Height: b.Dy(),
	}

	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		// Index into enc.Tiles where this row starts
		start := len(enc.Tiles)
		for x := b.Min.X; x < b.Max.X; x++ {
			i := m.PixOffset(x, y)
			c := palette.Color{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2]}

			id, ok := inverse[c]
			if !ok {
				return Encoding{}, fmt.Errorf("%w: pixel (%d, %d) is %s", ErrUnresolvedColor, x, y, c)
			}
			tile := ids.Add(id)

			if n := len(enc.Tiles); n > start && enc.Tiles[n-1] == tile {
				enc.Amounts[n-1]++
				continue
			}
			enc.Tiles = append(enc.Tiles, tile)
			enc.Amounts = append(enc.Amounts, 1)
		}
	}

	return enc, nil
}

// Rows splits the runs back into rows, bottom row first
func (e Encoding) Rows() ([][]Run, error) {
	if len(e.Tiles) != len(e.Amounts) {
		return nil, fmt.Errorf("%w: %d tiles but %d amounts", ErrCorrupt, len(e.Tiles), len(e.Amounts))
	}

	rows := make([][]Run, 0, e.Height)
	var row []Run
	width := 0
	for i, tile := range e.Tiles {
		n := e.Amounts[i]
		if n < 1 {
			return nil, fmt.Errorf("%w: run %d has length %d", ErrCorrupt, i, n)
		}
		width += n
		if width > e.Width {
			return nil, fmt.Errorf("%w: run %d crosses the end of row %d", ErrCorrupt, i, len(rows))
		}
		row = append(row, Run{Tile: tile, Amount: n})
		if width == e.Width {
			rows = append(rows, row)
			row, width = nil, 0
		}
	}

	if width != 0 || len(rows) != e.Height {
		return nil, fmt.Errorf("%w: %d complete rows, want %d", ErrCorrupt, len(rows), e.Height)
	}

	return rows, nil
}

// Expand undoes the run-length encoding, returning one tile per cell in
// encoding order
func (e Encoding) Expand() []int {
	total := 0
	for _, n := range e.Amounts {
		total += n
	}

	cells := make([]int, 0, total)
	for i, tile := range e.Tiles {
		for j := 0; j < e.Amounts[i]; j++ {
			cells = append(cells, tile)
		}
	}

	return cells
}
