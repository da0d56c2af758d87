package document

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrFreezeMapSize is returned when a freeze map doesn't match the map image
var ErrFreezeMapSize = errors.New("document: freeze map size mismatch")

// FrozenTiles returns the linear index, counting left to right and top to
// bottom from 0, of every pure white pixel in m. Indices are relative to m's
// own dimensions.
func FrozenTiles(m image.Image) []int {
	b := m.Bounds()
	frozen := []int{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			if c.R == 0xff && c.G == 0xff && c.B == 0xff {
				frozen = append(frozen, (y-b.Min.Y)*b.Dx()+(x-b.Min.X))
			}
		}
	}
	return frozen
}

// CheckFreezeMap fails if the freeze map and the map image differ in size
func CheckFreezeMap(freeze, primary image.Rectangle) error {
	if freeze.Dx() != primary.Dx() || freeze.Dy() != primary.Dy() {
		return fmt.Errorf("%w: %dx%d, map is %dx%d", ErrFreezeMapSize, freeze.Dx(), freeze.Dy(), primary.Dx(), primary.Dy())
	}
	return nil
}

// SetFrozenTiles stores the frozen tile indices
func (d *Document) SetFrozenTiles(indices []int) {
	d.fields[FieldFrozenTiles] = append([]int{}, indices...)
}
