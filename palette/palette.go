/*
Package palette implements the tile palette used to quantize map images.

A palette file lists one entry per line as an identifier followed by a
single space and a hexadecimal RGB color, for example:

	water #1E90FF
	grass #228B22

Lines that don't match this shape are skipped. The order of entries is
significant; it is used to break ties when two entries are equally close to
a queried color.
*/
package palette

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Color is an 8-bit RGB triple
type Color struct {
	R, G, B uint8
}

// RGB returns the color packed as 0xRRGGBB
func (c Color) RGB() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("#%06X", c.RGB())
}

// FromRGB unpacks a 0xRRGGBB value
func FromRGB(v uint32) Color {
	return Color{uint8(v >> 16 & 0xff), uint8(v >> 8 & 0xff), uint8(v & 0xff)}
}

// Entry is a single palette entry
type Entry struct {
	ID    string
	Color Color
}

func parseHex(s string) (Color, bool) {
	s = strings.TrimLeft(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return FromRGB(uint32(v)), true
}

// Parse reads palette entries from r, skipping malformed lines
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	s := bufio.NewScanner(r)
	for s.Scan() {
		id, hex, ok := strings.Cut(s.Text(), " ")
		if !ok {
			continue
		}
		c, ok := parseHex(hex)
		if !ok {
			continue
		}
		entries = append(entries, Entry{ID: id, Color: c})
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Load reads palette entries from the named file
func Load(file string) ([]Entry, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette file %s: %w", file, err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette file %s: %w", file, err)
	}

	return entries, nil
}

// Write renders entries in the palette file format
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s %s\n", e.ID, e.Color); err != nil {
			return err
		}
	}
	return bw.Flush()
}
