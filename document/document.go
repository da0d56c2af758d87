/*
Package document edits the JSON map data document that the encoded tile grid
is merged into.

Only the fields written by a conversion are interpreted; every other field is
carried through untouched, including the exact representation of numbers.
*/
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bodgit/wbox/rle"
)

// Field names used by the map loader
const (
	FieldTileMap     = "tileMap"
	FieldTileArray   = "tileArray"
	FieldTileAmounts = "tileAmounts"
	FieldWidth       = "width"
	FieldHeight      = "height"
	FieldWorldLaws   = "worldLaws"
	FieldList        = "list"
	FieldFrozenTiles = "frozen_tiles"
)

// TileSize is the number of pixels per axis in one unit of width or height
const TileSize = 64

var (
	// ErrNotObject is returned when the document root isn't a JSON object
	ErrNotObject = errors.New("document: not a JSON object")

	// ErrNoTileMap is returned when the document has no tileMap array
	ErrNoTileMap = errors.New("document: tileMap array not found")
)

// Document is a map data document
type Document struct {
	fields map[string]interface{}
}

// New returns an empty document
func New() *Document {
	return &Document{
		fields: make(map[string]interface{}),
	}
}

// Decode reads a document from r
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}

	fields, ok := v.(map[string]interface{})
	if !ok {
		return nil, ErrNotObject
	}

	return &Document{fields: fields}, nil
}

// Load reads a document from the named file
func Load(file string) (*Document, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read map data file %s: %w", file, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return doc, nil
}

// Get returns the raw value of a field
func (d *Document) Get(key string) (interface{}, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Set replaces the raw value of a field
func (d *Document) Set(key string, value interface{}) {
	d.fields[key] = value
}

// MarshalJSON renders the document with two space indentation and keys in
// sorted order
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(d.fields, "", "  ")
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Document) UnmarshalJSON(b []byte) error {
	doc, err := Decode(bytes.NewReader(b))
	if err != nil {
		return err
	}
	d.fields = doc.fields
	return nil
}

// TileMap returns the ids in the tileMap array. Entries that aren't strings
// are returned as "" so positions are kept. The boolean is false when the
// document has no tileMap array.
func (d *Document) TileMap() ([]string, bool) {
	list, ok := d.fields[FieldTileMap].([]interface{})
	if !ok {
		return nil, false
	}

	ids := make([]string, len(list))
	for i, v := range list {
		if s, ok := v.(string); ok {
			ids[i] = s
		}
	}

	return ids, true
}

// AppendTileMap appends each id not already in the tileMap array. If there
// is no tileMap array the document is left as it is and ErrNoTileMap is
// returned.
func (d *Document) AppendTileMap(ids []string) error {
	list, ok := d.fields[FieldTileMap].([]interface{})
	if !ok {
		return ErrNoTileMap
	}

	seen := make(map[string]struct{}, len(list)+len(ids))
	for _, v := range list {
		if s, ok := v.(string); ok {
			seen[s] = struct{}{}
		}
	}

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		list = append(list, id)
	}
	d.fields[FieldTileMap] = list

	return nil
}

// SetGrid stores the encoded grid and its dimensions, given in pixels
func (d *Document) SetGrid(enc rle.Encoding, width, height int) {
	d.fields[FieldTileArray] = append([]int{}, enc.Tiles...)
	d.fields[FieldTileAmounts] = append([]int{}, enc.Amounts...)
	d.fields[FieldWidth] = width / TileSize
	d.fields[FieldHeight] = height / TileSize
}

// Grid reads the encoded grid back from the document
func (d *Document) Grid() (rle.Encoding, error) {
	var enc rle.Encoding

	for _, f := range []struct {
		key string
		dst *int
	}{
		{FieldWidth, &enc.Width},
		{FieldHeight, &enc.Height},
	} {
		n, err := toInt(d.fields[f.key])
		if err != nil {
			return rle.Encoding{}, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n * TileSize
	}

	var err error
	if enc.Tiles, err = toInts(d.fields[FieldTileArray]); err != nil {
		return rle.Encoding{}, fmt.Errorf("%s: %w", FieldTileArray, err)
	}
	if enc.Amounts, err = toInts(d.fields[FieldTileAmounts]); err != nil {
		return rle.Encoding{}, fmt.Errorf("%s: %w", FieldTileAmounts, err)
	}

	return enc, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func toInts(v interface{}) ([]int, error) {
	switch l := v.(type) {
	case []int:
		return append([]int(nil), l...), nil
	case []interface{}:
		out := make([]int, len(l))
		for i, e := range l {
			n, err := toInt(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not an array: %v", v)
	}
}
