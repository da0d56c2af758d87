/*
Package wbox converts raster images into compressed tile map files for a
game world loader.

An image is quantized against a fixed palette, the resulting tile grid is run
length encoded and merged into a JSON map data document, and the document is
written as a zlib stream, conventionally with a .wbox extension.
*/
package wbox

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bodgit/wbox/document"
	"github.com/klauspost/compress/zlib"
)

// ErrWriteFailed is wrapped by any error writing an output file
var ErrWriteFailed = errors.New("write failed")

// Encode writes doc to w as indented JSON compressed with zlib, favouring
// speed over ratio
func Encode(w io.Writer, doc *document.Document) error {
	b, err := doc.MarshalJSON()
	if err != nil {
		return err
	}

	zw, err := zlib.NewWriterLevel(w, zlib.BestSpeed)
	if err != nil {
		return err
	}

	if _, err := zw.Write(b); err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}

// Decode reads a document written by Encode
func Decode(r io.Reader) (*document.Document, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return document.Decode(zr)
}

// WriteFile encodes doc to the named file. On failure the file is removed.
func WriteFile(file string, doc *document.Document) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, file, err)
	}

	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: %s: %w", ErrWriteFailed, file, cerr)
		}
		if err != nil {
			os.Remove(file)
		}
	}()

	if err := Encode(f, doc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, file, err)
	}

	return nil
}

// ReadFile decodes the named file
func ReadFile(file string) (*document.Document, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return doc, nil
}
