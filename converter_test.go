package wbox_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/wbox"
	"github.com/bodgit/wbox/document"
	"github.com/bodgit/wbox/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
)

func writePNG(t *testing.T, file string, m image.Image) {
	t.Helper()
	f, err := os.Create(file)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, m))
	require.NoError(t, f.Close())
}

func writeFile(t *testing.T, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
}

// newJob writes the inputs for a 2x2 checkerboard, white in the top left
func newJob(t *testing.T, mapData string) wbox.Job {
	t.Helper()
	dir := t.TempDir()

	m := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	m.SetNRGBA(0, 0, white)
	m.SetNRGBA(1, 0, black)
	m.SetNRGBA(0, 1, black)
	// Not quite white, still resolves to it
	m.SetNRGBA(1, 1, color.NRGBA{250, 250, 250, 255})

	job := wbox.Job{
		Image:     filepath.Join(dir, "map.png"),
		Palette:   filepath.Join(dir, "palette.txt"),
		MapData:   filepath.Join(dir, "map_data.json"),
		WorldLaws: filepath.Join(dir, "laws.txt"),
		Output:    filepath.Join(dir, "map.wbox"),
	}

	writePNG(t, job.Image, m)
	writeFile(t, job.Palette, "1 #FFFFFF\n2 #000000\n")
	writeFile(t, job.MapData, mapData)
	writeFile(t, job.WorldLaws, "Fire true\nIce FALSE\n")

	return job
}

func TestConvert(t *testing.T) {
	job := newJob(t, `{"tileMap": [], "name": "arena", "worldLaws": {"list": [{"name": "Old"}]}}`)

	var stages []wbox.Stage
	c := wbox.New(nil, wbox.WithWorkers(3), wbox.WithStageHook(func(s wbox.Stage) {
		stages = append(stages, s)
	}))
	require.NoError(t, c.Convert(job))
	assert.Len(t, stages, wbox.NumStages)

	doc, err := wbox.ReadFile(job.Output)
	require.NoError(t, err)

	// The bottom row is black then white so black is seen first
	ids, ok := doc.TileMap()
	require.True(t, ok)
	assert.Equal(t, []string{"2", "1"}, ids)

	enc, err := doc.Grid()
	require.NoError(t, err)
	assert.Equal(t, 128, enc.Width)
	assert.Equal(t, 128, enc.Height)
	require.Len(t, enc.Amounts, len(enc.Tiles))
	assert.Equal(t, 0, enc.Tiles[0])
	assert.Equal(t, 64, enc.Amounts[0])

	rows, err := enc.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 128)

	// Expand back to the bottom-up grid
	cells := enc.Expand()
	require.Len(t, cells, 128*128)
	for i, tile := range cells {
		row, x := i/128, i%128
		y := 127 - row
		want := 1
		if (x/64 + y/64) == 1 {
			want = 0
		}
		if tile != want {
			t.Fatalf("cell (%d, %d) = %d, want %d", x, y, tile, want)
		}
	}

	assert.Equal(t, []document.WorldLaw{
		{Name: "Old", Value: true},
		{Name: "Fire", Value: true},
		{Name: "Ice", Value: false},
	}, doc.WorldLaws())

	v, ok := doc.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "arena", v)

	_, ok = doc.Get(document.FieldFrozenTiles)
	assert.False(t, ok)
}

func TestConvertExistingTileMap(t *testing.T) {
	job := newJob(t, `{"tileMap": ["0", "1"]}`)
	require.NoError(t, wbox.New(nil).Convert(job))

	doc, err := wbox.ReadFile(job.Output)
	require.NoError(t, err)

	ids, _ := doc.TileMap()
	assert.Equal(t, []string{"0", "1", "2"}, ids)

	enc, err := doc.Grid()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, enc.Tiles[:2])
}

func TestConvertMissingTileMap(t *testing.T) {
	job := newJob(t, `{"other": 1}`)

	b := new(bytes.Buffer)
	require.NoError(t, wbox.New(log.New(b, "", 0)).Convert(job))
	assert.Contains(t, b.String(), "tileMap array not found")

	doc, err := wbox.ReadFile(job.Output)
	require.NoError(t, err)

	_, ok := doc.TileMap()
	assert.False(t, ok)
	_, ok = doc.Get(document.FieldTileArray)
	assert.True(t, ok)
}

func TestConvertMissingTileMapWarns(t *testing.T) {
	job := newJob(t, `{"other": 1}`)

	var warnings []error
	c := wbox.New(nil, wbox.WithWarningHook(func(err error) {
		warnings = append(warnings, err)
	}))
	require.NoError(t, c.Convert(job))

	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], document.ErrNoTileMap)
	assert.ErrorContains(t, warnings[0], job.MapData)

	// No warning when the array is present
	warnings = nil
	job = newJob(t, `{"tileMap": []}`)
	require.NoError(t, c.Convert(job))
	assert.Empty(t, warnings)
}

func TestConvertFreezeMap(t *testing.T) {
	job := newJob(t, `{"tileMap": []}`)
	job.FreezeMap = filepath.Join(filepath.Dir(job.Image), "freeze.png")

	freeze := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	freeze.SetNRGBA(1, 0, white)
	freeze.SetNRGBA(0, 1, white)
	freeze.SetNRGBA(2, 1, white)
	writePNG(t, job.FreezeMap, freeze)

	require.NoError(t, wbox.New(nil).Convert(job))

	doc, err := wbox.ReadFile(job.Output)
	require.NoError(t, err)

	b, err := doc.MarshalJSON()
	require.NoError(t, err)
	var v struct {
		FrozenTiles []int `json:"frozen_tiles"`
	}
	require.NoError(t, json.Unmarshal(b, &v))
	assert.Equal(t, []int{1, 3, 5}, v.FrozenTiles)

	// The same freeze map is rejected once sizes are checked
	require.NoError(t, os.Remove(job.Output))
	err = wbox.New(nil, wbox.WithFreezeMapCheck(true)).Convert(job)
	assert.ErrorIs(t, err, document.ErrFreezeMapSize)
	assert.NoFileExists(t, job.Output)
}

func TestConvertPreview(t *testing.T) {
	job := newJob(t, `{"tileMap": []}`)
	preview := filepath.Join(filepath.Dir(job.Image), "output.png")

	require.NoError(t, wbox.New(nil, wbox.WithPreview(preview)).Convert(job))

	f, err := os.Open(preview)
	require.NoError(t, err)
	defer f.Close()
	m, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 128, 128), m.Bounds())

	// Quantized, so the off-white pixel is now pure white
	r, g, b, _ := m.At(127, 127).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
}

func TestConvertErrors(t *testing.T) {
	tables := map[string]struct {
		mutate func(t *testing.T, job *wbox.Job)
		target error
	}{
		"empty palette": {
			func(t *testing.T, job *wbox.Job) {
				writeFile(t, job.Palette, "nothing useful\n1 #XYZ\n")
			},
			palette.ErrEmptyPalette,
		},
		"missing palette": {
			func(t *testing.T, job *wbox.Job) {
				job.Palette += ".missing"
			},
			os.ErrNotExist,
		},
		"missing image": {
			func(t *testing.T, job *wbox.Job) {
				job.Image += ".missing"
			},
			os.ErrNotExist,
		},
		"bad map data": {
			func(t *testing.T, job *wbox.Job) {
				writeFile(t, job.MapData, `[]`)
			},
			document.ErrNotObject,
		},
		"missing world laws": {
			func(t *testing.T, job *wbox.Job) {
				job.WorldLaws += ".missing"
			},
			os.ErrNotExist,
		},
		"unwritable output": {
			func(t *testing.T, job *wbox.Job) {
				job.Output = filepath.Join(job.Output, "nested", "map.wbox")
			},
			wbox.ErrWriteFailed,
		},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			job := newJob(t, `{"tileMap": []}`)
			table.mutate(t, &job)

			err := wbox.New(nil).Convert(job)
			assert.ErrorIs(t, err, table.target)
			assert.NoFileExists(t, job.Output)
		})
	}
}
