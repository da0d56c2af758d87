package cache_test

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/bodgit/wbox/cache"
	"github.com/bodgit/wbox/colormap"
	"github.com/bodgit/wbox/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ colormap.Store = (*cache.DB)(nil)

func TestSaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cache.db")

	db, err := cache.New(file)
	require.NoError(t, err)

	colors := []palette.Color{{R: 1}, {G: 2}, {B: 3}}

	got, err := db.Load("ABC", colors)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, db.Save("ABC", map[palette.Color]int{{R: 1}: 4, {B: 3}: 0}))
	require.NoError(t, db.Save("DEF", map[palette.Color]int{{R: 1}: 9}))
	require.NoError(t, db.Close())

	// Reopen to check the data is persisted
	db, err = cache.New(file)
	require.NoError(t, err)
	defer db.Close()

	got, err = db.Load("ABC", colors)
	require.NoError(t, err)
	assert.Equal(t, map[palette.Color]int{{R: 1}: 4, {B: 3}: 0}, got)

	got, err = db.Load("DEF", colors)
	require.NoError(t, err)
	assert.Equal(t, map[palette.Color]int{{R: 1}: 9}, got)

	require.NoError(t, db.Save("ABC", map[palette.Color]int{{R: 1}: 5}))
	got, err = db.Load("ABC", colors[:1])
	require.NoError(t, err)
	assert.Equal(t, map[palette.Color]int{{R: 1}: 5}, got)
}

func TestWithColormap(t *testing.T) {
	db, err := cache.New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	idx, err := palette.NewIndex([]palette.Entry{
		{ID: "1", Color: palette.Color{R: 255, G: 255, B: 255}},
		{ID: "2", Color: palette.Color{}},
	})
	require.NoError(t, err)

	m := newImage()
	first, err := colormap.New(m, idx, colormap.WithStore(db))
	require.NoError(t, err)

	cached, err := db.Load(idx.Fingerprint(), colormap.Colors(m))
	require.NoError(t, err)
	assert.Len(t, cached, len(first))

	second, err := colormap.New(m, idx, colormap.WithStore(db))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func newImage() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x * 60), uint8(y * 60), 30, 0xff})
		}
	}
	return m
}
