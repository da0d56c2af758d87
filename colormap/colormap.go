/*
Package colormap resolves the colors present in an image to their nearest
palette entries and rewrites the image with the result.
*/
package colormap

import (
	"image"
	"io"
	"log"
	"sort"

	"github.com/bodgit/wbox/internal/pipeline"
	"github.com/bodgit/wbox/palette"
)

// Resolution is the palette entry chosen for a source color
type Resolution struct {
	Index int
	ID    string
	Color palette.Color
}

// Mapping maps every distinct source color of an image to its resolution
type Mapping map[palette.Color]Resolution

// Inverse maps each resolved color back to its palette id
func (m Mapping) Inverse() map[palette.Color]string {
	inv := make(map[palette.Color]string, len(m))
	for _, r := range m {
		inv[r.Color] = r.ID
	}
	return inv
}

// Store persists resolutions between runs. Results are keyed by the palette
// fingerprint and hold the position of the resolved entry.
type Store interface {
	Load(fingerprint string, colors []palette.Color) (map[palette.Color]int, error)
	Save(fingerprint string, resolved map[palette.Color]int) error
}

type options struct {
	workers int
	store   Store
	logger  *log.Logger
}

// Option configures New
type Option func(*options)

// WithWorkers sets the number of concurrent lookups
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithStore consults s before searching the palette and saves new results
// to it afterwards
func WithStore(s Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func pixel(m *image.NRGBA, x, y int) []uint8 {
	i := m.PixOffset(x, y)
	return m.Pix[i : i+4 : i+4]
}

// Colors returns the distinct colors in m ordered by packed RGB value
func Colors(m *image.NRGBA) []palette.Color {
	seen := make(map[palette.Color]struct{})
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := pixel(m, x, y)
			seen[palette.Color{R: p[0], G: p[1], B: p[2]}] = struct{}{}
		}
	}

	colors := make([]palette.Color, 0, len(seen))
	for c := range seen {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i].RGB() < colors[j].RGB() })

	return colors
}

type result struct {
	color palette.Color
	index int
}

// New builds the mapping for every color in m against idx
func New(m *image.NRGBA, idx *palette.Index, opts ...Option) (Mapping, error) {
	o := options{
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.workers = pipeline.Workers(o.workers)

	colors := Colors(m)
	mapping := make(Mapping, len(colors))

	resolve := func(c palette.Color, i int) {
		e := idx.Entry(i)
		mapping[c] = Resolution{Index: i, ID: e.ID, Color: e.Color}
	}

	misses := colors
	if o.store != nil {
		cached, err := o.store.Load(idx.Fingerprint(), colors)
		if err != nil {
			return nil, err
		}

		misses = make([]palette.Color, 0, len(colors))
		for _, c := range colors {
			if i, ok := cached[c]; ok && i >= 0 && i < idx.Len() {
				resolve(c, i)
			} else {
				misses = append(misses, c)
			}
		}
		o.logger.Printf("%d of %d colors resolved from cache\n", len(colors)-len(misses), len(colors))
	}

	// One private result slice per worker, merged once they have all
	// finished
	results := make([][]result, o.workers)
	if err := pipeline.Run(misses, o.workers, func(w int, c palette.Color) error {
		i, _ := idx.Nearest(c)
		results[w] = append(results[w], result{c, i})
		return nil
	}); err != nil {
		return nil, err
	}

	fresh := make(map[palette.Color]int, len(misses))
	for _, rs := range results {
		for _, r := range rs {
			resolve(r.color, r.index)
			fresh[r.color] = r.index
		}
	}

	if o.store != nil && len(fresh) > 0 {
		if err := o.store.Save(idx.Fingerprint(), fresh); err != nil {
			return nil, err
		}
	}

	return mapping, nil
}
