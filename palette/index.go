package palette

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyPalette is returned when building an index with no entries
var ErrEmptyPalette = errors.New("palette: empty palette")

type node struct {
	entry       int
	axis        int
	left, right *node
}

// Index answers nearest color queries over a fixed set of palette entries
// using a kd-tree over the RGB cube. It is safe for concurrent use.
type Index struct {
	entries []Entry
	root    *node
}

func component(c Color, axis int) int {
	switch axis {
	case 0:
		return int(c.R)
	case 1:
		return int(c.G)
	default:
		return int(c.B)
	}
}

// Squared Euclidean distance, no color space conversion
func distance(a, b Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// NewIndex builds an index over entries. The slice is copied.
func NewIndex(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyPalette
	}

	idx := &Index{
		entries: append([]Entry(nil), entries...),
	}

	points := make([]int, len(entries))
	for i := range points {
		points[i] = i
	}
	idx.root = idx.build(points, 0)

	return idx, nil
}

func (idx *Index) build(points []int, depth int) *node {
	if len(points) == 0 {
		return nil
	}

	axis := depth % 3
	sort.Slice(points, func(i, j int) bool {
		ci, cj := component(idx.entries[points[i]].Color, axis), component(idx.entries[points[j]].Color, axis)
		if ci != cj {
			return ci < cj
		}
		return points[i] < points[j]
	})

	m := len(points) / 2
	return &node{
		entry: points[m],
		axis:  axis,
		left:  idx.build(points[:m], depth+1),
		right: idx.build(points[m+1:], depth+1),
	}
}

type candidate struct {
	entry int
	dist  int
}

// Lower distance wins, then lower insertion index
func (c candidate) better(o candidate) bool {
	if c.dist != o.dist {
		return c.dist < o.dist
	}
	return c.entry < o.entry
}

func (idx *Index) search(n *node, c Color, best *candidate) {
	if n == nil {
		return
	}

	if cand := (candidate{n.entry, distance(c, idx.entries[n.entry].Color)}); cand.better(*best) {
		*best = cand
	}

	delta := component(c, n.axis) - component(idx.entries[n.entry].Color, n.axis)
	near, far := n.left, n.right
	if delta >= 0 {
		near, far = n.right, n.left
	}

	idx.search(near, c, best)

	// Equal distances still have to be visited so a lower index on the
	// other side of the plane can win the tie
	if delta*delta <= best.dist {
		idx.search(far, c, best)
	}
}

// Nearest returns the position and value of the entry closest to c
func (idx *Index) Nearest(c Color) (int, Entry) {
	best := candidate{entry: idx.root.entry, dist: distance(c, idx.entries[idx.root.entry].Color)}
	idx.search(idx.root, c, &best)
	return best.entry, idx.entries[best.entry]
}

// Len returns the number of entries
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entry returns the entry at position i
func (idx *Index) Entry(i int) Entry {
	return idx.entries[i]
}

// Entries returns a copy of the entries in load order
func (idx *Index) Entries() []Entry {
	return append([]Entry(nil), idx.entries...)
}

// Fingerprint identifies the ordered contents of the palette
func (idx *Index) Fingerprint() string {
	h := sha1.New()
	for _, e := range idx.entries {
		fmt.Fprintf(h, "%s\x00%06X\n", e.ID, e.Color.RGB())
	}
	return fmt.Sprintf("%X", h.Sum(nil))
}
