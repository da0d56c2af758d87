package wbox

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/bodgit/wbox/colormap"
	"github.com/bodgit/wbox/document"
	"github.com/bodgit/wbox/palette"
	"github.com/bodgit/wbox/rle"
)

// Stage identifies a step of a conversion
type Stage int

// Stages in the order they run
const (
	StagePalette Stage = iota
	StageImage
	StageQuantize
	StageRewrite
	StagePreview
	StageDocument
	StageEncode
	StageCompose
	StageFreezeMap
	StageWrite
	numStages
)

// NumStages is the number of stages reported for every conversion
const NumStages = int(numStages)

var stageNames = [...]string{
	StagePalette:   "load palette",
	StageImage:     "load image",
	StageQuantize:  "quantize",
	StageRewrite:   "rewrite image",
	StagePreview:   "write preview",
	StageDocument:  "load map data",
	StageEncode:    "encode tiles",
	StageCompose:   "compose document",
	StageFreezeMap: "freeze map",
	StageWrite:     "write output",
}

func (s Stage) String() string {
	if s < 0 || s >= numStages {
		return fmt.Sprintf("stage %d", int(s))
	}
	return stageNames[s]
}

// Job names the files used by one conversion. FreezeMap and WorldLaws are
// optional.
type Job struct {
	Image     string
	Palette   string
	MapData   string
	WorldLaws string
	FreezeMap string
	Output    string
}

// Converter runs conversions
type Converter struct {
	logger         *log.Logger
	workers        int
	store          colormap.Store
	hook           func(Stage)
	warn           func(error)
	checkFreezeMap bool
	preview        string
}

// Option configures a Converter
type Option func(*Converter)

// WithWorkers sets the number of goroutines used by the parallel stages
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.workers = n
	}
}

// WithStore caches color resolutions in s
func WithStore(s colormap.Store) Option {
	return func(c *Converter) {
		c.store = s
	}
}

// WithStageHook calls fn as each stage finishes, including skipped ones
func WithStageHook(fn func(Stage)) Option {
	return func(c *Converter) {
		c.hook = fn
	}
}

// WithWarningHook calls fn for every non-fatal problem found during a
// conversion, such as map data without a tileMap array. Without a hook
// warnings only go to the logger.
func WithWarningHook(fn func(error)) Option {
	return func(c *Converter) {
		c.warn = fn
	}
}

// WithFreezeMapCheck rejects freeze maps whose size differs from the
// normalized map image
func WithFreezeMapCheck(check bool) Option {
	return func(c *Converter) {
		c.checkFreezeMap = check
	}
}

// WithPreview writes the quantized image to file
func WithPreview(file string) Option {
	return func(c *Converter) {
		c.preview = file
	}
}

// New returns a Converter logging to logger, which may be nil
func New(logger *log.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Converter{
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type run struct {
	*Converter
	start time.Time
}

func (r *run) warning(err error) {
	if r.warn == nil {
		r.logger.Printf("Warning: %v\n", err)
		return
	}
	r.warn(err)
}

func (r *run) done(s Stage) {
	r.logger.Printf("%s done in %v\n", s, time.Since(r.start))
	if r.hook != nil {
		r.hook(s)
	}
}

// Convert reads the job's inputs and writes the compressed map document to
// job.Output. Nothing is written to job.Output unless every earlier stage
// succeeds.
func (c *Converter) Convert(job Job) error {
	r := &run{Converter: c, start: time.Now()}

	entries, err := palette.Load(job.Palette)
	if err != nil {
		return fmt.Errorf("%s: %w", StagePalette, err)
	}
	idx, err := palette.NewIndex(entries)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", StagePalette, job.Palette, err)
	}
	r.logger.Printf("Loaded %d palette entries from %s\n", idx.Len(), job.Palette)
	r.done(StagePalette)

	if job.Image == "" {
		return fmt.Errorf("%s: no input file provided", StageImage)
	}
	m, err := DecodeImage(job.Image)
	if err != nil {
		return fmt.Errorf("%s: %w", StageImage, err)
	}
	m = Normalize(m)
	r.logger.Printf("Normalized %s to %dx%d\n", job.Image, m.Bounds().Dx(), m.Bounds().Dy())
	r.done(StageImage)

	opts := []colormap.Option{
		colormap.WithWorkers(c.workers),
		colormap.WithLogger(c.logger),
	}
	if c.store != nil {
		opts = append(opts, colormap.WithStore(c.store))
	}
	mapping, err := colormap.New(m, idx, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", StageQuantize, err)
	}
	r.logger.Printf("Resolved %d distinct colors\n", len(mapping))
	r.done(StageQuantize)

	if err := colormap.Rewrite(m, mapping, c.workers); err != nil {
		return fmt.Errorf("%s: %w", StageRewrite, err)
	}
	r.done(StageRewrite)

	if c.preview != "" {
		if err := WritePreview(c.preview, m); err != nil {
			return fmt.Errorf("%s: %w", StagePreview, err)
		}
	}
	r.done(StagePreview)

	doc, err := document.Load(job.MapData)
	if err != nil {
		return fmt.Errorf("%s: %w", StageDocument, err)
	}
	r.done(StageDocument)

	known, ok := doc.TileMap()
	if !ok {
		r.warning(fmt.Errorf("%s: %w", job.MapData, document.ErrNoTileMap))
	}
	ids := rle.NewIDs(known)
	enc, err := rle.Encode(m, mapping.Inverse(), ids)
	if err != nil {
		return fmt.Errorf("%s: %w", StageEncode, err)
	}
	r.logger.Printf("Encoded %d runs\n", len(enc.Tiles))
	r.done(StageEncode)

	if err := doc.AppendTileMap(ids.Added()); err != nil && !errors.Is(err, document.ErrNoTileMap) {
		return fmt.Errorf("%s: %w", StageCompose, err)
	}
	doc.SetGrid(enc, m.Bounds().Dx(), m.Bounds().Dy())

	if job.WorldLaws != "" {
		laws, err := document.LoadWorldLaws(job.WorldLaws)
		if err != nil {
			return fmt.Errorf("%s: %w", StageCompose, err)
		}
		doc.AppendWorldLaws(laws)
		r.logger.Printf("Appended %d world laws\n", len(laws))
	}
	r.done(StageCompose)

	if job.FreezeMap != "" {
		freeze, err := DecodeImage(job.FreezeMap)
		if err != nil {
			return fmt.Errorf("%s: %w", StageFreezeMap, err)
		}
		if c.checkFreezeMap {
			if err := document.CheckFreezeMap(freeze.Bounds(), m.Bounds()); err != nil {
				return fmt.Errorf("%s: %s: %w", StageFreezeMap, job.FreezeMap, err)
			}
		}
		frozen := document.FrozenTiles(freeze)
		doc.SetFrozenTiles(frozen)
		r.logger.Printf("Frozen tiles added: %d\n", len(frozen))
	}
	r.done(StageFreezeMap)

	if err := WriteFile(job.Output, doc); err != nil {
		return fmt.Errorf("%s: %w", StageWrite, err)
	}
	r.logger.Printf("Output written to %s\n", job.Output)
	r.done(StageWrite)

	return nil
}
