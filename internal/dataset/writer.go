// Package dataset writes shape-classification datasets to disk.
//
// For every shape in a ShapeClassMap the Writer pools the filler images of the
// mapped labels, then repeatedly picks a filler, draws a fresh mask, composites
// the two and writes the result to {OutputDir}/{shape}/{shape}_{index}.{ext}.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/chai2010/webp"
	"github.com/charmbracelet/log"

	imgops "github.com/ironsheep/shapegen/internal/imaging"
	"github.com/ironsheep/shapegen/internal/shapes"
	"github.com/ironsheep/shapegen/internal/source"
)

// ErrEmptyPool is returned when a shape has no filler images to draw from.
var ErrEmptyPool = errors.New("empty filler pool")

// Format is the output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ParseFormat converts a format name to a Format. An empty name means PNG.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("unsupported output format %q", name)
}

func (f Format) encoder() imgio.Encoder {
	if f == FormatWebP {
		return func(w io.Writer, img image.Image) error {
			return webp.Encode(w, img, &webp.Options{Lossless: true})
		}
	}
	return imgio.PNGEncoder()
}

// ShapeClassMap binds each output shape to the labels whose images may fill it.
type ShapeClassMap map[shapes.Shape][]source.Label

// Options configures a Writer.
type Options struct {
	// OutputDir is the root directory; one subdirectory is created per shape.
	OutputDir string

	// Masks draws the mask for every sample.
	Masks shapes.Generator

	// Padding adds a black border of this many pixels around every sample.
	Padding int

	// Samples is the number of files written per shape.
	Samples int

	// Format selects the file encoding. Empty means PNG.
	Format Format
}

// Report lists the files written by Generate, per shape, in index order.
type Report struct {
	Files map[shapes.Shape][]string
}

// Total returns the number of files written.
func (r *Report) Total() int {
	n := 0
	for _, files := range r.Files {
		n += len(files)
	}
	return n
}

// Writer generates dataset samples. A Writer is not safe for concurrent use
// because it shares one random source across samples.
type Writer struct {
	opts   Options
	rng    *rand.Rand
	logger *log.Logger
}

// New validates opts and returns a Writer drawing randomness from rng.
// A nil logger uses log.Default().
func New(opts Options, rng *rand.Rand, logger *log.Logger) (*Writer, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Samples < 0 {
		return nil, fmt.Errorf("sample count must not be negative, got %d", opts.Samples)
	}
	if opts.Padding < 0 {
		return nil, fmt.Errorf("padding must not be negative, got %d", opts.Padding)
	}
	if err := opts.Masks.Validate(); err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{opts: opts, rng: rng, logger: logger}, nil
}

// Generate writes Samples files for every shape in classes.
//
// Every shape's pool is built before anything is written: a shape whose labels
// yield no images fails with ErrEmptyPool, and a label missing from images
// fails with source.ErrUnknownLabel, in both cases leaving the output
// directory untouched. Shapes are written in shapes.All order. Existing files
// with the same names are overwritten. An error part-way through leaves the
// files written so far in place.
func (w *Writer) Generate(ctx context.Context, images source.Collection, classes ShapeClassMap) (*Report, error) {
	pools := make(map[shapes.Shape][]image.Image, len(classes))
	for shape, labels := range classes {
		if !shape.Valid() {
			return nil, fmt.Errorf("%w: %d", shapes.ErrUnknownShape, int(shape))
		}
		pool, err := buildPool(images, labels)
		if err != nil {
			return nil, fmt.Errorf("shape %s: %w", shape, err)
		}
		if len(pool) == 0 {
			return nil, fmt.Errorf("%w: shape %s has no images from labels %v", ErrEmptyPool, shape, labels)
		}
		pools[shape] = pool
	}

	report := &Report{Files: make(map[shapes.Shape][]string, len(pools))}
	for _, shape := range shapes.All {
		pool, ok := pools[shape]
		if !ok {
			continue
		}
		files, err := w.writeShape(ctx, shape, pool)
		report.Files[shape] = files
		if err != nil {
			return report, fmt.Errorf("shape %s: %w", shape, err)
		}
		w.logger.Info("wrote shape", "shape", shape, "files", len(files), "pool", len(pool))
	}
	return report, nil
}

// buildPool concatenates the images of labels in the given order.
func buildPool(images source.Collection, labels []source.Label) ([]image.Image, error) {
	var pool []image.Image
	for _, l := range labels {
		imgs, ok := images[l]
		if !ok {
			return nil, fmt.Errorf("%w: %q was not loaded", source.ErrUnknownLabel, l)
		}
		pool = append(pool, imgs...)
	}
	return pool, nil
}

func (w *Writer) writeShape(ctx context.Context, shape shapes.Shape, pool []image.Image) ([]string, error) {
	dir := filepath.Join(w.opts.OutputDir, shape.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	enc := w.opts.Format.encoder()
	files := make([]string, 0, w.opts.Samples)
	for i := 0; i < w.opts.Samples; i++ {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		filler := pool[w.rng.IntN(len(pool))]
		mask, err := w.opts.Masks.Mask(shape, w.rng)
		if err != nil {
			return files, err
		}
		sample, err := imgops.Composite(filler, mask, w.opts.Padding)
		if err != nil {
			return files, fmt.Errorf("sample %d: %w", i, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%d.%s", shape, i, w.opts.Format))
		if err := imgio.Save(path, sample, enc); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
		w.logger.Debug("wrote sample", "path", path, "mask_pixels", imgops.CountSet(mask))
	}
	return files, nil
}
