// Package source loads the filler images that are stencilled into shape masks.
//
// A source is described by a Spec whose Kind selects one of four backends:
//
//   - cifar:   the CIFAR-10 training split, labels are class indexes or names
//   - mnist:   the MNIST training split, labels are digits 0-9
//   - custom:  one local folder of .jpg/.png files per label
//   - pattern: one procedurally generated background per label
//
// New returns the Loader for a Spec. Every Loader returns a Collection mapping
// each requested label to opaque RGB images resized to Spec.ImageSize.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/shapegen/internal/fetch"
	imgops "github.com/ironsheep/shapegen/internal/imaging"
)

// Kind names a source backend.
type Kind string

const (
	KindCIFAR   Kind = "cifar"
	KindMNIST   Kind = "mnist"
	KindCustom  Kind = "custom"
	KindPattern Kind = "pattern"
)

// DefaultPatternSize is the side of rendered patterns when Spec.ImageSize is zero.
const DefaultPatternSize = 256

// ErrUnsupportedSource is returned by New for an unknown Kind.
var ErrUnsupportedSource = errors.New("unsupported dataset type")

// ErrUnknownLabel is returned when a requested label is not defined by the source.
var ErrUnknownLabel = errors.New("unknown label")

// Label identifies one class of filler images. Its meaning depends on the source:
// a class index or name for cifar, a digit for mnist, and a user-chosen key for
// custom and pattern sources.
type Label string

// Collection maps each label to its ordered filler images.
type Collection map[Label][]image.Image

// Labels returns the collection's labels in sorted order.
func (c Collection) Labels() []Label {
	labels := make([]Label, 0, len(c))
	for l := range c {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Loader loads filler images for a set of labels.
type Loader interface {
	Load(ctx context.Context, labels []Label) (Collection, error)
}

// Spec describes a source. Only the fields used by Kind are read.
type Spec struct {
	Kind Kind

	// MaxImages caps the images loaded per label. Must be positive.
	MaxImages int

	// ImageSize is the side every loaded image is resized to. Zero keeps the
	// native size (patterns then use DefaultPatternSize).
	ImageSize int

	// CacheDir holds downloaded dataset files for cifar and mnist.
	CacheDir string

	// Folders maps labels to image folders for custom sources.
	Folders map[Label]string

	// Patterns maps labels to pattern settings for pattern sources.
	Patterns map[Label]imgops.PatternConfig
}

// Option configures a Loader returned by New.
type Option func(*options)

type options struct {
	logger     *log.Logger
	rng        *rand.Rand
	downloader *fetch.Downloader
	cache      *imgops.ImageCache
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRand sets the random source used to sample custom folders.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithDownloader sets the downloader used to fetch cifar and mnist archives.
func WithDownloader(d *fetch.Downloader) Option {
	return func(o *options) { o.downloader = d }
}

// WithCache sets the image cache used by custom sources.
func WithCache(c *imgops.ImageCache) Option {
	return func(o *options) { o.cache = c }
}

// New returns the Loader for spec.
func New(spec Spec, opts ...Option) (Loader, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if o.downloader == nil {
		o.downloader = &fetch.Downloader{}
	}
	if o.cache == nil {
		o.cache = imgops.NewImageCache()
	}

	if spec.MaxImages <= 0 {
		return nil, fmt.Errorf("max images per class must be positive, got %d", spec.MaxImages)
	}
	if spec.ImageSize < 0 {
		return nil, fmt.Errorf("image size must not be negative, got %d", spec.ImageSize)
	}

	switch Kind(strings.ToLower(string(spec.Kind))) {
	case KindCIFAR:
		return &CIFAR{spec: spec, opts: o}, nil
	case KindMNIST:
		return &MNIST{spec: spec, opts: o}, nil
	case KindCustom:
		return &Folder{spec: spec, opts: o}, nil
	case KindPattern:
		for label, p := range spec.Patterns {
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("pattern label %q: %w", label, err)
			}
		}
		return &Pattern{spec: spec, opts: o}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, spec.Kind)
}

// finish converts img to opaque RGB and resizes it to size when size > 0.
func finish(img image.Image, size int) image.Image {
	rgb := imgops.ToRGB(img)
	if size <= 0 {
		return rgb
	}
	b := rgb.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return rgb
	}
	return imaging.Resize(rgb, size, size, imaging.Lanczos)
}

// uniqueLabels returns labels with repeats removed, keeping first occurrences.
func uniqueLabels(labels []Label) []Label {
	seen := make(map[Label]bool, len(labels))
	out := make([]Label, 0, len(labels))
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// mappedLabels resolves the labels to load from a label-keyed map. An empty
// request selects every key.
func mappedLabels[V any](m map[Label]V, requested []Label) ([]Label, error) {
	if len(requested) == 0 {
		labels := make([]Label, 0, len(m))
		for l := range m {
			labels = append(labels, l)
		}
		sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
		return labels, nil
	}
	for _, l := range requested {
		if _, ok := m[l]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, l)
		}
	}
	return requested, nil
}
