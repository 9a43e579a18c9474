package source

import (
	"context"
	"fmt"
	"image"

	imgops "github.com/ironsheep/shapegen/internal/imaging"
)

// Pattern serves procedurally generated backgrounds, one per label.
type Pattern struct {
	spec Spec
	opts options
}

// Load renders each label's pattern once and repeats it MaxImages times. The
// repeats share the same image value; callers must not modify them.
func (p *Pattern) Load(_ context.Context, labels []Label) (Collection, error) {
	labels, err := mappedLabels(p.spec.Patterns, labels)
	if err != nil {
		return nil, err
	}

	size := p.spec.ImageSize
	if size == 0 {
		size = DefaultPatternSize
	}

	out := make(Collection, len(labels))
	for _, label := range labels {
		cfg := p.spec.Patterns[label]
		img, err := imgops.RenderPattern(size, cfg)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}

		images := make([]image.Image, p.spec.MaxImages)
		for i := range images {
			images[i] = img
		}
		p.opts.logger.Debug("rendered pattern", "label", label, "type", cfg.Type, "size", size)
		out[label] = images
	}
	return out, nil
}
