package source

import (
	"context"
	"fmt"
	"image"

	imgops "github.com/ironsheep/shapegen/internal/imaging"
)

// Folder loads filler images from one local folder per label.
type Folder struct {
	spec Spec
	opts options
}

// Load samples min(available, MaxImages) files without replacement from each
// label's folder. Only .jpg and .png files (any case) directly inside the
// folder are considered. A missing folder is returned as a wrapped
// fs.ErrNotExist.
func (f *Folder) Load(ctx context.Context, labels []Label) (Collection, error) {
	labels, err := mappedLabels(f.spec.Folders, labels)
	if err != nil {
		return nil, err
	}

	out := make(Collection, len(labels))
	for _, label := range labels {
		dir := f.spec.Folders[label]
		files, err := imgops.ListFillerFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}

		n := min(len(files), f.spec.MaxImages)
		picked := f.opts.rng.Perm(len(files))[:n]

		images := make([]image.Image, 0, n)
		for _, i := range picked {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			img, err := f.opts.cache.Load(files[i])
			if err != nil {
				return nil, fmt.Errorf("label %q: %w", label, err)
			}
			images = append(images, finish(img, f.spec.ImageSize))
		}

		f.opts.logger.Debug("loaded folder", "label", label, "dir", dir, "available", len(files), "loaded", len(images))
		out[label] = images
	}
	return out, nil
}
