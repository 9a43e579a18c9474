package source

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/shapegen/internal/fetch"
)

const (
	cifarURL     = "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz"
	cifarArchive = "cifar-10-binary.tar.gz"
	cifarDir     = "cifar-10-batches-bin"
	cifarBatches = 5
	cifarSide    = 32
	cifarPlane   = cifarSide * cifarSide
	cifarRecord  = 1 + 3*cifarPlane
)

// CIFARClasses are the CIFAR-10 class names in label order.
var CIFARClasses = []string{
	"airplane", "automobile", "bird", "cat", "deer",
	"dog", "frog", "horse", "ship", "truck",
}

// CIFAR loads images from the CIFAR-10 training split.
type CIFAR struct {
	spec Spec
	opts options
}

// Load returns up to MaxImages images per label in training-file order.
// Labels may be class indexes ("3") or class names ("cat").
func (c *CIFAR) Load(ctx context.Context, labels []Label) (Collection, error) {
	labels = uniqueLabels(labels)
	wanted, err := classIndexes(labels, CIFARClasses)
	if err != nil {
		return nil, err
	}
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	out := make(Collection, len(labels))
	for _, l := range labels {
		out[l] = nil
	}
	remaining := len(labels) * c.spec.MaxImages

	for batch := 1; batch <= cifarBatches && remaining > 0; batch++ {
		path := filepath.Join(c.spec.CacheDir, cifarDir, fmt.Sprintf("data_batch_%d.bin", batch))
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cifar batch %d: %w", batch, err)
		}
		err = readCIFARBatch(f, func(class int, img *image.NRGBA) bool {
			for _, l := range wanted[class] {
				if len(out[l]) < c.spec.MaxImages {
					out[l] = append(out[l], finish(img, c.spec.ImageSize))
					remaining--
				}
			}
			return remaining > 0 && ctx.Err() == nil
		})
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cifar batch %d: %w", batch, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for _, l := range labels {
		c.opts.logger.Debug("loaded cifar class", "label", l, "images", len(out[l]))
	}
	return out, nil
}

// ensure downloads and unpacks the CIFAR-10 archive unless the extracted
// batch directory is already in the cache.
func (c *CIFAR) ensure(ctx context.Context) error {
	dir := filepath.Join(c.spec.CacheDir, cifarDir)
	if _, err := os.Stat(dir); err == nil {
		return nil
	}

	archive := filepath.Join(c.spec.CacheDir, cifarArchive)
	c.opts.logger.Info("downloading CIFAR-10", "url", cifarURL, "cache", c.spec.CacheDir)
	if err := c.opts.downloader.FileIfMissing(ctx, cifarURL, archive); err != nil {
		return err
	}
	return fetch.ExtractTarGz(archive, c.spec.CacheDir)
}

// readCIFARBatch decodes 32×32 records from r and passes each to fn until fn
// returns false or the input ends.
func readCIFARBatch(r io.Reader, fn func(class int, img *image.NRGBA) bool) error {
	br := bufio.NewReader(r)
	rec := make([]byte, cifarRecord)
	for {
		if _, err := io.ReadFull(br, rec); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("truncated record: %w", err)
		}

		img := image.NewNRGBA(image.Rect(0, 0, cifarSide, cifarSide))
		for i := 0; i < cifarPlane; i++ {
			img.Pix[4*i] = rec[1+i]
			img.Pix[4*i+1] = rec[1+cifarPlane+i]
			img.Pix[4*i+2] = rec[1+2*cifarPlane+i]
			img.Pix[4*i+3] = 0xff
		}
		if !fn(int(rec[0]), img) {
			return nil
		}
	}
}

// classIndexes maps each numeric class to the requested labels that name it.
// A label is either an index into names or one of the names (any case).
// Repeated labels are listed once.
func classIndexes(labels []Label, names []string) (map[int][]Label, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no class labels requested")
	}
	out := make(map[int][]Label, len(labels))
	for _, l := range uniqueLabels(labels) {
		idx, err := classIndex(l, names)
		if err != nil {
			return nil, err
		}
		out[idx] = append(out[idx], l)
	}
	return out, nil
}

func classIndex(l Label, names []string) (int, error) {
	s := strings.TrimSpace(string(l))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(names) {
			return 0, fmt.Errorf("%w: class %d out of range 0-%d", ErrUnknownLabel, n, len(names)-1)
		}
		return n, nil
	}
	for i, name := range names {
		if strings.EqualFold(name, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, l)
}
