package source

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
)

const (
	mnistBaseURL    = "https://ossci-datasets.s3.amazonaws.com/mnist/"
	mnistImagesFile = "train-images-idx3-ubyte.gz"
	mnistLabelsFile = "train-labels-idx1-ubyte.gz"
	mnistDir        = "mnist"
	mnistImageMagic = 2051
	mnistLabelMagic = 2049

	// Header limits; the real training split has 60000 28×28 images.
	mnistMaxItems = 1 << 20
	mnistMaxSide  = 1 << 10
)

var mnistDigits = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// MNIST loads images from the MNIST training split.
type MNIST struct {
	spec Spec
	opts options
}

// Load returns up to MaxImages digits per label in training-file order. The
// single grey channel is replicated into RGB.
func (m *MNIST) Load(ctx context.Context, labels []Label) (Collection, error) {
	labels = uniqueLabels(labels)
	wanted, err := classIndexes(labels, mnistDigits)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(m.spec.CacheDir, mnistDir)
	for _, name := range []string{mnistLabelsFile, mnistImagesFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			m.opts.logger.Info("downloading MNIST", "file", name, "cache", dir)
		}
		if err := m.opts.downloader.FileIfMissing(ctx, mnistBaseURL+name, path); err != nil {
			return nil, err
		}
	}

	classes, err := readMNISTLabels(filepath.Join(dir, mnistLabelsFile))
	if err != nil {
		return nil, err
	}

	out := make(Collection, len(labels))
	for _, l := range labels {
		out[l] = nil
	}
	remaining := len(labels) * m.spec.MaxImages

	err = readMNISTImages(filepath.Join(dir, mnistImagesFile), func(i int, img *image.Gray) bool {
		if i >= len(classes) {
			return false
		}
		for _, l := range wanted[int(classes[i])] {
			if len(out[l]) < m.spec.MaxImages {
				out[l] = append(out[l], finish(img, m.spec.ImageSize))
				remaining--
			}
		}
		return remaining > 0 && ctx.Err() == nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, l := range labels {
		m.opts.logger.Debug("loaded mnist digit", "label", l, "images", len(out[l]))
	}
	return out, nil
}

// readMNISTLabels returns the label bytes of a gzipped IDX1 file.
func readMNISTLabels(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mnist labels: %w", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("mnist labels: %w", err)
	}
	defer gz.Close()

	var hdr struct{ Magic, Count uint32 }
	if err := binary.Read(gz, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("mnist labels header: %w", err)
	}
	if hdr.Magic != mnistLabelMagic {
		return nil, fmt.Errorf("mnist labels: bad magic %d", hdr.Magic)
	}
	if hdr.Count > mnistMaxItems {
		return nil, fmt.Errorf("mnist labels: header count %d exceeds %d", hdr.Count, mnistMaxItems)
	}
	labels := make([]byte, hdr.Count)
	if _, err := io.ReadFull(gz, labels); err != nil {
		return nil, fmt.Errorf("mnist labels: %w", err)
	}
	return labels, nil
}

// readMNISTImages decodes a gzipped IDX3 file, passing each image and its
// index to fn until fn returns false or the images run out.
func readMNISTImages(path string, fn func(i int, img *image.Gray) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("mnist images: %w", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("mnist images: %w", err)
	}
	defer gz.Close()
	br := bufio.NewReader(gz)

	var hdr struct{ Magic, Count, Rows, Cols uint32 }
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return fmt.Errorf("mnist images header: %w", err)
	}
	if hdr.Magic != mnistImageMagic {
		return fmt.Errorf("mnist images: bad magic %d", hdr.Magic)
	}

	if hdr.Count > mnistMaxItems || hdr.Rows > mnistMaxSide || hdr.Cols > mnistMaxSide {
		return fmt.Errorf("mnist images: header %d×%d×%d exceeds limits", hdr.Count, hdr.Rows, hdr.Cols)
	}

	rows, cols := int(hdr.Rows), int(hdr.Cols)
	for i := 0; i < int(hdr.Count); i++ {
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		if _, err := io.ReadFull(br, img.Pix); err != nil {
			return fmt.Errorf("mnist image %d: %w", i, err)
		}
		if !fn(i, img) {
			return nil
		}
	}
	return nil
}
