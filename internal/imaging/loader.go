package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// FillerExtensions lists the file extensions accepted when sampling a folder of
// filler images. Matching is case-insensitive.
var FillerExtensions = []string{".jpg", ".png"}

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded images keyed by their file path. Once an image is
// loaded, subsequent Load() calls for the same path return the cached copy
// without disk I/O. Images are stored already converted to opaque RGB.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Clear().
// Large custom folders loaded with a high per-label limit can hold a lot of
// pixels; call Clear() once a dataset has been written.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.NRGBA
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.NRGBA),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// The file is decoded with EXIF auto-orientation and converted to an opaque
// 8-bit RGB image. The image is cached using the exact path string provided.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func (c *ImageCache) Load(path string) (*image.NRGBA, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	decoded, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	img := ToRGB(decoded)

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*image.NRGBA)
	c.mu.Unlock()
}

// ListFillerFiles returns the paths of all files directly inside dir whose
// extension is one of FillerExtensions. Subdirectories are not searched.
// Paths are returned sorted so that sampling with a seeded source is repeatable.
//
// A missing or unreadable directory is returned as a wrapped filesystem error,
// so errors.Is(err, fs.ErrNotExist) works for callers.
func ListFillerFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsFillerFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// IsFillerFile reports whether name has one of the FillerExtensions.
func IsFillerFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range FillerExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ToRGB converts any image to an opaque 8-bit RGB image with bounds starting at
// (0,0). Grayscale sources have their single channel replicated, and any alpha
// is flattened onto black.
func ToRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	flat := imaging.New(b.Dx(), b.Dy(), Background)
	return imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)
}
