package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid colour PNG into dir and returns its path.
func createTestImage(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.Len() != 0 {
		t.Fatalf("new cache holds %d images", cache.Len())
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, t.TempDir(), "red.png", 100, 80, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", bounds.Dx(), bounds.Dy())
	}
	if r, g, b := rgbAt(img1, 10, 10); r != 255 || g != 0 || b != 0 {
		t.Errorf("pixel (10,10): got (%d,%d,%d), want (255,0,0)", r, g, b)
	}

	// Second load should return cached image
	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	_, err := cache.Load("/nonexistent/path/to/image.png")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load error: got %v, want fs.ErrNotExist", err)
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	cache := NewImageCache()

	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := cache.Load(path); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestImageCache_Clear(t *testing.T) {
	dir := t.TempDir()
	cache := NewImageCache()
	a := createTestImage(t, dir, "a.png", 10, 10, color.White)
	b := createTestImage(t, dir, "b.png", 10, 10, color.Black)

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	if cache.Len() != 2 {
		t.Errorf("after two loads: %d images cached, want 2", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, t.TempDir(), "gray.png", 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestListFillerFiles(t *testing.T) {
	dir := t.TempDir()
	createTestImage(t, dir, "b.png", 4, 4, color.White)
	createTestImage(t, dir, "a.JPG", 4, 4, color.White)
	createTestImage(t, dir, "c.Png", 4, 4, color.White)
	createTestImage(t, dir, "skip.gif", 4, 4, color.White)
	createTestImage(t, dir, "skip.jpeg", 4, 4, color.White)
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFillerFiles(dir)
	if err != nil {
		t.Fatalf("ListFillerFiles failed: %v", err)
	}

	want := []string{"a.JPG", "b.png", "c.Png"}
	if len(files) != len(want) {
		t.Fatalf("got %d files %v, want %v", len(files), files, want)
	}
	for i, name := range want {
		if filepath.Base(files[i]) != name {
			t.Errorf("files[%d]: got %s, want %s", i, filepath.Base(files[i]), name)
		}
	}
}

func TestListFillerFiles_MissingFolder(t *testing.T) {
	_, err := ListFillerFiles(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want fs.ErrNotExist", err)
	}
}

func TestToRGB(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	gray.SetGray(1, 1, color.Gray{Y: 200})

	rgb := ToRGB(gray)
	if rgb.Bounds() != image.Rect(0, 0, 3, 3) {
		t.Fatalf("bounds: got %v", rgb.Bounds())
	}
	if r, g, b := rgbAt(rgb, 1, 1); r != 200 || g != 200 || b != 200 {
		t.Errorf("pixel (1,1): got (%d,%d,%d), want (200,200,200)", r, g, b)
	}
	if a := rgb.NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("alpha: got %d, want 255", a)
	}
}

func TestToRGB_OffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.RGBA{0, 0, 255, 255})

	rgb := ToRGB(src)
	if rgb.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds: got %v, want (0,0)-(4,2)", rgb.Bounds())
	}
	if r, g, b := rgbAt(rgb, 0, 0); r != 0 || g != 0 || b != 255 {
		t.Errorf("pixel (0,0): got (%d,%d,%d), want (0,0,255)", r, g, b)
	}
}
