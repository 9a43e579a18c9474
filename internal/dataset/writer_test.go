package dataset

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shapegen/internal/shapes"
	"github.com/ironsheep/shapegen/internal/source"
)

func solid(size int, c color.Color) image.Image {
	return imaging.New(size, size, c)
}

func newWriter(t *testing.T, opts Options) *Writer {
	t.Helper()
	w, err := New(opts, rand.New(rand.NewPCG(9, 9)), nil)
	require.NoError(t, err)
	return w
}

func TestGenerate_WritesSamples(t *testing.T) {
	out := t.TempDir()
	w := newWriter(t, Options{
		OutputDir: out,
		Masks:     shapes.Generator{Size: 32, Margin: 4},
		Padding:   5,
		Samples:   3,
	})

	images := source.Collection{
		"red":  {solid(20, color.NRGBA{255, 0, 0, 255})},
		"blue": {solid(20, color.NRGBA{0, 0, 255, 255})},
	}
	report, err := w.Generate(context.Background(), images, ShapeClassMap{
		shapes.Square: {"red", "blue"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total())

	entries, err := os.ReadDir(filepath.Join(out, "square"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"square_0.png", "square_1.png", "square_2.png"}, names)

	for _, name := range names {
		img, err := imaging.Open(filepath.Join(out, "square", name))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 42, 42), img.Bounds(), name)

		// corners are padding, centre is one of the two fillers
		r, g, b, _ := img.At(0, 0).RGBA()
		assert.Zero(t, r|g|b, name)
		r, _, b, _ = img.At(21, 21).RGBA()
		assert.True(t, r>>8 > 250 || b>>8 > 250, "%s centre is not a filler colour", name)
	}

	_, err = os.Stat(filepath.Join(out, "circle"))
	assert.True(t, os.IsNotExist(err), "unmapped shape got a directory")
}

func TestGenerate_AllShapes(t *testing.T) {
	out := t.TempDir()
	w := newWriter(t, Options{
		OutputDir: out,
		Masks:     shapes.Generator{Size: 24, Random: &shapes.RandomParams{ScaleMin: 0.5, ScaleMax: 0.9, Jitter: 0.1}},
		Samples:   2,
	})

	images := source.Collection{"a": {solid(8, color.White)}}
	report, err := w.Generate(context.Background(), images, ShapeClassMap{
		shapes.Circle:   {"a"},
		shapes.Square:   {"a"},
		shapes.Triangle: {"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, report.Total())

	for _, shape := range shapes.All {
		require.Len(t, report.Files[shape], 2)
		for i, path := range report.Files[shape] {
			assert.Equal(t, filepath.Join(out, shape.String(), fmt.Sprintf("%s_%d.png", shape, i)), path)
			assert.FileExists(t, path)
		}
	}
}

func TestGenerate_EmptyPoolWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dataset")
	w := newWriter(t, Options{OutputDir: out, Masks: shapes.Generator{Size: 16}, Samples: 2})

	images := source.Collection{
		"full":  {solid(8, color.White)},
		"empty": nil,
	}
	_, err := w.Generate(context.Background(), images, ShapeClassMap{
		shapes.Circle: {"full"},
		shapes.Square: {"empty"},
	})
	require.ErrorIs(t, err, ErrEmptyPool)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "output directory was created")
}

func TestGenerate_MissingLabel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dataset")
	w := newWriter(t, Options{OutputDir: out, Masks: shapes.Generator{Size: 16}, Samples: 1})

	_, err := w.Generate(context.Background(), source.Collection{}, ShapeClassMap{shapes.Triangle: {"nope"}})
	require.ErrorIs(t, err, source.ErrUnknownLabel)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_ZeroSamples(t *testing.T) {
	out := t.TempDir()
	w := newWriter(t, Options{OutputDir: out, Masks: shapes.Generator{Size: 16}, Samples: 0})

	report, err := w.Generate(context.Background(), source.Collection{"a": {solid(4, color.White)}}, ShapeClassMap{shapes.Circle: {"a"}})
	require.NoError(t, err)
	assert.Zero(t, report.Total())
	assert.DirExists(t, filepath.Join(out, "circle"))
}

func TestGenerate_Cancelled(t *testing.T) {
	w := newWriter(t, Options{OutputDir: t.TempDir(), Masks: shapes.Generator{Size: 16}, Samples: 5})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := w.Generate(ctx, source.Collection{"a": {solid(4, color.White)}}, ShapeClassMap{shapes.Circle: {"a"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Total())
}

func TestGenerate_SameSeedSameOutput(t *testing.T) {
	images := source.Collection{"a": {solid(16, color.NRGBA{10, 200, 30, 255}), solid(16, color.NRGBA{200, 10, 30, 255})}}
	opts := Options{Masks: shapes.Generator{Size: 20, Random: &shapes.RandomParams{ScaleMin: 0.3, ScaleMax: 1, Jitter: 0.3}}, Samples: 4}

	var runs [2][][]byte
	for i := range runs {
		opts.OutputDir = t.TempDir()
		report, err := newWriter(t, opts).Generate(context.Background(), images, ShapeClassMap{shapes.Circle: {"a"}})
		require.NoError(t, err)
		for _, path := range report.Files[shapes.Circle] {
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			runs[i] = append(runs[i], data)
		}
	}
	assert.Equal(t, runs[0], runs[1])
}

func TestGenerate_WebP(t *testing.T) {
	out := t.TempDir()
	w := newWriter(t, Options{OutputDir: out, Masks: shapes.Generator{Size: 16, Margin: 2}, Samples: 1, Format: FormatWebP})

	report, err := w.Generate(context.Background(), source.Collection{"a": {solid(8, color.White)}}, ShapeClassMap{shapes.Square: {"a"}})
	require.NoError(t, err)
	require.Len(t, report.Files[shapes.Square], 1)

	path := report.Files[shapes.Square][0]
	assert.Equal(t, ".webp", filepath.Ext(path))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := webp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
}

func TestNew_InvalidOptions(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	valid := Options{OutputDir: "out", Masks: shapes.Generator{Size: 16}, Samples: 1}

	tests := []struct {
		name string
		edit func(*Options)
	}{
		{"no output dir", func(o *Options) { o.OutputDir = "" }},
		{"negative samples", func(o *Options) { o.Samples = -1 }},
		{"negative padding", func(o *Options) { o.Padding = -2 }},
		{"bad margin", func(o *Options) { o.Masks.Margin = 8 }},
		{"bad format", func(o *Options) { o.Format = "gif" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.edit(&opts)
			_, err := New(opts, rng, nil)
			assert.Error(t, err)
		})
	}

	_, err := New(valid, nil, nil)
	assert.Error(t, err, "nil random source")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPNG, "PNG": FormatPNG, " webp ": FormatWebP} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("jpeg")
	assert.Error(t, err)
}
