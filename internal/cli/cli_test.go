package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shapegen/internal/config"
	imgops "github.com/ironsheep/shapegen/internal/imaging"
	"github.com/ironsheep/shapegen/internal/shapes"
)

func patternConfig(out string) *config.Config {
	return &config.Config{
		OutputDir:  out,
		CanvasSize: 32,
		Margin:     4,
		Padding:    2,
		Samples:    2,
		Seed:       7,
		Format:     "png",
		Source: config.SourceConfig{
			Type:      "pattern",
			MaxImages: 1,
			ImageSize: 16,
			Patterns: map[string]config.PatternConfig{
				"stripes": {PatternType: "stripes"},
				"dots":    {PatternType: "dots", ForegroundColor: "red"},
			},
		},
		Shapes: map[string][]string{
			"circle":   {"stripes"},
			"triangle": {"dots"},
		},
	}
}

func TestRunGenerate(t *testing.T) {
	out := t.TempDir()
	cfg := patternConfig(out)
	require.NoError(t, cfg.Validate())

	var logs bytes.Buffer
	report, err := runGenerate(context.Background(), cfg, newLogger(&logs, log.InfoLevel), &logs)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total())
	assert.Empty(t, report.Files[shapes.Square])

	for _, name := range []string{"circle/circle_0.png", "circle/circle_1.png", "triangle/triangle_0.png", "triangle/triangle_1.png"} {
		img, err := imaging.Open(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Equal(t, 36, img.Bounds().Dx(), name)
		assert.Equal(t, 36, img.Bounds().Dy(), name)
	}
	assert.Contains(t, logs.String(), "dataset written")
}

func TestRunGenerate_SameSeedSameFiles(t *testing.T) {
	var outputs [2][]byte
	for i := range outputs {
		cfg := patternConfig(t.TempDir())
		cfg.Randomize = config.RandomizeConfig{Enabled: true, ScaleMin: 0.3, ScaleMax: 0.9, Jitter: 0.2}
		report, err := runGenerate(context.Background(), cfg, newLogger(&bytes.Buffer{}, log.InfoLevel), nil)
		require.NoError(t, err)

		data, err := os.ReadFile(report.Files[shapes.Circle][1])
		require.NoError(t, err)
		outputs[i] = data
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestRunGenerate_UnknownLabel(t *testing.T) {
	cfg := patternConfig(t.TempDir())
	cfg.Shapes["square"] = []string{"checkers"}

	_, err := runGenerate(context.Background(), cfg, newLogger(&bytes.Buffer{}, log.InfoLevel), nil)
	assert.Error(t, err)
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "shapes.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
canvas_size: 24
margin: 2
samples: 1
source:
  type: pattern
  max_images: 1
  patterns:
    plain:
      pattern_type: horizontal_stripes
shapes:
  square: [plain]
`), 0644))
	out := filepath.Join(dir, "out")

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"generate", "-c", cfgPath, "--output-dir", out, "--padding", "3"})
	require.NoError(t, cmd.Execute(), stderr.String())

	img, err := imaging.Open(filepath.Join(out, "square", "square_0.png"))
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
}

func TestGenerateCommand_InvalidConfig(t *testing.T) {
	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"generate", "--output-dir", t.TempDir(), "--samples", "-1"})
	assert.Error(t, cmd.Execute())
}

func TestPatternCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dots.png")

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"pattern", "--type", "dots", "--fg", "#00ff00", "--bg", "black", "--dot-radius", "2", "--spacing", "8", "--size", "40", "-o", out})
	require.NoError(t, cmd.Execute())

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	r, g, b, _ := img.At(8, 8).RGBA()
	assert.Equal(t, []uint32{0, 255, 0}, []uint32{r >> 8, g >> 8, b >> 8})
	assert.Contains(t, stderr.String(), "wrote pattern")
	assert.Contains(t, stderr.String(), imgops.HexColor(imgops.Background))
}

func TestPatternCommand_UnknownType(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"pattern", "--type", "zigzag", "-o", filepath.Join(t.TempDir(), "x.png")})
	assert.ErrorIs(t, cmd.Execute(), imgops.ErrUnknownPattern)
}

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "2026-01-02")
	defer SetVersion("dev", "unknown", "unknown")

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "shapegen v1.2.3\ncommit: abc123\nbuilt: 2026-01-02\n", stdout.String())
}
