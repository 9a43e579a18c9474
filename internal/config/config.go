// Package config loads shapegen settings.
//
// Values are layered, lowest priority first: built-in defaults, a YAML config
// file, SHAPEGEN_* environment variables, and command-line flags that were
// explicitly set. Nested keys are addressed with "." in files and flags and
// with "__" in environment variables (SHAPEGEN_RANDOMIZE__JITTER=0.2).
package config

import (
	"fmt"
	"sort"

	"github.com/ironsheep/shapegen/internal/dataset"
	imgops "github.com/ironsheep/shapegen/internal/imaging"
	"github.com/ironsheep/shapegen/internal/shapes"
	"github.com/ironsheep/shapegen/internal/source"
)

// Config holds the settings for one dataset generation run.
type Config struct {
	OutputDir  string `koanf:"output_dir"`
	CanvasSize int    `koanf:"canvas_size"`
	Margin     int    `koanf:"margin"`
	Padding    int    `koanf:"padding"`
	Samples    int    `koanf:"samples"`
	Seed       uint64 `koanf:"seed"`
	Format     string `koanf:"format"`

	Randomize RandomizeConfig     `koanf:"randomize"`
	Source    SourceConfig        `koanf:"source"`
	Shapes    map[string][]string `koanf:"shapes"`
}

// RandomizeConfig enables per-sample scale and position jitter.
type RandomizeConfig struct {
	Enabled  bool    `koanf:"enabled"`
	ScaleMin float64 `koanf:"scale_min"`
	ScaleMax float64 `koanf:"scale_max"`
	Jitter   float64 `koanf:"jitter"`
}

// SourceConfig selects where filler images come from.
type SourceConfig struct {
	Type      string                   `koanf:"type"`
	MaxImages int                      `koanf:"max_images"`
	ImageSize int                      `koanf:"image_size"`
	CacheDir  string                   `koanf:"cache_dir"`
	Labels    []string                 `koanf:"labels"`
	Folders   map[string]string        `koanf:"folders"`
	Patterns  map[string]PatternConfig `koanf:"patterns"`
}

// PatternConfig is the file form of imaging.PatternConfig. Colours are hex
// strings or colour names; zero fields take the pattern defaults.
type PatternConfig struct {
	PatternType     string  `koanf:"pattern_type"`
	ForegroundColor string  `koanf:"foreground_color"`
	BackgroundColor string  `koanf:"background_color"`
	StripeWidth     float64 `koanf:"stripe_width"`
	DotRadius       float64 `koanf:"dot_radius"`
	Spacing         float64 `koanf:"spacing"`
}

// Resolve parses colours and fills defaults, returning the renderer's form.
func (p PatternConfig) Resolve() (imgops.PatternConfig, error) {
	out := imgops.DefaultPatternConfig()
	if p.PatternType != "" {
		out.Type = imgops.PatternType(p.PatternType)
	}
	if p.ForegroundColor != "" {
		c, err := imgops.ParseColor(p.ForegroundColor)
		if err != nil {
			return out, fmt.Errorf("foreground_color: %w", err)
		}
		out.Foreground = c
	}
	if p.BackgroundColor != "" {
		c, err := imgops.ParseColor(p.BackgroundColor)
		if err != nil {
			return out, fmt.Errorf("background_color: %w", err)
		}
		out.Background = c
	}
	if p.StripeWidth != 0 {
		out.StripeWidth = p.StripeWidth
	}
	if p.DotRadius != 0 {
		out.DotRadius = p.DotRadius
	}
	if p.Spacing != 0 {
		out.Spacing = p.Spacing
	}
	return out, out.Validate()
}

// Validate checks value ranges and cross-field consistency.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Samples < 0 {
		return fmt.Errorf("samples must not be negative")
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding must not be negative")
	}
	if err := c.MaskGenerator().Validate(); err != nil {
		return err
	}
	if _, err := dataset.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Source.MaxImages <= 0 {
		return fmt.Errorf("source.max_images must be positive")
	}
	if len(c.Shapes) == 0 {
		return fmt.Errorf("shapes: at least one shape must be mapped to labels")
	}
	if _, err := c.ShapeClassMap(); err != nil {
		return err
	}
	if _, err := c.SourceSpec(); err != nil {
		return err
	}
	return nil
}

// MaskGenerator returns the mask settings described by the config.
func (c *Config) MaskGenerator() shapes.Generator {
	g := shapes.Generator{Size: c.CanvasSize, Margin: c.Margin}
	if c.Randomize.Enabled {
		g.Random = &shapes.RandomParams{
			ScaleMin: c.Randomize.ScaleMin,
			ScaleMax: c.Randomize.ScaleMax,
			Jitter:   c.Randomize.Jitter,
		}
	}
	return g
}

// ShapeClassMap parses the shape names of the shapes section.
func (c *Config) ShapeClassMap() (dataset.ShapeClassMap, error) {
	m := make(dataset.ShapeClassMap, len(c.Shapes))
	for name, labels := range c.Shapes {
		shape, err := shapes.ParseShape(name)
		if err != nil {
			return nil, fmt.Errorf("shapes: %w", err)
		}
		for _, l := range labels {
			m[shape] = append(m[shape], source.Label(l))
		}
	}
	return m, nil
}

// SourceSpec converts the source section into a source.Spec.
func (c *Config) SourceSpec() (source.Spec, error) {
	spec := source.Spec{
		Kind:      source.Kind(c.Source.Type),
		MaxImages: c.Source.MaxImages,
		ImageSize: c.Source.ImageSize,
		CacheDir:  c.Source.CacheDir,
	}
	if len(c.Source.Folders) > 0 {
		spec.Folders = make(map[source.Label]string, len(c.Source.Folders))
		for l, dir := range c.Source.Folders {
			spec.Folders[source.Label(l)] = dir
		}
	}
	if len(c.Source.Patterns) > 0 {
		spec.Patterns = make(map[source.Label]imgops.PatternConfig, len(c.Source.Patterns))
		for l, p := range c.Source.Patterns {
			resolved, err := p.Resolve()
			if err != nil {
				return spec, fmt.Errorf("source.patterns.%s: %w", l, err)
			}
			spec.Patterns[source.Label(l)] = resolved
		}
	}
	return spec, nil
}

// Labels returns the labels to load: source.labels when set, otherwise every
// label referenced by the shapes section, sorted and de-duplicated.
func (c *Config) Labels() []source.Label {
	names := c.Source.Labels
	if len(names) == 0 {
		seen := make(map[string]bool)
		for _, labels := range c.Shapes {
			for _, l := range labels {
				if !seen[l] {
					seen[l] = true
					names = append(names, l)
				}
			}
		}
		sort.Strings(names)
	}
	out := make([]source.Label, len(names))
	for i, n := range names {
		out[i] = source.Label(n)
	}
	return out
}
