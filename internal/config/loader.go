package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no config file is given.
const DefaultFile = "shapegen.yaml"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SHAPEGEN_"

// Defaults are the values used when no file, env var or flag sets a key.
var Defaults = map[string]interface{}{
	"output_dir":          "dataset",
	"canvas_size":         256,
	"margin":              16,
	"padding":             0,
	"samples":             100,
	"seed":                0,
	"format":              "png",
	"randomize.enabled":   false,
	"randomize.scale_min": 0.5,
	"randomize.scale_max": 0.9,
	"randomize.jitter":    0.1,
	"source.type":         "cifar",
	"source.max_images":   100,
	"source.image_size":   256,
	"source.cache_dir":    "data",
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"output-dir":  "output_dir",
	"canvas-size": "canvas_size",
	"margin":      "margin",
	"padding":     "padding",
	"samples":     "samples",
	"seed":        "seed",
	"format":      "format",
	"randomize":   "randomize.enabled",
	"scale-min":   "randomize.scale_min",
	"scale-max":   "randomize.scale_max",
	"jitter":      "randomize.jitter",
	"source":      "source.type",
	"max-images":  "source.max_images",
	"image-size":  "source.image_size",
	"cache-dir":   "source.cache_dir",
	"labels":      "source.labels",
}

// Load reads configuration from defaults, cfgFile (or DefaultFile if present),
// the environment, and any flags in flags that were explicitly changed.
// Precedence, highest first: flags > env vars > config file > defaults.
// The result is not validated; call Validate before use.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			cfgFile = DefaultFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// SHAPEGEN_RANDOMIZE__SCALE_MIN -> randomize.scale_min
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// BindFlags registers the generation flags understood by Load on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("output-dir", "", "output directory (one subdirectory per shape)")
	fs.Int("canvas-size", 0, "mask canvas side in pixels")
	fs.Int("margin", 0, "shape inset in pixels when not randomized")
	fs.Int("padding", 0, "black border added around every sample")
	fs.Int("samples", 0, "samples written per shape")
	fs.Uint64("seed", 0, "random seed (0 seeds from the clock)")
	fs.String("format", "", "output format: png|webp")
	fs.Bool("randomize", false, "randomize shape scale and position per sample")
	fs.Float64("scale-min", 0, "minimum shape scale as a fraction of the canvas")
	fs.Float64("scale-max", 0, "maximum shape scale as a fraction of the canvas")
	fs.Float64("jitter", 0, "maximum position offset as a fraction of the canvas")
	fs.String("source", "", "filler source: cifar|mnist|custom|pattern")
	fs.Int("max-images", 0, "maximum filler images loaded per label")
	fs.Int("image-size", 0, "side filler images are resized to")
	fs.String("cache-dir", "", "dataset download cache directory")
	fs.StringSlice("labels", nil, "labels to load (defaults to all labels in the shapes map)")
}
