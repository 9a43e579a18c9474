package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/shapegen/internal/config"
	"github.com/ironsheep/shapegen/internal/dataset"
	"github.com/ironsheep/shapegen/internal/fetch"
	imgops "github.com/ironsheep/shapegen/internal/imaging"
	"github.com/ironsheep/shapegen/internal/source"
)

func newGenerateCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a shape dataset",
		Long: `Load filler images from the configured source and write samples for every
shape in the shapes map to {output_dir}/{shape}/{shape}_{index}.{format}.

Settings come from the config file (default ./shapegen.yaml), SHAPEGEN_*
environment variables, and flags, in increasing priority.`,
		Example: `  shapegen generate --config shapes.yaml
  shapegen generate -c shapes.yaml --samples 500 --randomize --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			_, err = runGenerate(cmd.Context(), cfg, loggerFromContext(cmd.Context()), cmd.ErrOrStderr())
			return err
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./"+config.DefaultFile+")")
	config.BindFlags(cmd.Flags())
	return cmd
}

// runGenerate loads the filler images described by cfg and writes the dataset.
// Download progress bars are written to progressOut.
func runGenerate(ctx context.Context, cfg *config.Config, logger *log.Logger, progressOut io.Writer) (*dataset.Report, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Debug("random source", "seed", seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	spec, err := cfg.SourceSpec()
	if err != nil {
		return nil, err
	}
	cache := imgops.NewImageCache()
	defer cache.Clear()
	loader, err := source.New(spec,
		source.WithLogger(logger),
		source.WithRand(rng),
		source.WithDownloader(&fetch.Downloader{Progress: progressOut}),
		source.WithCache(cache),
	)
	if err != nil {
		return nil, err
	}

	prog := newProgress(logger)
	labels := cfg.Labels()
	images, err := loader.Load(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("loading %s images: %w", spec.Kind, err)
	}
	prog.done("loaded filler images", "source", spec.Kind, "labels", len(labels), "decoded", cache.Len())
	for _, l := range images.Labels() {
		logger.Debug("filler pool", "label", l, "images", len(images[l]))
	}

	classes, err := cfg.ShapeClassMap()
	if err != nil {
		return nil, err
	}
	format, err := dataset.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	w, err := dataset.New(dataset.Options{
		OutputDir: cfg.OutputDir,
		Masks:     cfg.MaskGenerator(),
		Padding:   cfg.Padding,
		Samples:   cfg.Samples,
		Format:    format,
	}, rng, logger)
	if err != nil {
		return nil, err
	}

	prog = newProgress(logger)
	report, err := w.Generate(ctx, images, classes)
	if err != nil {
		return report, err
	}
	prog.done("dataset written", "files", report.Total(), "dir", cfg.OutputDir)
	return report, nil
}
