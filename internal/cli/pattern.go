package cli

import (
	"fmt"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spf13/cobra"

	"github.com/ironsheep/shapegen/internal/config"
	imgops "github.com/ironsheep/shapegen/internal/imaging"
)

func newPatternCmd() *cobra.Command {
	var (
		p    config.PatternConfig
		size int
		out  string
	)

	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Render a background pattern to a PNG file",
		Long: `Render one procedural background exactly as a pattern source would, so that
pattern settings can be checked before generating a dataset.`,
		Example: `  shapegen pattern --type dots --dot-radius 4 --spacing 16 --out dots.png
  shapegen pattern --type stripes --fg "#ff0000" --bg white --out red.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := p.Resolve()
			if err != nil {
				return err
			}
			img, err := imgops.RenderPattern(size, cfg)
			if err != nil {
				return err
			}
			if err := imgio.Save(out, img, imgio.PNGEncoder()); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			logger.Info("wrote pattern", "path", out, "type", cfg.Type, "size", size,
				"fg", imgops.HexColor(cfg.Foreground), "bg", imgops.HexColor(cfg.Background))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.PatternType, "type", string(imgops.PatternStripes), "pattern type: stripes|horizontal_stripes|dots")
	f.StringVar(&p.ForegroundColor, "fg", "", "foreground colour (hex or name)")
	f.StringVar(&p.BackgroundColor, "bg", "", "background colour (hex or name)")
	f.Float64Var(&p.StripeWidth, "stripe-width", 0, "stripe width in pixels")
	f.Float64Var(&p.DotRadius, "dot-radius", 0, "dot radius in pixels")
	f.Float64Var(&p.Spacing, "spacing", 0, "distance between dot centres in pixels")
	f.IntVar(&size, "size", 256, "image side in pixels")
	f.StringVarP(&out, "out", "o", "pattern.png", "output file")
	return cmd
}
