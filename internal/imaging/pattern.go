package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// PatternType selects the procedural background drawn by RenderPattern.
type PatternType string

const (
	// PatternStripes draws vertical bands.
	PatternStripes PatternType = "stripes"
	// PatternHorizontalStripes draws horizontal bands.
	PatternHorizontalStripes PatternType = "horizontal_stripes"
	// PatternDots draws a square grid of filled circles.
	PatternDots PatternType = "dots"
)

// Default pattern geometry and colours, used when a field is left zero.
const (
	DefaultStripeWidth = 10.0
	DefaultDotRadius   = 5.0
	DefaultSpacing     = 20.0
)

// ErrUnknownPattern is returned for a pattern type RenderPattern does not draw.
var ErrUnknownPattern = errors.New("unknown pattern type")

// PatternConfig describes one procedurally generated background.
//
// StripeWidth is used by the two stripe patterns; DotRadius and Spacing are used
// by PatternDots. All geometry is in pixels and must be positive for the fields
// the selected pattern uses.
type PatternConfig struct {
	Type        PatternType
	Foreground  color.NRGBA
	Background  color.NRGBA
	StripeWidth float64
	DotRadius   float64
	Spacing     float64
}

// DefaultPatternConfig returns black-on-white stripes with the default geometry.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		Type:        PatternStripes,
		Foreground:  color.NRGBA{0, 0, 0, 255},
		Background:  color.NRGBA{255, 255, 255, 255},
		StripeWidth: DefaultStripeWidth,
		DotRadius:   DefaultDotRadius,
		Spacing:     DefaultSpacing,
	}
}

// Validate checks the fields used by the configured pattern type.
func (p PatternConfig) Validate() error {
	switch p.Type {
	case PatternStripes, PatternHorizontalStripes:
		if p.StripeWidth <= 0 {
			return fmt.Errorf("pattern %s: stripe_width must be positive, got %g", p.Type, p.StripeWidth)
		}
	case PatternDots:
		if p.DotRadius <= 0 {
			return fmt.Errorf("pattern %s: dot_radius must be positive, got %g", p.Type, p.DotRadius)
		}
		if p.Spacing <= 0 {
			return fmt.Errorf("pattern %s: spacing must be positive, got %g", p.Type, p.Spacing)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPattern, p.Type)
	}
	return nil
}

// RenderPattern draws the pattern described by p on a size×size canvas.
//
// The canvas is first filled with p.Background. Stripes are drawn from x=0 (or
// y=0) every 2*StripeWidth pixels, each StripeWidth wide. Dots are centred at
// every (i*Spacing, j*Spacing) inside the canvas starting from (0,0); a pixel
// belongs to a dot when its distance to the centre is at most DotRadius.
//
// Edges are hard, so every pixel is exactly Foreground or Background. The
// output depends only on its arguments.
func RenderPattern(size int, p PatternConfig) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pattern size must be positive, got %d", size)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(p.Background), image.Point{}, draw.Src)
	fg := image.NewUniform(p.Foreground)

	switch p.Type {
	case PatternStripes:
		for x := 0.0; x < float64(size); x += 2 * p.StripeWidth {
			band := image.Rect(int(math.Round(x)), 0, int(math.Round(x+p.StripeWidth)), size)
			draw.Draw(img, band, fg, image.Point{}, draw.Src)
		}
	case PatternHorizontalStripes:
		for y := 0.0; y < float64(size); y += 2 * p.StripeWidth {
			band := image.Rect(0, int(math.Round(y)), size, int(math.Round(y+p.StripeWidth)))
			draw.Draw(img, band, fg, image.Point{}, draw.Src)
		}
	case PatternDots:
		for cy := 0.0; cy < float64(size); cy += p.Spacing {
			for cx := 0.0; cx < float64(size); cx += p.Spacing {
				fillDisc(img, cx, cy, p.DotRadius, p.Foreground)
			}
		}
	}

	return img, nil
}

// fillDisc sets every pixel within r of (cx, cy) to c, clipped to img.
func fillDisc(img *image.NRGBA, cx, cy, r float64, c color.NRGBA) {
	b := img.Bounds()
	x0 := max(b.Min.X, int(math.Floor(cx-r)))
	x1 := min(b.Max.X-1, int(math.Ceil(cx+r)))
	y0 := max(b.Min.Y, int(math.Floor(cy-r)))
	y1 := min(b.Max.Y-1, int(math.Ceil(cy+r)))
	r2 := r * r

	for y := y0; y <= y1; y++ {
		dy := float64(y) - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			if dx*dx+dy*dy <= r2 {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}
