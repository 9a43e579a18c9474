package shapes

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
)

// maskOn is the alpha of pixels inside a shape.
const maskOn = 0xff

// RandomParams controls RandomMask.
//
// The shape's box side is size*scale with scale drawn uniformly from
// [ScaleMin, ScaleMax]. Its centre is offset on each axis by a value drawn
// uniformly from [-size*Jitter, +size*Jitter].
type RandomParams struct {
	ScaleMin float64
	ScaleMax float64
	Jitter   float64
}

// Validate checks that the scale range is positive and ordered and that the
// jitter is not negative.
func (p RandomParams) Validate() error {
	if p.ScaleMin <= 0 || p.ScaleMax <= 0 {
		return fmt.Errorf("%w: scale range [%g, %g] must be positive", ErrInvalidGeometry, p.ScaleMin, p.ScaleMax)
	}
	if p.ScaleMin > p.ScaleMax {
		return fmt.Errorf("%w: scale min %g exceeds max %g", ErrInvalidGeometry, p.ScaleMin, p.ScaleMax)
	}
	if p.Jitter < 0 {
		return fmt.Errorf("%w: position jitter %g is negative", ErrInvalidGeometry, p.Jitter)
	}
	return nil
}

// FixedMask draws shape inset by margin pixels on all sides of a size×size canvas.
//
// The placement box is Rect(margin, margin, size-margin, size-margin). It is an
// error for the box to be empty.
func FixedMask(shape Shape, size, margin int) (*image.Alpha, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShape, int(shape))
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: canvas size %d", ErrInvalidGeometry, size)
	}
	if margin < 0 || size-2*margin < 1 {
		return nil, fmt.Errorf("%w: margin %d leaves no room on a %dpx canvas", ErrInvalidGeometry, margin, size)
	}

	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	fillShape(mask, shape, image.Rect(margin, margin, size-margin, size-margin))
	return mask, nil
}

// RandomMask draws shape with a random scale and position on a size×size canvas.
//
// The placement box is centred at size/2 plus the random offset and clipped to
// the canvas with max/min, so the shape never leaves [0,size). A clipped circle
// becomes the ellipse inscribed in the clipped box. If the offset pushes the box
// entirely off the canvas the mask is empty.
func RandomMask(shape Shape, size int, p RandomParams, rng *rand.Rand) (*image.Alpha, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShape, int(shape))
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: canvas size %d", ErrInvalidGeometry, size)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	fillShape(mask, shape, RandomBox(size, p, rng))
	return mask, nil
}

// RandomBox draws the placement box used by RandomMask. It consumes exactly
// three values from rng: scale, x offset, y offset.
func RandomBox(size int, p RandomParams, rng *rand.Rand) image.Rectangle {
	fs := float64(size)
	scale := p.ScaleMin + rng.Float64()*(p.ScaleMax-p.ScaleMin)
	side := fs * scale
	spread := fs * p.Jitter
	ox := -spread + rng.Float64()*2*spread
	oy := -spread + rng.Float64()*2*spread

	cx := fs/2 + ox
	cy := fs/2 + oy
	left := max(0, int(math.Round(cx-side/2)))
	top := max(0, int(math.Round(cy-side/2)))
	right := min(size, int(math.Round(cx+side/2)))
	bottom := min(size, int(math.Round(cy+side/2)))

	if left >= right || top >= bottom {
		return image.Rectangle{}
	}
	return image.Rect(left, top, right, bottom)
}

// fillShape sets every pixel of mask whose centre lies inside shape inscribed
// in box. box must already lie within the mask bounds.
func fillShape(mask *image.Alpha, shape Shape, box image.Rectangle) {
	if box.Empty() {
		return
	}

	left, top := float64(box.Min.X), float64(box.Min.Y)
	w, h := float64(box.Dx()), float64(box.Dy())
	cx, cy := left+w/2, top+h/2

	for y := box.Min.Y; y < box.Max.Y; y++ {
		py := float64(y) + 0.5
		for x := box.Min.X; x < box.Max.X; x++ {
			px := float64(x) + 0.5

			var in bool
			switch shape {
			case Square:
				in = true
			case Circle:
				dx := (px - cx) / (w / 2)
				dy := (py - cy) / (h / 2)
				in = dx*dx+dy*dy <= 1
			case Triangle:
				halfWidth := (py - top) / h * (w / 2)
				in = math.Abs(px-cx) <= halfWidth
			}

			if in {
				mask.SetAlpha(x, y, color.Alpha{A: maskOn})
			}
		}
	}
}

// Generator produces masks of a fixed canvas size. When Random is nil every
// mask uses FixedMask with Margin; otherwise each call draws a fresh RandomMask.
type Generator struct {
	Size   int
	Margin int
	Random *RandomParams
}

// Validate checks the generator settings without drawing anything.
func (g Generator) Validate() error {
	if g.Size <= 0 {
		return fmt.Errorf("%w: canvas size %d", ErrInvalidGeometry, g.Size)
	}
	if g.Random != nil {
		return g.Random.Validate()
	}
	if g.Margin < 0 || g.Size-2*g.Margin < 1 {
		return fmt.Errorf("%w: margin %d leaves no room on a %dpx canvas", ErrInvalidGeometry, g.Margin, g.Size)
	}
	return nil
}

// Mask draws one mask for shape. rng is only read in randomized mode.
func (g Generator) Mask(shape Shape, rng *rand.Rand) (*image.Alpha, error) {
	if g.Random == nil {
		return FixedMask(shape, g.Size, g.Margin)
	}
	return RandomMask(shape, g.Size, *g.Random, rng)
}
