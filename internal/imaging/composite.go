package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Composite places filler inside the shape selected by mask and returns an RGB
// image of size (mask width + 2*padding) × (mask height + 2*padding).
//
// Steps:
//  1. The filler is resized to the mask's canvas size.
//  2. If the mask has a non-empty bounding box, the resized filler is resized
//     again to exactly the box and pasted at the box offset on a black canvas.
//     An all-zero mask uses the canvas-sized filler directly.
//  3. Each output pixel takes the fill colour where the mask is non-zero and the
//     Background colour elsewhere.
//  4. With padding > 0 the result is centred on a larger Background canvas.
//
// # Errors
//
//   - Returns error if padding is negative
//   - Returns error if the mask or filler has zero area
func Composite(filler image.Image, mask *image.Alpha, padding int) (*image.NRGBA, error) {
	if padding < 0 {
		return nil, fmt.Errorf("padding must be >= 0, got %d", padding)
	}
	mb := mask.Bounds()
	w, h := mb.Dx(), mb.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("mask has zero area")
	}
	if filler.Bounds().Empty() {
		return nil, fmt.Errorf("filler image has zero area")
	}

	resized := imaging.Resize(filler, w, h, imaging.Lanczos)

	fill := resized
	if box := BoundingBox(mask).Sub(mb.Min); !box.Empty() {
		region := imaging.Resize(resized, box.Dx(), box.Dy(), imaging.Lanczos)
		fill = imaging.Paste(imaging.New(w, h, Background), region, box.Min)
	}

	out := imaging.New(w, h, Background)
	draw.DrawMask(out, out.Bounds(), fill, image.Point{}, mask, mb.Min, draw.Over)

	if padding == 0 {
		return out, nil
	}
	padded := imaging.New(w+2*padding, h+2*padding, Background)
	return imaging.Paste(padded, out, image.Pt(padding, padding)), nil
}
