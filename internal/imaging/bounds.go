package imaging

import (
	"image"
)

// BoundingBox returns the smallest rectangle containing every pixel of mask
// whose alpha is non-zero. Max is exclusive, like any image.Rectangle.
//
// An all-zero mask returns the empty rectangle (image.Rectangle{}), which
// reports true for Empty().
func BoundingBox(mask *image.Alpha) image.Rectangle {
	b := mask.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[(y-b.Min.Y)*mask.Stride : (y-b.Min.Y)*mask.Stride+b.Dx()]
		for i, a := range row {
			if a == 0 {
				continue
			}
			x := b.Min.X + i
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// CountSet returns how many pixels of mask are non-zero.
func CountSet(mask *image.Alpha) int {
	n := 0
	b := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for _, a := range mask.Pix[y*mask.Stride : y*mask.Stride+b.Dx()] {
			if a != 0 {
				n++
			}
		}
	}
	return n
}
