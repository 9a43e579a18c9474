// Package shapes draws the binary shape masks that stencil filler images.
//
// Three shapes are supported: circle, square and triangle. A mask is a square
// *image.Alpha canvas where pixels inside the shape have alpha 255 and all
// others have alpha 0.
//
// # Placement Modes
//
// FixedMask insets the shape by a constant margin on every side. RandomMask
// draws a scale factor and a per-axis offset from a caller-supplied
// *rand.Rand, then clips the shape's box to the canvas so that it never
// extends past an edge.
//
// # Geometry
//
// Pixels are filled by testing the pixel centre (x+0.5, y+0.5) against the
// continuous shape inscribed in the placement box:
//   - Circle: the ellipse inscribed in the box (a circle for square boxes)
//   - Square: the box itself
//   - Triangle: isoceles, apex at the top centre of the box, base along its bottom
//
// For circle and square the bounding box of the filled pixels equals the
// placement box exactly.
package shapes
