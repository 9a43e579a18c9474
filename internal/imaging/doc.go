// Package imaging provides the image operations used to build shape datasets.
//
// This package implements the low-level pieces of the dataset pipeline: loading
// and caching source images, listing image folders, parsing colours, computing
// mask bounding boxes, rendering procedural background patterns, and compositing
// a filler image through a shape mask. All operations work with standard Go
// image.Image types and use a coordinate system where (0,0) is at the top-left
// corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left) and Max is exclusive (bottom-right),
//     matching image.Rectangle
//
// # Masks
//
// Masks are *image.Alpha values. A pixel with alpha 255 selects the filler image,
// a pixel with alpha 0 selects the background. Masks produced by the shapes
// package only ever contain those two values.
//
// # Colour Policy
//
// Composites are always placed on a black background. The filler is fitted to the
// bounding box of the mask before the mask is applied, so the whole filler is
// visible inside the shape rather than only the part under the mask.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Rendering and compositing
// functions are stateless and return freshly allocated images.
package imaging
