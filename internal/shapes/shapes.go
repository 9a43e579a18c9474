package shapes

import (
	"errors"
	"fmt"
	"strings"
)

// Shape identifies the geometry of a mask.
type Shape int

const (
	Circle Shape = iota
	Square
	Triangle
)

// All lists every supported shape in output order.
var All = []Shape{Circle, Square, Triangle}

// ErrUnknownShape is returned when a shape name or value is not supported.
var ErrUnknownShape = errors.New("unknown shape")

// ErrInvalidGeometry is returned for canvas, margin or randomization values
// that cannot produce a mask.
var ErrInvalidGeometry = errors.New("invalid mask geometry")

// String returns the lower-case shape name used for directories and file names.
func (s Shape) String() string {
	switch s {
	case Circle:
		return "circle"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// Valid reports whether s is one of the supported shapes.
func (s Shape) Valid() bool {
	return s >= Circle && s <= Triangle
}

// ParseShape converts a shape name to a Shape. Matching ignores case and
// surrounding whitespace.
func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "circle":
		return Circle, nil
	case "square":
		return Square, nil
	case "triangle":
		return Triangle, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}
