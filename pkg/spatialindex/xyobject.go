package spatialindex

import (
	"fmt"

	"github.com/paulmach/orb"
)

// XYObject is an immutable (x,y) representation of a spatial entity, used for indexing and nearest-object queries.
// The payload is optional and never takes part in comparisons.
type XYObject[T any] struct {
	x, y       float64
	payload    T
	hasPayload bool
}

func NewXYObject[T any](x, y float64, payload T) XYObject[T] {
	return XYObject[T]{x: x, y: y, payload: payload, hasPayload: true}
}

// NewXYPoint creates an entry without payload.
func NewXYPoint[T any](x, y float64) XYObject[T] {
	return XYObject[T]{x: x, y: y}
}

func (o XYObject[T]) X() float64 {
	return o.x
}

func (o XYObject[T]) Y() float64 {
	return o.y
}

// Payload returns the wrapped object and whether one was set.
func (o XYObject[T]) Payload() (T, bool) {
	return o.payload, o.hasPayload
}

func (o XYObject[T]) ToPoint() orb.Point {
	return orb.Point{o.x, o.y}
}

// Equals2D reports whether both entries have the same coordinates.
func (o XYObject[T]) Equals2D(other XYObject[T]) bool {
	return o.x == other.x && o.y == other.y
}

func (o XYObject[T]) String() string {
	return fmt.Sprintf("%.5f %.5f", o.x, o.y)
}

// CompareX orders entries by x only; equal x compares as 0.
func CompareX[T any](a, b XYObject[T]) int {
	switch {
	case a.x < b.x:
		return -1
	case a.x > b.x:
		return 1
	}
	return 0
}

// CompareY orders entries by y only; equal y compares as 0.
func CompareY[T any](a, b XYObject[T]) int {
	switch {
	case a.y < b.y:
		return -1
	case a.y > b.y:
		return 1
	}
	return 0
}
