package rtree

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned box. Min and Max hold one coordinate per dimension.
// A rect with Min == Max is a point.
type Rect struct {
	Min, Max []float64
}

// Box returns the rect centered on center extending halfExtent along each axis.
// Negative extents are treated as their absolute value.
func Box(center, halfExtent []float64) Rect {
	if len(center) != len(halfExtent) {
		panic(fmt.Sprintf("rtree: center has %d dimensions, extent has %d", len(center), len(halfExtent)))
	}
	r := Rect{
		Min: make([]float64, len(center)),
		Max: make([]float64, len(center)),
	}
	for i, c := range center {
		h := math.Abs(halfExtent[i])
		r.Min[i] = c - h
		r.Max[i] = c + h
	}
	return r
}

// Point returns a zero-extent rect at the given coordinates.
func Point(coords ...float64) Rect {
	return Rect{
		Min: append([]float64(nil), coords...),
		Max: append([]float64(nil), coords...),
	}
}

// Dims returns the dimensionality of r.
func (r Rect) Dims() int {
	return len(r.Min)
}

// Area returns the hyper-volume of r. Degenerate rects have zero area.
func (r Rect) Area() float64 {
	a := 1.0
	for i := range r.Min {
		a *= r.Max[i] - r.Min[i]
	}
	return a
}

// Margin returns the sum of the edge lengths of r along each axis.
func (r Rect) Margin() float64 {
	var m float64
	for i := range r.Min {
		m += r.Max[i] - r.Min[i]
	}
	return m
}

// Union returns the smallest rect containing both r and other.
func (r Rect) Union(other Rect) Rect {
	u := r.clone()
	u.extend(other)
	return u
}

// Overlaps reports whether r and other share at least one point.
// Touching boundaries count as overlap.
func (r Rect) Overlaps(other Rect) bool {
	for i := range r.Min {
		if r.Min[i] > other.Max[i] || other.Min[i] > r.Max[i] {
			return false
		}
	}
	return true
}

// Contains reports whether other lies entirely inside r.
func (r Rect) Contains(other Rect) bool {
	for i := range r.Min {
		if other.Min[i] < r.Min[i] || other.Max[i] > r.Max[i] {
			return false
		}
	}
	return true
}

// Equal reports whether r and other have identical bounds.
func (r Rect) Equal(other Rect) bool {
	if len(r.Min) != len(other.Min) {
		return false
	}
	for i := range r.Min {
		if r.Min[i] != other.Min[i] || r.Max[i] != other.Max[i] {
			return false
		}
	}
	return true
}

func (r Rect) clone() Rect {
	return Rect{
		Min: append([]float64(nil), r.Min...),
		Max: append([]float64(nil), r.Max...),
	}
}

// extend grows r in place to cover other.
func (r *Rect) extend(other Rect) {
	for i := range r.Min {
		if other.Min[i] < r.Min[i] {
			r.Min[i] = other.Min[i]
		}
		if other.Max[i] > r.Max[i] {
			r.Max[i] = other.Max[i]
		}
	}
}

// growth is the cost of enlarging a rect to cover another.
// Margin breaks ties between degenerate rects whose area is always zero.
type growth struct {
	area, margin float64
}

func enlargement(r, add Rect) growth {
	u := r.Union(add)
	return growth{
		area:   u.Area() - r.Area(),
		margin: u.Margin() - r.Margin(),
	}
}

func (g growth) less(other growth) bool {
	if g.area != other.area {
		return g.area < other.area
	}
	return g.margin < other.margin
}
