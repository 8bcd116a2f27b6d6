// Package layout computes node positions by iterative force relaxation: overlapping rectangles repel
// each other, value flows pull a funding transaction to the left of its spender.
package layout

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Rect is an axis aligned box given by its centre and size.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

func (r Rect) Center() Vec2 {
	return Vec2{X: r.X, Y: r.Y}
}

func (r Rect) Left() float64   { return r.X - r.W/2 }
func (r Rect) Right() float64  { return r.X + r.W/2 }
func (r Rect) Top() float64    { return r.Y - r.H/2 }
func (r Rect) Bottom() float64 { return r.Y + r.H/2 }

func (r Rect) Translate(v Vec2) Rect {
	r.X += v.X
	r.Y += v.Y

	return r
}

// Overlaps reports whether r and o share interior area.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left() < o.Right() && o.Left() < r.Right() && r.Top() < o.Bottom() && o.Top() < r.Bottom()
}

// ClearSpacing is the edge to edge gap between r and o: the larger of the horizontal and vertical
// gaps, floored at MinClearSpacing.
func (r Rect) ClearSpacing(o Rect) float64 {
	gapX := math.Abs(r.X-o.X) - (r.W+o.W)/2
	gapY := math.Abs(r.Y-o.Y) - (r.H+o.H)/2

	return math.Max(math.Max(gapX, gapY), MinClearSpacing)
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.1f,%.1f %.1fx%.1f]", r.X, r.Y, r.W, r.H)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
