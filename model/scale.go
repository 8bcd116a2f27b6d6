package model

import "math"

// MinNodeHeight is the smallest height SizeScale returns.
const MinNodeHeight = 10.0

// SizeScale maps a satoshi amount onto a display height by fitting y = a*x^b through (X1, Y1) and (X2, Y2).
type SizeScale struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

func DefaultSizeScale() SizeScale {
	return SizeScale{X1: 1_000_000, Y1: 30, X2: 10_000_000_000_000, Y2: 500}
}

func (s SizeScale) Apply(sats uint64) float64 {
	if s.X1 <= 0 || s.X2 <= 0 || s.X1 == s.X2 || s.Y1 <= 0 || s.Y2 <= 0 {
		return MinNodeHeight
	}

	b := -math.Log(s.Y2/s.Y1) / (math.Log(s.X1) - math.Log(s.X2))
	a := s.Y1 / math.Pow(s.X1, b)

	return math.Max(a*math.Pow(float64(sats), b), MinNodeHeight)
}
