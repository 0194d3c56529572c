package timeline

import (
	"fmt"
	"math"
)

const (
	// MinRangeWidth is the narrowest range, in seconds, that counts as a selection
	MinRangeWidth = 0.1

	// DefaultTrimWindow caps the initial trim range of a freshly loaded asset
	DefaultTrimWindow = 30.0

	// widthTolerance absorbs float error when an edge was clamped to exactly eps away
	widthTolerance = 1e-9
)

// Range is a [Start, End) interval in seconds over an asset's duration.
// An optional range is carried as *Range, nil meaning "no selection".
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Normalize orders two bounds so the result does not depend on click order
func Normalize(a, b float64) (start, end float64) {
	if a > b {
		return b, a
	}
	return a, b
}

// NewRange builds a normalized range from two raw bounds
func NewRange(a, b float64) Range {
	start, end := Normalize(a, b)
	return Range{Start: start, End: end}
}

// ClampToDuration clamps both bounds into [0, d]. It returns nil when r is
// nil or when clamping leaves nothing (start >= end).
func ClampToDuration(r *Range, d float64) *Range {
	if r == nil || !finite(d) {
		return nil
	}
	start := clamp(r.Start, 0, d)
	end := clamp(r.End, 0, d)
	if start >= end {
		return nil
	}
	return &Range{Start: start, End: end}
}

// IsValid reports whether r is defined and wider than eps
func IsValid(r *Range, eps float64) bool {
	return r != nil && r.End-r.Start > eps
}

// Width returns End - Start
func (r Range) Width() float64 {
	return r.End - r.Start
}

// Contains reports whether t lies inside the closed interval [Start, End]
func (r Range) Contains(t float64) bool {
	return t >= r.Start && t <= r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%.3fs, %.3fs)", r.Start, r.End)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func percent(t, d float64) float64 {
	if d <= 0 {
		return 0
	}
	return t / d * 100
}
