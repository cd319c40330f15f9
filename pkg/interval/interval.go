// Package interval provides the closed-interval and sample-time primitives
// that every placement on the mixer's timeline is expressed in.
package interval

import "github.com/rapidaai/mixengine/pkg/fixedpoint"

// Interval is a closed [lo, hi] range on FP64 time, in milliseconds by
// convention. It is the only unit of placement on the timeline.
type Interval struct {
	Lo fixedpoint.FP64
	Hi fixedpoint.FP64
}

func New(lo, hi fixedpoint.FP64) Interval { return Interval{Lo: lo, Hi: hi} }

func FromMillis(lo, hi int64) Interval {
	return Interval{Lo: fixedpoint.FromInt64(lo), Hi: fixedpoint.FromInt64(hi)}
}

// Distance is hi - lo.
func (iv Interval) Distance() fixedpoint.FP64 { return iv.Hi.Sub(iv.Lo) }

// Midpoint is (lo + hi) / 2.
func (iv Interval) Midpoint() fixedpoint.FP64 {
	return iv.Lo.Add(iv.Hi).Div(fixedpoint.FromInt64(2))
}

// IsWithin is inclusive on both ends.
func (iv Interval) IsWithin(t fixedpoint.FP64) bool {
	return iv.Lo.LessEq(t) && t.LessEq(iv.Hi)
}

// IsSeparating holds when the two intervals share no point.
func (iv Interval) IsSeparating(other Interval) bool {
	return other.Lo.Greater(iv.Hi) || iv.Lo.Greater(other.Hi)
}

// IsOverlapping is the negation of IsSeparating.
func (iv Interval) IsOverlapping(other Interval) bool {
	return !iv.IsSeparating(other)
}

// Inverted holds when hi < lo, a malformed interval.
func (iv Interval) Inverted() bool { return iv.Hi.Less(iv.Lo) }

func (iv Interval) Equal(other Interval) bool {
	return iv.Lo.Equal(other.Lo) && iv.Hi.Equal(other.Hi)
}
