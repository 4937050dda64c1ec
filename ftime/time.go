// Package ftime implements the fixed-point simulated time used to
// coordinate federates. A Time is a count of nanosecond ticks; it is
// totally ordered and carries a handful of sentinel values that the
// federate core and its collaborators compare against directly rather
// than through a tolerance.
package ftime

import "math"

// Time is a fixed-point simulated timestamp, in nanosecond ticks.
type Time int64

const (
	// Zero is the start of simulated time.
	Zero Time = 0
	// Epsilon is the smallest representable positive duration.
	Epsilon Time = 1
	// Initial is the instant a federate's granted time holds between
	// CREATED and the first executing-state grant: one epsilon before Zero.
	Initial Time = Zero - Epsilon
	// MaxVal is larger than any meaningful simulated time.
	MaxVal Time = math.MaxInt64
	// MinVal is smaller than any meaningful simulated time.
	MinVal Time = math.MinInt64
)

// FromSeconds converts a floating point second count to a Time, truncating
// to nanosecond resolution.
func FromSeconds(seconds float64) Time {
	return Time(seconds * 1e9)
}

// Seconds returns t as a floating point second count.
func (t Time) Seconds() float64 {
	return float64(t) / 1e9
}

// NormalizeDelta coerces a non-positive timeDelta to Epsilon, per the
// federate configuration contract: a zero or negative step size is
// never actionable and is silently replaced rather than rejected.
func NormalizeDelta(delta Time) Time {
	if delta <= Zero {
		return Epsilon
	}
	return delta
}

// Min returns the lesser of a and b.
func Min(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}

// Max returns the greater of a and b.
func Max(a, b Time) Time {
	if a > b {
		return a
	}
	return b
}
