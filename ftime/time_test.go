package ftime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corinnegroth/federate-core/ftime"
)

func TestSentinelOrdering(t *testing.T) {
	assert.True(t, ftime.MinVal < ftime.Initial)
	assert.True(t, ftime.Initial < ftime.Zero)
	assert.True(t, ftime.Zero < ftime.Epsilon)
	assert.True(t, ftime.Epsilon < ftime.MaxVal)
	assert.Equal(t, ftime.Zero-ftime.Epsilon, ftime.Initial)
}

func TestNormalizeDelta(t *testing.T) {
	assert.Equal(t, ftime.Epsilon, ftime.NormalizeDelta(0))
	assert.Equal(t, ftime.Epsilon, ftime.NormalizeDelta(-5))
	assert.Equal(t, ftime.Time(42), ftime.NormalizeDelta(42))
}

func TestFromSecondsRoundTrip(t *testing.T) {
	var t1 = ftime.FromSeconds(1.5)
	assert.InDelta(t, 1.5, t1.Seconds(), 1e-9)
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, ftime.Time(1), ftime.Min(1, 2))
	assert.Equal(t, ftime.Time(2), ftime.Max(1, 2))
}
