package typeunit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corinnegroth/federate-core/typeunit"
)

func TestCheckTypeMatchWildcards(t *testing.T) {
	assert.True(t, typeunit.CheckTypeMatch("", "anything", false))
	assert.True(t, typeunit.CheckTypeMatch("double", "double", true))
	assert.True(t, typeunit.CheckTypeMatch("def", "int32", true))
	assert.True(t, typeunit.CheckTypeMatch("any", "string", true))
	assert.True(t, typeunit.CheckTypeMatch("raw", "whatever", true))
}

func TestCheckTypeMatchStrictRejectsMismatch(t *testing.T) {
	assert.False(t, typeunit.CheckTypeMatch("double", "int32", true))
}

func TestCheckTypeMatchNonStrictConvertibleSet(t *testing.T) {
	assert.True(t, typeunit.CheckTypeMatch("double", "int32", false))
	assert.True(t, typeunit.CheckTypeMatch("string", "bool", false))
	assert.False(t, typeunit.CheckTypeMatch("double", "some_custom_type", false))
}

func TestCheckTypeMatchRawSink(t *testing.T) {
	assert.True(t, typeunit.CheckTypeMatch("some_custom_type", "raw", false))
}

func TestCheckTypeMatchSymmetryOnConvertibleSet(t *testing.T) {
	var members = []string{"double", "int32", "string", "bool", "complex"}
	for _, a := range members {
		for _, b := range members {
			assert.Equal(t, typeunit.CheckTypeMatch(a, b, false), typeunit.CheckTypeMatch(b, a, false),
				"match(%s,%s) should equal match(%s,%s)", a, b, b, a)
		}
	}
}

func TestCheckUnitMatchWildcards(t *testing.T) {
	assert.True(t, typeunit.CheckUnitMatch("", "m", false))
	assert.True(t, typeunit.CheckUnitMatch("m", "m", true))
	assert.True(t, typeunit.CheckUnitMatch("def", "kg", true))
	assert.True(t, typeunit.CheckUnitMatch("any", "s", true))
}

func TestCheckUnitMatchConvertible(t *testing.T) {
	assert.True(t, typeunit.CheckUnitMatch("m", "cm", false))
	assert.True(t, typeunit.CheckUnitMatch("kg", "g", false))
	assert.False(t, typeunit.CheckUnitMatch("m", "s", false))
}

func TestCheckUnitMatchStrictRequiresExactScale(t *testing.T) {
	assert.True(t, typeunit.CheckUnitMatch("m", "m", true))
	assert.False(t, typeunit.CheckUnitMatch("m", "cm", true))
}

func TestCheckUnitMatchUnknownUnitFails(t *testing.T) {
	assert.False(t, typeunit.CheckUnitMatch("frobnicate", "m", false))
}

func TestParseUnitPrefixedAndCompound(t *testing.T) {
	_, ok := typeunit.ParseUnit("km")
	assert.True(t, ok)
	_, ok = typeunit.ParseUnit("m/s")
	assert.True(t, ok)
	_, ok = typeunit.ParseUnit("notaunit")
	assert.False(t, ok)
}
