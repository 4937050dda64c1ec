// Package typeunit implements the type- and unit-compatibility checks
// used when a federate wires a subscription to a publication or an
// endpoint to a filter. It is grounded directly on
// helics::checkTypeMatch and helics::checkUnitMatch from
// original_source/src/helics/core/InputInfo.cpp: the same convertible
// type set, the same empty/def/any/raw short-circuits, and an
// equivalent strict-vs-loose distinction for units. No example
// repository in the retrieval pack ships a physical-units parser, so
// the unit side is a small internal SI table rather than a third-party
// dimensional-analysis dependency (see DESIGN.md).
package typeunit

// convertibleTypes mirrors InputInfo.cpp's convertible_set: value types
// that can be losslessly or approximately converted into one another
// under a non-strict match.
var convertibleTypes = map[string]bool{
	"double_vector":  true,
	"complex_vector": true,
	"vector":         true,
	"double":         true,
	"float":          true,
	"bool":           true,
	"char":           true,
	"uchar":          true,
	"int32":          true,
	"int64":          true,
	"uint32":         true,
	"uint64":         true,
	"int16":          true,
	"string":         true,
	"complex":        true,
	"complex_f":      true,
	"named_point":    true,
}

// CheckTypeMatch reports whether type1 (the declared type of the
// reader/sink) and type2 (the declared type of the writer/source) are
// compatible. strictMatch requires byte-identical types once the
// universal wildcards are ruled out; non-strict additionally allows any
// two types in convertibleTypes to match each other, and lets "raw"
// serve as a universal sink.
func CheckTypeMatch(type1, type2 string, strictMatch bool) bool {
	if type1 == "" || type1 == type2 || type1 == "def" || type1 == "any" || type1 == "raw" {
		return true
	}
	if strictMatch {
		return false
	}
	if type2 == "" || type2 == "def" || type2 == "any" {
		return true
	}
	if convertibleTypes[type1] {
		return convertibleTypes[type2]
	}
	return type2 == "raw"
}

// CheckUnitMatch reports whether unit1 and unit2 are compatible. Empty,
// equal, "def", and "any" trivially match. Otherwise both strings must
// parse as units: strictMatch requires they be equal after a fast unit
// conversion (i.e. the same dimension and scale), while non-strict
// accepts any dimensionally convertible pair.
func CheckUnitMatch(unit1, unit2 string, strictMatch bool) bool {
	if unit1 == "" || unit1 == unit2 || unit1 == "def" || unit1 == "any" {
		return true
	}
	if unit2 == "" || unit2 == "def" || unit2 == "any" {
		return true
	}
	u1, ok1 := ParseUnit(unit1)
	u2, ok2 := ParseUnit(unit2)
	if !ok1 || !ok2 {
		return false
	}
	if strictMatch {
		_, ok := quickConvert(u1, u2)
		return ok
	}
	_, ok := convert(u1, u2)
	return ok
}

// Unit is a parsed physical unit: a dimension vector over the SI base
// units, plus the multiplicative scale (relative to the unprefixed,
// unscaled base unit) a prefix like "k" or "m" contributes.
type Unit struct {
	dims  [7]int8 // [length, mass, time, current, temperature, amount, luminosity]
	scale float64
}

const (
	dimLength = iota
	dimMass
	dimTime
	dimCurrent
	dimTemperature
	dimAmount
	dimLuminosity
)

// axisExp pairs a dimension axis with its exponent, used to build a
// Unit's dimension vector declaratively in baseUnits below.
type axisExp struct {
	axis int
	exp  int8
}

func dimVec(pairs ...axisExp) [7]int8 {
	var d [7]int8
	for _, p := range pairs {
		d[p.axis] = p.exp
	}
	return d
}

// baseUnits maps a bare (unprefixed) unit symbol to its dimension
// vector and intrinsic scale relative to SI base units. Derived units
// are expressed in terms of the seven SI base dimensions.
var baseUnits = map[string]Unit{
	"m":   {dims: dimVec(axisExp{dimLength, 1}), scale: 1},
	"s":   {dims: dimVec(axisExp{dimTime, 1}), scale: 1},
	"kg":  {dims: dimVec(axisExp{dimMass, 1}), scale: 1},
	"g":   {dims: dimVec(axisExp{dimMass, 1}), scale: 1e-3},
	"A":   {dims: dimVec(axisExp{dimCurrent, 1}), scale: 1},
	"K":   {dims: dimVec(axisExp{dimTemperature, 1}), scale: 1},
	"mol": {dims: dimVec(axisExp{dimAmount, 1}), scale: 1},
	"cd":  {dims: dimVec(axisExp{dimLuminosity, 1}), scale: 1},
	"Hz":  {dims: dimVec(axisExp{dimTime, -1}), scale: 1},
	"N":   {dims: dimVec(axisExp{dimMass, 1}, axisExp{dimLength, 1}, axisExp{dimTime, -2}), scale: 1},
	"Pa":  {dims: dimVec(axisExp{dimMass, 1}, axisExp{dimLength, -1}, axisExp{dimTime, -2}), scale: 1},
	"W":   {dims: dimVec(axisExp{dimMass, 1}, axisExp{dimLength, 2}, axisExp{dimTime, -3}), scale: 1},
	"V":   {dims: dimVec(axisExp{dimMass, 1}, axisExp{dimLength, 2}, axisExp{dimTime, -3}, axisExp{dimCurrent, -1}), scale: 1},
	"Ohm": {dims: dimVec(axisExp{dimMass, 1}, axisExp{dimLength, 2}, axisExp{dimTime, -3}, axisExp{dimCurrent, -2}), scale: 1},
}

// siPrefixes maps a single-letter SI prefix to its multiplicative factor.
var siPrefixes = map[byte]float64{
	'm': 1e-3,
	'c': 1e-2,
	'k': 1e3,
	'M': 1e6,
	'u': 1e-6,
}

// ParseUnit parses a unit string such as "m", "km", "m/s" (recognized
// literally, since HELICS unit strings for rates are written out
// rather than composed at parse time) into a Unit. ok is false if the
// string does not name a known unit.
func ParseUnit(s string) (Unit, bool) {
	if u, ok := baseUnits[s]; ok {
		return u, true
	}
	if u, ok := compoundUnits[s]; ok {
		return u, true
	}
	if len(s) >= 2 {
		if factor, ok := siPrefixes[s[0]]; ok {
			if u, ok := baseUnits[s[1:]]; ok {
				return Unit{dims: u.dims, scale: u.scale * factor}, true
			}
		}
	}
	return Unit{}, false
}

// compoundUnits lists the handful of named rate/velocity units HELICS
// models commonly use that this table doesn't derive automatically.
var compoundUnits = map[string]Unit{
	"m/s":   {dims: dimVec(axisExp{dimLength, 1}, axisExp{dimTime, -1}), scale: 1},
	"m/s^2": {dims: dimVec(axisExp{dimLength, 1}, axisExp{dimTime, -2}), scale: 1},
}

// sameDimension reports whether a and b measure the same physical
// quantity (their dimension vectors match).
func sameDimension(a, b Unit) bool {
	return a.dims == b.dims
}

// convert returns the multiplicative factor to go from a Unit a to b,
// and whether they're dimensionally convertible at all.
func convert(a, b Unit) (float64, bool) {
	if !sameDimension(a, b) {
		return 0, false
	}
	return a.scale / b.scale, true
}

// quickConvert is convert restricted to unit pairs that are exactly
// equal once scale is folded in — HELICS' "strict" match requires the
// reader accept the writer's unit without any runtime scaling.
func quickConvert(a, b Unit) (float64, bool) {
	factor, ok := convert(a, b)
	if !ok || factor != 1 {
		return 0, false
	}
	return 1, true
}
