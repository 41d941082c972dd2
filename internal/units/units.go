// Package units converts weight, distance and length values between the
// normalized storage units (kg, km, cm) and user-selected display units.
// All conversions are pure multiplications by fixed factors.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// WeightUnit is a supported weight display unit.
type WeightUnit string

// DistanceUnit is a supported distance display unit.
type DistanceUnit string

// LengthUnit is a supported length display unit.
type LengthUnit string

const (
	Kilograms WeightUnit = "kg"
	Pounds    WeightUnit = "lbs"

	Kilometers DistanceUnit = "km"
	Miles      DistanceUnit = "mi"

	Centimeters LengthUnit = "cm"
	Inches      LengthUnit = "in"
	Feet        LengthUnit = "ft"
)

// Factors from one normalized unit to each display unit.
const (
	kgToLbs = 2.2046226218
	kmToMi  = 0.6213711922
	cmToIn  = 0.3937007874
	cmToFt  = 0.0328083990
)

// weightFactors maps each weight unit to its factor from kg.
var weightFactors = map[WeightUnit]float64{
	Kilograms: 1,
	Pounds:    kgToLbs,
}

var distanceFactors = map[DistanceUnit]float64{
	Kilometers: 1,
	Miles:      kmToMi,
}

var lengthFactors = map[LengthUnit]float64{
	Centimeters: 1,
	Inches:      cmToIn,
	Feet:        cmToFt,
}

// DisplayWeight converts a kg value into the given display unit.
func DisplayWeight(kg float64, unit WeightUnit) float64 {
	return kg * factorOrOne(weightFactors, unit)
}

// StoreWeight converts a display-unit value back into kg.
func StoreWeight(value float64, unit WeightUnit) float64 {
	return value / factorOrOne(weightFactors, unit)
}

// DisplayDistance converts a km value into the given display unit.
func DisplayDistance(km float64, unit DistanceUnit) float64 {
	return km * factorOrOne(distanceFactors, unit)
}

// StoreDistance converts a display-unit value back into km.
func StoreDistance(value float64, unit DistanceUnit) float64 {
	return value / factorOrOne(distanceFactors, unit)
}

// DisplayLength converts a cm value into the given display unit.
func DisplayLength(cm float64, unit LengthUnit) float64 {
	return cm * factorOrOne(lengthFactors, unit)
}

// StoreLength converts a display-unit value back into cm.
func StoreLength(value float64, unit LengthUnit) float64 {
	return value / factorOrOne(lengthFactors, unit)
}

func factorOrOne[U comparable](factors map[U]float64, unit U) float64 {
	if f, ok := factors[unit]; ok {
		return f
	}
	// Unknown unit: treat as already normalized rather than corrupting the value.
	return 1
}

// FormatWeight renders a value with the given decimal count and unit label,
// e.g. FormatWeight(102.5, Kilograms, 1) == "102.5 kg".
func FormatWeight(value float64, unit WeightUnit, decimals int) string {
	return fmt.Sprintf("%.*f %s", decimals, value, unit)
}

// FormatDistance renders a distance value with its unit label.
func FormatDistance(value float64, unit DistanceUnit, decimals int) string {
	return fmt.Sprintf("%.*f %s", decimals, value, unit)
}

// FormatLength renders a length value with its unit label.
func FormatLength(value float64, unit LengthUnit, decimals int) string {
	return fmt.Sprintf("%.*f %s", decimals, value, unit)
}

// ParseWeight parses a user-entered weight string. An embedded unit suffix
// ("kg", "lbs" or "lb", case-insensitive) overrides the fallback unit; a bare
// number uses the fallback. Returns the numeric value and the unit it is
// expressed in.
func ParseWeight(s string, fallback WeightUnit) (float64, WeightUnit, error) {
	trimmed := strings.TrimSpace(s)
	unit := fallback

	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasSuffix(lower, "lbs"):
		unit = Pounds
		trimmed = trimmed[:len(trimmed)-3]
	case strings.HasSuffix(lower, "lb"):
		unit = Pounds
		trimmed = trimmed[:len(trimmed)-2]
	case strings.HasSuffix(lower, "kg"):
		unit = Kilograms
		trimmed = trimmed[:len(trimmed)-2]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
	if err != nil {
		return 0, fallback, fmt.Errorf("parsing weight %q: %w", s, err)
	}
	return value, unit, nil
}

// ParseWeightUnit validates a stored unit-preference string, defaulting to kg.
func ParseWeightUnit(s string) WeightUnit {
	switch WeightUnit(strings.ToLower(s)) {
	case Pounds:
		return Pounds
	default:
		return Kilograms
	}
}
