// Package fuelcalc computes compliance units from the carbon-intensity
// inputs of a single report line item. All arithmetic is fixed-precision
// decimal; the only rounding step is the final half-up round to five
// decimal places, so results are reproducible bit for bit.
package fuelcalc

import "github.com/shopspring/decimal"

// Scale is the decimal scale of the final rounding step.
const Scale = 5

// LegacyCutoffYear is the first compliance period computed with the
// current formula. Periods before it omit the UCI term.
const LegacyCutoffYear = 2024

var oneMillion = decimal.NewFromInt(1_000_000)

// Inputs to the kernel. UCI may be zero-valued when the record does not
// provide one.
type Inputs struct {
	TCI           decimal.Decimal // target carbon intensity, gCO2e/MJ
	EER           decimal.Decimal // energy effectiveness ratio
	RCI           decimal.Decimal // recorded carbon intensity, gCO2e/MJ
	UCI           decimal.Decimal // additional CI attributable to use
	Quantity      decimal.Decimal // fuel quantity in its native units
	EnergyDensity decimal.Decimal // MJ per native unit
}

// UsesLegacyFormula reports whether the given compliance period is
// computed with the pre-2024 formula.
func UsesLegacyFormula(compliancePeriod int) bool {
	return compliancePeriod < LegacyCutoffYear
}

// ComplianceUnits computes
//
//	round5((TCI*EER - (RCI+UCI)) * (Q*ED / 1_000_000))
//
// selecting the legacy variant (no UCI) for periods before 2024.
func ComplianceUnits(compliancePeriod int, in Inputs) decimal.Decimal {
	ci := in.RCI
	if !UsesLegacyFormula(compliancePeriod) {
		ci = ci.Add(in.UCI)
	}
	energy := in.Quantity.Mul(in.EnergyDensity).Div(oneMillion)
	return in.TCI.Mul(in.EER).Sub(ci).Mul(energy).Round(Scale)
}

// QuantityForUnits solves the formula for Q given a target number of
// units. Used when editing quarterly early-issuance records where the
// user enters units directly. Returns zero when the CI difference or the
// energy density is zero (no quantity can produce the units).
func QuantityForUnits(compliancePeriod int, units decimal.Decimal, in Inputs) decimal.Decimal {
	ci := in.RCI
	if !UsesLegacyFormula(compliancePeriod) {
		ci = ci.Add(in.UCI)
	}
	diff := in.TCI.Mul(in.EER).Sub(ci)
	if diff.IsZero() || in.EnergyDensity.IsZero() {
		return decimal.Zero
	}
	return units.Mul(oneMillion).Div(diff).Div(in.EnergyDensity).Round(Scale)
}
