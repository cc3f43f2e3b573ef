// Package units tags scalar values with the scale they are expressed in.
//
// The baseline series arrives in percent (3.10 means 3.10%) while forecast
// tables carry fractions (0.031). Conversions go through decimal arithmetic so
// 3.10% becomes exactly the float64 nearest to 0.031.
package units

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent is a value on a 0-100 scale.
type Percent float64

// Fraction is a value on a 0-1 scale.
type Fraction float64

// Fraction converts p to the 0-1 scale.
func (p Percent) Fraction() Fraction {
	if !finite(float64(p)) {
		return Fraction(float64(p) / 100)
	}
	return Fraction(decimal.NewFromFloat(float64(p)).Div(hundred).InexactFloat64())
}

// Float64 returns the bare value.
func (p Percent) Float64() float64 { return float64(p) }

func (p Percent) String() string {
	return strconv.FormatFloat(float64(p), 'f', -1, 64) + "%"
}

// Percent converts f to the 0-100 scale.
func (f Fraction) Percent() Percent {
	if !finite(float64(f)) {
		return Percent(float64(f) * 100)
	}
	return Percent(decimal.NewFromFloat(float64(f)).Mul(hundred).InexactFloat64())
}

// Float64 returns the bare value.
func (f Fraction) Float64() float64 { return float64(f) }

func (f Fraction) String() string {
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

// decimal.NewFromFloat panics on NaN and Inf.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
