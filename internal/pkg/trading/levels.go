package trading

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	decOne     = decimal.NewFromInt(1)
	decHundred = decimal.NewFromInt(100)
)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

func isShort(side string) bool {
	return strings.EqualFold(strings.TrimSpace(side), "short")
}

// RelativeLevel computes entry shifted by pct percent in the favorable
// direction of side (up for long, down for short).
func RelativeLevel(entry, pct float64, side string) float64 {
	if entry <= 0 {
		return 0
	}
	pctDec := decFromFloat(pct).Div(decHundred)
	var factor decimal.Decimal
	if isShort(side) {
		factor = decOne.Sub(pctDec)
	} else {
		factor = decOne.Add(pctDec)
	}
	return decToFloat(decFromFloat(entry).Mul(factor))
}

// AdverseLevel computes entry shifted by pct percent against the trade
// direction (down for long, up for short). Used for stop-loss placement.
func AdverseLevel(entry, pct float64, side string) float64 {
	if isShort(side) {
		return RelativeLevel(entry, pct, "long")
	}
	return RelativeLevel(entry, pct, "short")
}

// TargetReached reports whether price has reached or passed target in the
// favorable direction.
func TargetReached(side string, price, target float64) bool {
	if price <= 0 || target <= 0 {
		return false
	}
	cmp := decFromFloat(price).Cmp(decFromFloat(target))
	if isShort(side) {
		return cmp <= 0
	}
	return cmp >= 0
}

// StopBreached reports whether price has reached or passed stop on the loss
// side.
func StopBreached(side string, price, stop float64) bool {
	if price <= 0 || stop <= 0 {
		return false
	}
	cmp := decFromFloat(price).Cmp(decFromFloat(stop))
	if isShort(side) {
		return cmp >= 0
	}
	return cmp <= 0
}

// ProfitPercent computes the signed percentage move between entry and exit for
// the given side.
func ProfitPercent(side string, entry, exit float64) float64 {
	if entry <= 0 {
		return 0
	}
	entryDec := decFromFloat(entry)
	diff := decFromFloat(exit).Sub(entryDec)
	if isShort(side) {
		diff = diff.Neg()
	}
	return decToFloat(diff.Div(entryDec).Mul(decHundred))
}
