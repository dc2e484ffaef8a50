package oracle

// Analysis is the oracle's directional reading for one symbol. Direction is
// empty when the oracle declines to call a side.
type Analysis struct {
	Symbol     string
	Direction  string
	Confidence float64
	Indicators map[string]float64
	Patterns   []string
}

// HasDirection reports whether the reading carries an actionable call.
func (a *Analysis) HasDirection() bool {
	return a != nil && a.Direction != ""
}

// Price returns the spot price embedded in the indicator map.
func (a *Analysis) Price() float64 {
	if a == nil {
		return 0
	}
	return a.Indicators["price"]
}

// IndicatorSet is the lightweight per-tick reading used by the monitor.
type IndicatorSet struct {
	Symbol string
	Price  float64
	RSI    float64
	Values map[string]float64
}
