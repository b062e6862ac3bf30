package models

import "math"

// Quote is a transient per-instrument market data snapshot. Delta is nil
// until pricing greeks arrive from the venue; implementations that return
// live quote records may populate it after the fact. Quotes are re-requested
// every selection cycle and never persisted.
type Quote struct {
	Instrument *Instrument
	Bid        float64
	Ask        float64
	Last       float64
	Delta      *float64
}

// HasGreeks reports whether model greeks have arrived for this quote.
func (q *Quote) HasGreeks() bool {
	return q.Delta != nil && !math.IsNaN(*q.Delta)
}

// Mid returns the bid/ask midpoint, or NaN if either side is missing.
func (q *Quote) Mid() float64 {
	if q.Bid <= 0 || q.Ask <= 0 {
		return math.NaN()
	}
	return (q.Bid + q.Ask) / 2
}

// MarketPrice returns the best available price estimate: the last trade if
// valid, otherwise the midpoint. Returns NaN when neither is usable.
func (q *Quote) MarketPrice() float64 {
	if q.Last > 0 && !math.IsNaN(q.Last) {
		return q.Last
	}
	return q.Mid()
}
