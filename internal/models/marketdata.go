package models

import "fmt"

// MarketDataMode selects which data feed the venue serves quotes from.
type MarketDataMode int

const (
	// ModeLive streams real-time quotes.
	ModeLive MarketDataMode = 1
	// ModeFrozen serves the last recorded quotes from the previous session.
	ModeFrozen MarketDataMode = 2
	// ModeDelayed streams quotes with the exchange-mandated delay.
	ModeDelayed MarketDataMode = 3
	// ModeDelayedFrozen serves delayed frozen quotes.
	ModeDelayedFrozen MarketDataMode = 4
)

// String implements fmt.Stringer.
func (m MarketDataMode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeFrozen:
		return "frozen"
	case ModeDelayed:
		return "delayed"
	case ModeDelayedFrozen:
		return "delayed-frozen"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}
