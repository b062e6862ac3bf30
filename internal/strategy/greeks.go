package strategy

import (
	"context"
	"time"

	"github.com/pgannon/spreadbot/internal/models"
)

// DefaultGreeksPoll is the interval between greeks availability checks.
const DefaultGreeksPoll = 50 * time.Millisecond

// WaitForGreeks polls the quotes until every one carries a delta or the
// timeout elapses. Returns true as soon as all greeks are present and false
// on timeout or context cancellation; a false return is not an error by
// itself, only a hint that selection may fail for missing deltas.
func WaitForGreeks(ctx context.Context, quotes []*models.Quote, timeout, poll time.Duration) bool {
	if poll <= 0 {
		poll = DefaultGreeksPoll
	}
	deadline := time.Now().Add(timeout)

	for {
		if allHaveGreeks(quotes) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(poll):
		}
	}
}

func allHaveGreeks(quotes []*models.Quote) bool {
	for _, q := range quotes {
		if q == nil || !q.HasGreeks() {
			return false
		}
	}
	return len(quotes) > 0
}
