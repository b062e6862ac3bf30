// Package strategy implements delta-targeted strike selection and vertical
// spread construction.
package strategy

import (
	"errors"
	"math"

	"github.com/pgannon/spreadbot/internal/models"
	"github.com/pgannon/spreadbot/internal/util"
)

// ErrNoGreeksAvailable is returned when every candidate still lacks a delta
// after the greeks polling window.
var ErrNoGreeksAvailable = errors.New("strategy: no candidate has greeks available")

// deltaEpsilon treats delta distances within this tolerance as equal so the
// bid tie-break applies.
const deltaEpsilon = 1e-9

// CandidateStrikes generates count strikes around ref on the strike grid
// defined by inc, ordered nearest to farthest.
//
// For puts the first candidate is ref rounded down to the grid and the rest
// step downward; for calls the first is ref rounded up and the rest step
// upward. An unsupported right yields an empty sequence.
func CandidateStrikes(ref float64, right models.Right, inc float64, count int) []float64 {
	if count <= 0 || inc <= 0 {
		return nil
	}

	var first, step float64
	switch right {
	case models.RightPut:
		first = util.FloorToIncrement(ref, inc)
		step = -inc
	case models.RightCall:
		first = util.CeilToIncrement(ref, inc)
		step = inc
	default:
		return nil
	}

	strikes := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		strikes = append(strikes, first+float64(i)*step)
	}
	return strikes
}

// SelectByDelta picks the quoted candidate whose delta is closest to target.
// Candidates without greeks are excluded; if none remain the selection fails
// with ErrNoGreeksAvailable. Among equal distances the candidate with the
// highest bid wins, maximizing premium captured on the sold leg.
func SelectByDelta(candidates []*models.Quote, target float64) (*models.Quote, error) {
	var best *models.Quote
	bestDist := math.MaxFloat64

	for _, q := range candidates {
		if q == nil || !q.HasGreeks() {
			continue
		}
		dist := math.Abs(*q.Delta - target)
		switch {
		case dist < bestDist-deltaEpsilon:
			best, bestDist = q, dist
		case math.Abs(dist-bestDist) <= deltaEpsilon && best != nil && q.Bid > best.Bid:
			best = q
		}
	}

	if best == nil {
		return nil, ErrNoGreeksAvailable
	}
	return best, nil
}
