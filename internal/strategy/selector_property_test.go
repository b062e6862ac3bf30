package strategy

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/pgannon/spreadbot/internal/models"
)

// onGrid reports whether strike is a whole multiple of inc, up to float noise.
func onGrid(strike, inc float64) bool {
	ratio := strike / inc
	return math.Abs(ratio-math.Round(ratio)) < 1e-6
}

func TestCandidateStrikes_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	refGen := gen.Float64Range(10, 5000)
	incGen := gen.OneConstOf(0.5, 1.0, 2.5, 5.0)
	countGen := gen.IntRange(1, 12)

	properties.Property("put candidates descend the grid from at or below spot", prop.ForAll(
		func(ref, inc float64, count int) bool {
			strikes := CandidateStrikes(ref, models.RightPut, inc, count)
			if len(strikes) != count {
				return false
			}
			for i, s := range strikes {
				if s > ref+1e-6 || !onGrid(s, inc) {
					return false
				}
				if i > 0 && math.Abs(strikes[i-1]-s-inc) > 1e-6 {
					return false
				}
			}
			return true
		},
		refGen, incGen, countGen,
	))

	properties.Property("call candidates ascend the grid from at or above spot", prop.ForAll(
		func(ref, inc float64, count int) bool {
			strikes := CandidateStrikes(ref, models.RightCall, inc, count)
			if len(strikes) != count {
				return false
			}
			for i, s := range strikes {
				if s < ref-1e-6 || !onGrid(s, inc) {
					return false
				}
				if i > 0 && math.Abs(s-strikes[i-1]-inc) > 1e-6 {
					return false
				}
			}
			return true
		},
		refGen, incGen, countGen,
	))

	properties.TestingRun(t)
}
