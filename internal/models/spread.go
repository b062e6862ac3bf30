package models

import "fmt"

// SpreadKind says whether opening the spread receives or pays net premium.
type SpreadKind string

const (
	// SpreadCredit receives net premium at open.
	SpreadCredit SpreadKind = "credit"
	// SpreadDebit pays net premium at open.
	SpreadDebit SpreadKind = "debit"
)

// VerticalSpec is the immutable configuration for vertical spread
// construction: which delta to hunt for, how wide the spread is, and how the
// strike grid around spot is scanned.
type VerticalSpec struct {
	// TargetDelta is signed: e.g. -0.15 for puts, 0.15 for calls.
	TargetDelta float64
	// Width is the fixed point distance between short and long strikes.
	Width float64
	// ShortDTE and LongDTE are calendar days to expiry per leg (0 = same day).
	ShortDTE int
	LongDTE  int
	// Increment is the strike grid step.
	Increment float64
	// StrikesDown is the number of candidate strikes scanned away from spot.
	StrikesDown int
}

// Validate checks the spec invariants.
func (s VerticalSpec) Validate() error {
	if s.Width <= 0 {
		return fmt.Errorf("vertical spec: width must be > 0, got %.2f", s.Width)
	}
	if s.StrikesDown < 1 {
		return fmt.Errorf("vertical spec: strikes_down must be >= 1, got %d", s.StrikesDown)
	}
	if s.Increment <= 0 {
		return fmt.Errorf("vertical spec: increment must be > 0, got %.2f", s.Increment)
	}
	if s.ShortDTE < 0 || s.LongDTE < 0 {
		return fmt.Errorf("vertical spec: dte values must be >= 0")
	}
	return nil
}
