package models

import (
	"fmt"
	"time"
)

// FillState represents the lifecycle state of one order's fill progression.
type FillState string

const (
	// FillIdle means no order has been placed yet.
	FillIdle FillState = "idle"
	// FillSubmitted means a limit order is working at the current price.
	FillSubmitted FillState = "submitted"
	// FillAdjusting means the limit price is being moved toward the market.
	FillAdjusting FillState = "adjusting"
	// FillFilled means the order executed completely.
	FillFilled FillState = "filled"
	// FillCancelled means the venue cancelled the order before filling.
	FillCancelled FillState = "cancelled"
	// FillExhausted means all attempts were spent and the order was
	// actively cancelled.
	FillExhausted FillState = "exhausted"
)

// Transition conditions.
const (
	CondOrderPlaced       = "order_placed"
	CondOrderFilled       = "order_filled"
	CondOrderCancelled    = "order_cancelled"
	CondPriceAdjusted     = "price_adjusted"
	CondOrderResubmitted  = "order_resubmitted"
	CondAttemptsExhausted = "attempts_exhausted"
)

// FillTransition defines one valid fill state transition.
type FillTransition struct {
	From        FillState
	To          FillState
	Condition   string
	Description string
}

// ValidFillTransitions enumerates the fill progression state machine.
var ValidFillTransitions = []FillTransition{
	{FillIdle, FillSubmitted, CondOrderPlaced, "Initial limit order placed"},
	{FillSubmitted, FillFilled, CondOrderFilled, "Order filled"},
	{FillSubmitted, FillCancelled, CondOrderCancelled, "Order cancelled by venue"},
	{FillSubmitted, FillAdjusting, CondPriceAdjusted, "Limit moved toward the market"},
	{FillAdjusting, FillSubmitted, CondOrderResubmitted, "Order working at adjusted price"},
	{FillSubmitted, FillExhausted, CondAttemptsExhausted, "Attempts spent, order cancelled"},
}

// FillMachine tracks and validates one order's fill progression. A machine
// governs exactly one order; create a fresh one per placement.
type FillMachine struct {
	currentState    FillState
	previousState   FillState
	transitionTime  time.Time
	transitionCount map[FillState]int
}

// NewFillMachine creates a fill machine in the idle state.
func NewFillMachine() *FillMachine {
	return &FillMachine{
		currentState:    FillIdle,
		previousState:   FillIdle,
		transitionTime:  time.Now().UTC(),
		transitionCount: make(map[FillState]int),
	}
}

// Current returns the current state.
func (m *FillMachine) Current() FillState {
	return m.currentState
}

// Previous returns the state before the last transition.
func (m *FillMachine) Previous() FillState {
	return m.previousState
}

// Terminal reports whether the machine reached a final state.
func (m *FillMachine) Terminal() bool {
	switch m.currentState {
	case FillFilled, FillCancelled, FillExhausted:
		return true
	default:
		return false
	}
}

// AdjustmentCount returns how many price adjustments have occurred.
func (m *FillMachine) AdjustmentCount() int {
	return m.transitionCount[FillAdjusting]
}

// Transition moves to a new state, validating against ValidFillTransitions.
func (m *FillMachine) Transition(to FillState, condition string) error {
	if !m.isDefined(to, condition) {
		return fmt.Errorf("invalid fill transition from %s to %s with condition %q",
			m.currentState, to, condition)
	}

	m.previousState = m.currentState
	m.currentState = to
	m.transitionTime = time.Now().UTC()
	m.transitionCount[to]++
	return nil
}

func (m *FillMachine) isDefined(to FillState, condition string) bool {
	for _, t := range ValidFillTransitions {
		if t.From == m.currentState && t.To == to && t.Condition == condition {
			return true
		}
	}
	return false
}
