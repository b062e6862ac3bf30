package models

import "testing"

func TestFillMachine_BasicLifecycle(t *testing.T) {
	m := NewFillMachine()

	if m.Current() != FillIdle {
		t.Errorf("Initial state should be FillIdle, got %s", m.Current())
	}

	if err := m.Transition(FillSubmitted, CondOrderPlaced); err != nil {
		t.Fatalf("Valid transition failed: %v", err)
	}
	if m.Current() != FillSubmitted {
		t.Errorf("State should be FillSubmitted, got %s", m.Current())
	}
	if m.Previous() != FillIdle {
		t.Errorf("Previous state should be FillIdle, got %s", m.Previous())
	}

	if err := m.Transition(FillFilled, CondOrderFilled); err != nil {
		t.Fatalf("Fill transition failed: %v", err)
	}
	if !m.Terminal() {
		t.Error("Filled machine should be terminal")
	}
}

func TestFillMachine_InvalidTransitions(t *testing.T) {
	m := NewFillMachine()

	// Cannot fill an order that was never placed.
	if err := m.Transition(FillFilled, CondOrderFilled); err == nil {
		t.Error("Invalid transition should fail")
	}
	if m.Current() != FillIdle {
		t.Errorf("State should remain FillIdle after failed transition, got %s", m.Current())
	}

	// Condition must match the defined transition.
	if err := m.Transition(FillSubmitted, "wrong_condition"); err == nil {
		t.Error("Transition with wrong condition should fail")
	}
}

func TestFillMachine_AdjustmentCycles(t *testing.T) {
	m := NewFillMachine()

	if err := m.Transition(FillSubmitted, CondOrderPlaced); err != nil {
		t.Fatalf("Place transition failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := m.Transition(FillAdjusting, CondPriceAdjusted); err != nil {
			t.Fatalf("Adjust transition %d failed: %v", i+1, err)
		}
		if err := m.Transition(FillSubmitted, CondOrderResubmitted); err != nil {
			t.Fatalf("Resubmit transition %d failed: %v", i+1, err)
		}
	}

	if got := m.AdjustmentCount(); got != 3 {
		t.Errorf("AdjustmentCount = %d, want 3", got)
	}

	if err := m.Transition(FillExhausted, CondAttemptsExhausted); err != nil {
		t.Fatalf("Exhaust transition failed: %v", err)
	}
	if !m.Terminal() {
		t.Error("Exhausted machine should be terminal")
	}
}

func TestFillMachine_CancelledByVenue(t *testing.T) {
	m := NewFillMachine()

	if err := m.Transition(FillSubmitted, CondOrderPlaced); err != nil {
		t.Fatalf("Place transition failed: %v", err)
	}
	if err := m.Transition(FillCancelled, CondOrderCancelled); err != nil {
		t.Fatalf("Cancel transition failed: %v", err)
	}
	if !m.Terminal() {
		t.Error("Cancelled machine should be terminal")
	}
	// No transitions out of a terminal state.
	if err := m.Transition(FillSubmitted, CondOrderPlaced); err == nil {
		t.Error("Transition out of terminal state should fail")
	}
}
