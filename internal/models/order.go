package models

import (
	"fmt"
	"time"
)

// OrderAction is the side of an order or combo leg.
type OrderAction string

const (
	// ActionBuy opens or adds to a long position.
	ActionBuy OrderAction = "BUY"
	// ActionSell opens or adds to a short position.
	ActionSell OrderAction = "SELL"
)

// ComboLeg is one leg of a multi-leg order, referencing a qualified contract.
type ComboLeg struct {
	ContractID int64
	Action     OrderAction
	Ratio      int
	Exchange   string
}

// ComboOrder is a single tradable unit representing multiple option legs
// executed together (a bag). Both legs share symbol, exchange and currency.
type ComboOrder struct {
	Symbol   string
	Exchange string
	Currency string
	Legs     []ComboLeg
}

// OrderStatus is the broker-reported status of a working order.
type OrderStatus string

const (
	// OrderSubmitted means the order was accepted and is working.
	OrderSubmitted OrderStatus = "submitted"
	// OrderPending means the order is queued but not yet acknowledged.
	OrderPending OrderStatus = "pending"
	// OrderFilled means the order executed completely.
	OrderFilled OrderStatus = "filled"
	// OrderCancelled means the order was cancelled before filling.
	OrderCancelled OrderStatus = "cancelled"
	// OrderRejected means the venue refused the order.
	OrderRejected OrderStatus = "rejected"
	// OrderExpired means the order lapsed without filling.
	OrderExpired OrderStatus = "expired"
)

// Terminal reports whether the status is final.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderFilled, OrderCancelled, OrderRejected, OrderExpired:
		return true
	default:
		return false
	}
}

// Failed reports whether the status is terminal without a fill.
func (s OrderStatus) Failed() bool {
	switch s {
	case OrderCancelled, OrderRejected, OrderExpired:
		return true
	default:
		return false
	}
}

// Trade associates a placed order with its evolving status. It is owned by
// the engine that placed the order until the status is terminal.
type Trade struct {
	OrderID    string
	Tag        string
	Status     OrderStatus
	LimitPrice float64
	Quantity   int
	PlacedAt   time.Time
}

// FillProgression is the bounded retry policy governing one order's fill
// lifecycle. It is not shared across orders.
type FillProgression struct {
	// Attempts is the number of wait/adjust cycles before giving up.
	Attempts int
	// Wait is the pause between status checks.
	Wait time.Duration
	// Adjustment is subtracted from the limit each unfilled cycle, moving
	// the order toward the market.
	Adjustment float64
}

// Validate checks the progression policy.
func (p FillProgression) Validate() error {
	if p.Attempts < 0 {
		return fmt.Errorf("fill progression: attempts must be >= 0, got %d", p.Attempts)
	}
	if p.Attempts > 0 && p.Wait <= 0 {
		return fmt.Errorf("fill progression: wait must be > 0 when attempts > 0")
	}
	if p.Adjustment < 0 {
		return fmt.Errorf("fill progression: adjustment must be >= 0, got %.4f", p.Adjustment)
	}
	return nil
}
