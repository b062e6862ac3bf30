// Package models provides data structures and state management for spread trading.
package models

import "fmt"

// SecType identifies the security type of an instrument.
type SecType string

const (
	// SecTypeStock is a common stock or ETF underlying.
	SecTypeStock SecType = "STK"
	// SecTypeOption is a listed option contract.
	SecTypeOption SecType = "OPT"
)

// Right identifies an option right.
type Right string

const (
	// RightCall is a call option.
	RightCall Right = "C"
	// RightPut is a put option.
	RightPut Right = "P"
)

// Instrument identifies a tradable security. Option fields (Expiry, Strike,
// Right) are zero for non-option instruments. ContractID is assigned by the
// venue during qualification; an instrument with a zero ContractID cannot be
// quoted or traded. Instruments are never mutated after qualification except
// to attach the ContractID itself.
type Instrument struct {
	Symbol       string
	SecType      SecType
	Exchange     string
	Currency     string
	Expiry       string // YYYYMMDD
	Strike       float64
	Right        Right
	TradingClass string
	ContractID   int64
}

// Qualified reports whether the instrument has been resolved against the venue.
func (i *Instrument) Qualified() bool {
	return i.ContractID != 0
}

// IsOption reports whether the instrument is an option contract.
func (i *Instrument) IsOption() bool {
	return i.SecType == SecTypeOption
}

// Description returns a short human-readable identifier for logging.
func (i *Instrument) Description() string {
	if i.IsOption() {
		return fmt.Sprintf("%s %s %s%.2f", i.Symbol, i.Expiry, i.Right, i.Strike)
	}
	return fmt.Sprintf("%s %s", i.Symbol, i.SecType)
}

// NewStock creates an unqualified stock instrument.
func NewStock(symbol, exchange, currency string) *Instrument {
	return &Instrument{
		Symbol:   symbol,
		SecType:  SecTypeStock,
		Exchange: exchange,
		Currency: currency,
	}
}

// OptionClass holds the contract attributes shared by every option on one
// underlying: symbol, routing exchange, currency, and trading class.
type OptionClass struct {
	Symbol       string
	Exchange     string
	Currency     string
	TradingClass string
}

// Option creates an unqualified option instrument for this class.
func (c OptionClass) Option(expiry string, strike float64, right Right) *Instrument {
	return &Instrument{
		Symbol:       c.Symbol,
		SecType:      SecTypeOption,
		Exchange:     c.Exchange,
		Currency:     c.Currency,
		Expiry:       expiry,
		Strike:       strike,
		Right:        right,
		TradingClass: c.TradingClass,
	}
}
