// Package broker defines the interface boundary to the brokerage venue.
//
// The core trading logic consumes this interface only; live connectivity,
// session management and reconnect policy ship with the connector, not here.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/pgannon/spreadbot/internal/models"
)

// ErrNoContractDetails is returned when the venue has no resolvable details
// for an instrument.
var ErrNoContractDetails = errors.New("broker: no contract details returned")

// ContractDetails carries the venue metadata the session manager needs:
// the canonical identifier, the exchange timezone, and the trading-hours
// text in the venue's segment grammar.
type ContractDetails struct {
	ContractID   int64
	TimeZoneID   string
	LiquidHours  string
	TradingHours string
}

// Bar is one historical OHLCV bar.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// HistoryRequest describes a historical data request. Duration uses the
// venue's token grammar ("<n> S", "<n> D", "<n> W", "<n> M", "<n> Y").
type HistoryRequest struct {
	Duration   string
	BarSize    string
	WhatToShow string
	UseRTH     bool
}

// Broker is the interface to the brokerage venue.
//
// Quote records returned by SubscribeQuotes are live: the implementation may
// populate greeks after the call returns, and callers poll Quote.HasGreeks.
// All other methods are request/response.
type Broker interface {
	// Contract resolution
	QualifyInstrument(ctx context.Context, inst *models.Instrument) error
	ContractDetails(ctx context.Context, inst *models.Instrument) (*ContractDetails, error)

	// Market data
	GetQuote(ctx context.Context, inst *models.Instrument) (*models.Quote, error)
	SubscribeQuotes(ctx context.Context, insts []*models.Instrument) ([]*models.Quote, error)
	SetMarketDataMode(ctx context.Context, mode models.MarketDataMode) error
	HistoricalBars(ctx context.Context, inst *models.Instrument, req HistoryRequest) ([]Bar, error)

	// Orders
	PlaceComboLimit(ctx context.Context, combo *models.ComboOrder, action models.OrderAction,
		qty int, limit float64, tag string) (*models.Trade, error)
	ReplaceOrder(ctx context.Context, orderID string, limit float64) error
	CancelOrder(ctx context.Context, orderID string) error
	OrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error)
}
