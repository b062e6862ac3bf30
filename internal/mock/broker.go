// Package mock provides a synthetic broker for tests and paper trading.
package mock

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/models"
)

// BidAsk is a configured quote for one option strike.
type BidAsk struct {
	Bid float64
	Ask float64
}

// Config controls the synthetic broker's behavior.
type Config struct {
	// Spot is the underlying price.
	Spot float64

	// Contract details served for every instrument.
	TimeZoneID   string
	LiquidHours  string
	TradingHours string
	// NoDetails makes ContractDetails fail with ErrNoContractDetails.
	NoDetails bool

	// Deltas maps option strikes to model deltas. Subscribed option quotes
	// for strikes absent from the map never receive greeks.
	Deltas map[float64]float64
	// OptionQuotes overrides the synthetic bid/ask per strike.
	OptionQuotes map[float64]BidAsk

	// FillAfterChecks is how many status checks an order needs before it
	// reports filled. Zero fills on the first check; negative never fills.
	FillAfterChecks int
	// CancelAfterChecks, when positive, cancels the order after that many
	// status checks. Takes precedence over filling.
	CancelAfterChecks int

	// Bars is served verbatim from HistoricalBars.
	Bars []broker.Bar
}

type orderState struct {
	trade     models.Trade
	combo     *models.ComboOrder
	checks    int
	limits    []float64
	cancelled bool
}

// Broker is a deterministic in-memory Broker implementation.
type Broker struct {
	mu           sync.Mutex
	cfg          Config
	nextID       int64
	orderSeq     int
	orders       map[string]*orderState
	lastCombo    *models.ComboOrder
	modeSwitches []models.MarketDataMode
	qualifyCalls int
	detailsCalls int
}

// Ensure Broker implements the broker interface at compile time.
var _ broker.Broker = (*Broker)(nil)

// NewBroker creates a synthetic broker.
func NewBroker(cfg Config) *Broker {
	if cfg.TimeZoneID == "" {
		cfg.TimeZoneID = "America/New_York"
	}
	return &Broker{
		cfg:    cfg,
		nextID: 1000,
		orders: make(map[string]*orderState),
	}
}

// QualifyInstrument assigns a contract identifier if the instrument lacks one.
func (b *Broker) QualifyInstrument(_ context.Context, inst *models.Instrument) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.qualifyCalls++
	if inst.ContractID == 0 {
		b.nextID++
		inst.ContractID = b.nextID
	}
	return nil
}

// ContractDetails serves the configured venue metadata.
func (b *Broker) ContractDetails(ctx context.Context, inst *models.Instrument) (*broker.ContractDetails, error) {
	b.mu.Lock()
	b.detailsCalls++
	noDetails := b.cfg.NoDetails
	b.mu.Unlock()

	if noDetails {
		return nil, broker.ErrNoContractDetails
	}
	if !inst.Qualified() {
		if err := b.QualifyInstrument(ctx, inst); err != nil {
			return nil, err
		}
	}
	return &broker.ContractDetails{
		ContractID:   inst.ContractID,
		TimeZoneID:   b.cfg.TimeZoneID,
		LiquidHours:  b.cfg.LiquidHours,
		TradingHours: b.cfg.TradingHours,
	}, nil
}

// GetQuote returns a snapshot quote: the configured spot for the underlying,
// synthetic premiums for options.
func (b *Broker) GetQuote(_ context.Context, inst *models.Instrument) (*models.Quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !inst.IsOption() {
		return &models.Quote{
			Instrument: inst,
			Bid:        b.cfg.Spot - 0.01,
			Ask:        b.cfg.Spot + 0.01,
			Last:       b.cfg.Spot,
		}, nil
	}

	bid, ask := b.optionBidAsk(inst.Strike)
	return &models.Quote{Instrument: inst, Bid: bid, Ask: ask}, nil
}

// SubscribeQuotes returns quote records for the instruments. Option quotes
// carry deltas only for strikes present in Config.Deltas.
func (b *Broker) SubscribeQuotes(_ context.Context, insts []*models.Instrument) ([]*models.Quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	quotes := make([]*models.Quote, 0, len(insts))
	for _, inst := range insts {
		bid, ask := b.optionBidAsk(inst.Strike)
		q := &models.Quote{Instrument: inst, Bid: bid, Ask: ask}
		if delta, ok := b.cfg.Deltas[inst.Strike]; ok {
			d := delta
			q.Delta = &d
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func (b *Broker) optionBidAsk(strike float64) (float64, float64) {
	if ba, ok := b.cfg.OptionQuotes[strike]; ok {
		return ba.Bid, ba.Ask
	}
	mid := 1.0 + math.Abs(b.cfg.Spot-strike)*0.05
	return mid - 0.05, mid + 0.05
}

// SetMarketDataMode records the switch.
func (b *Broker) SetMarketDataMode(_ context.Context, mode models.MarketDataMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modeSwitches = append(b.modeSwitches, mode)
	return nil
}

// HistoricalBars serves the configured bars.
func (b *Broker) HistoricalBars(_ context.Context, _ *models.Instrument, _ broker.HistoryRequest) ([]broker.Bar, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg.Bars, nil
}

// PlaceComboLimit records the order and returns a working trade.
func (b *Broker) PlaceComboLimit(_ context.Context, combo *models.ComboOrder, _ models.OrderAction,
	qty int, limit float64, tag string) (*models.Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.orderSeq++
	trade := models.Trade{
		OrderID:    fmt.Sprintf("MOCK-%d", b.orderSeq),
		Tag:        tag,
		Status:     models.OrderSubmitted,
		LimitPrice: limit,
		Quantity:   qty,
		PlacedAt:   time.Now(),
	}
	b.orders[trade.OrderID] = &orderState{trade: trade, combo: combo, limits: []float64{limit}}
	b.lastCombo = combo

	out := trade
	return &out, nil
}

// ReplaceOrder updates the working limit.
func (b *Broker) ReplaceOrder(_ context.Context, orderID string, limit float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("mock: unknown order %s", orderID)
	}
	st.trade.LimitPrice = limit
	st.limits = append(st.limits, limit)
	return nil
}

// CancelOrder marks the order cancelled.
func (b *Broker) CancelOrder(_ context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("mock: unknown order %s", orderID)
	}
	st.cancelled = true
	return nil
}

// OrderStatus reports the order's synthetic status per the fill/cancel
// configuration, counting each check.
func (b *Broker) OrderStatus(_ context.Context, orderID string) (models.OrderStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.orders[orderID]
	if !ok {
		return "", fmt.Errorf("mock: unknown order %s", orderID)
	}
	st.checks++
	if st.cancelled {
		return models.OrderCancelled, nil
	}
	if b.cfg.CancelAfterChecks > 0 && st.checks >= b.cfg.CancelAfterChecks {
		return models.OrderCancelled, nil
	}
	if b.cfg.FillAfterChecks >= 0 && st.checks > b.cfg.FillAfterChecks {
		return models.OrderFilled, nil
	}
	return models.OrderSubmitted, nil
}

// Test inspection helpers.

// ModeSwitches returns every data mode switch requested so far.
func (b *Broker) ModeSwitches() []models.MarketDataMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.MarketDataMode, len(b.modeSwitches))
	copy(out, b.modeSwitches)
	return out
}

// QualifyCalls returns how many qualification requests were made.
func (b *Broker) QualifyCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.qualifyCalls
}

// DetailsCalls returns how many contract detail requests were made.
func (b *Broker) DetailsCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detailsCalls
}

// LastCombo returns the most recently placed combo order.
func (b *Broker) LastCombo() *models.ComboOrder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastCombo
}

// OrderLimits returns the limit price history of an order, initial placement
// included.
func (b *Broker) OrderLimits(orderID string) []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.orders[orderID]; ok {
		out := make([]float64, len(st.limits))
		copy(out, st.limits)
		return out
	}
	return nil
}

// Cancelled reports whether CancelOrder was called for the order.
func (b *Broker) Cancelled(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.orders[orderID]; ok {
		return st.cancelled
	}
	return false
}

// PlacedOrders returns how many orders were placed.
func (b *Broker) PlacedOrders() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orderSeq
}
