package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/models"
	"github.com/pgannon/spreadbot/internal/util"
)

// Config contains configuration for the order manager.
type Config struct {
	// Tick is the venue's minimum price increment for limit adjustments.
	Tick float64
}

// DefaultConfig is the default configuration for the order manager.
var DefaultConfig = Config{
	Tick: 0.01,
}

// Manager places combo limit orders and drives the price-converging retry
// state machine: each unfilled wait cycle moves the limit toward the market,
// bounded so the engine never chases price indefinitely.
type Manager struct {
	broker broker.Broker
	logger *logrus.Logger
	config Config
}

// NewManager creates a new order manager instance.
func NewManager(b broker.Broker, logger *logrus.Logger, config ...Config) *Manager {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultConfig.Tick
	}
	if b == nil {
		panic("orders.NewManager: broker must not be nil")
	}
	return &Manager{broker: b, logger: logger, config: cfg}
}

// LimitBuy places a limit buy for the combo and, when a progression policy
// is given, drives the retry/adjust/cancel lifecycle until the order fills,
// the venue cancels it, or attempts run out.
//
// With a nil progression (or zero attempts) the order is fire-and-forget:
// the trade is returned right after placement. Otherwise the engine waits
// progression.Wait per cycle, lowers the limit by progression.Adjustment on
// each unfilled check, and after exhausting attempts waits once more, then
// actively cancels. A nil trade with nil error means the order did not fill;
// non-convergence is a defined outcome, not an error.
func (m *Manager) LimitBuy(ctx context.Context, combo *models.ComboOrder, qty int,
	limit float64, prog *models.FillProgression) (*models.Trade, error) {

	tag := uuid.NewString()
	trade, err := m.broker.PlaceComboLimit(ctx, combo, models.ActionBuy, qty, limit, tag)
	if err != nil {
		return nil, fmt.Errorf("placing combo limit order: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"order_id": trade.OrderID,
		"symbol":   combo.Symbol,
		"qty":      qty,
		"limit":    limit,
		"tag":      tag,
	}).Info("Combo limit order placed")

	if prog == nil || prog.Attempts <= 0 {
		return trade, nil
	}

	machine := models.NewFillMachine()
	if err := machine.Transition(models.FillSubmitted, models.CondOrderPlaced); err != nil {
		return nil, err
	}

	price := limit
	for attempt := 1; attempt <= prog.Attempts; attempt++ {
		if err := m.wait(ctx, prog.Wait); err != nil {
			return nil, err
		}

		status, err := m.broker.OrderStatus(ctx, trade.OrderID)
		if err != nil {
			// Unknown status: keep the order working and let the next
			// cycle resolve it.
			m.logger.WithError(err).WithField("order_id", trade.OrderID).
				Warn("Order status check failed")
			continue
		}

		if status == models.OrderFilled {
			if err := machine.Transition(models.FillFilled, models.CondOrderFilled); err != nil {
				return nil, err
			}
			trade.Status = models.OrderFilled
			m.logger.WithFields(logrus.Fields{
				"order_id": trade.OrderID,
				"attempt":  attempt,
				"limit":    price,
			}).Info("Combo order filled")
			return trade, nil
		}
		if status.Failed() {
			if err := machine.Transition(models.FillCancelled, models.CondOrderCancelled); err != nil {
				return nil, err
			}
			m.logger.WithFields(logrus.Fields{
				"order_id": trade.OrderID,
				"attempt":  attempt,
				"status":   string(status),
			}).Warn("Combo order cancelled by venue")
			return nil, nil
		}

		price = util.RoundToTick(price-prog.Adjustment, m.config.Tick)
		if err := machine.Transition(models.FillAdjusting, models.CondPriceAdjusted); err != nil {
			return nil, err
		}
		m.logger.WithFields(logrus.Fields{
			"order_id": trade.OrderID,
			"attempt":  attempt,
			"limit":    price,
		}).Info("Adjusting limit toward the market")

		if err := m.broker.ReplaceOrder(ctx, trade.OrderID, price); err != nil {
			return nil, fmt.Errorf("replacing order %s at %.2f: %w", trade.OrderID, price, err)
		}
		trade.LimitPrice = price
		if err := machine.Transition(models.FillSubmitted, models.CondOrderResubmitted); err != nil {
			return nil, err
		}
	}

	// One last chance to fill at the final price before giving up.
	if err := m.wait(ctx, prog.Wait); err != nil {
		return nil, err
	}
	status, err := m.broker.OrderStatus(ctx, trade.OrderID)
	if err == nil && status == models.OrderFilled {
		trade.Status = models.OrderFilled
		m.logger.WithField("order_id", trade.OrderID).Info("Combo order filled on final wait")
		return trade, nil
	}

	if err := machine.Transition(models.FillExhausted, models.CondAttemptsExhausted); err != nil {
		return nil, err
	}
	m.logger.WithFields(logrus.Fields{
		"order_id": trade.OrderID,
		"attempts": prog.Attempts,
		"limit":    price,
	}).Warn("Attempts exhausted, cancelling order")

	if err := m.broker.CancelOrder(ctx, trade.OrderID); err != nil {
		m.logger.WithError(err).WithField("order_id", trade.OrderID).
			Error("Failed to cancel exhausted order")
	}
	return nil, nil
}

// wait sleeps for d or returns the context error on cancellation.
func (m *Manager) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
