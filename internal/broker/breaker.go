package broker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pgannon/spreadbot/internal/models"
)

// CircuitBreakerBroker wraps a Broker with circuit breaker functionality.
type CircuitBreakerBroker struct {
	broker  Broker
	breaker *gobreaker.CircuitBreaker
}

// Ensure CircuitBreakerBroker implements Broker at compile time.
var _ Broker = (*CircuitBreakerBroker)(nil)

// CircuitBreakerSettings configures circuit breaker behavior.
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewCircuitBreakerBroker creates a CircuitBreakerBroker with sensible defaults.
func NewCircuitBreakerBroker(broker Broker) *CircuitBreakerBroker {
	return NewCircuitBreakerBrokerWithSettings(broker, CircuitBreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewCircuitBreakerBrokerWithSettings creates a CircuitBreakerBroker with custom settings.
func NewCircuitBreakerBrokerWithSettings(broker Broker, settings CircuitBreakerSettings) *CircuitBreakerBroker {
	gbSettings := gobreaker.Settings{
		Name:        "BrokerCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}

	return &CircuitBreakerBroker{
		broker:  broker,
		breaker: gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// execCircuitBreaker is a generic helper for circuit breaker wrapper methods.
func execCircuitBreaker[T any](
	breaker *gobreaker.CircuitBreaker,
	broker Broker,
	fn func(Broker) (T, error),
) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(broker) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// execCircuitBreakerErr wraps calls that return only an error.
func execCircuitBreakerErr(breaker *gobreaker.CircuitBreaker, fn func() error) error {
	_, err := breaker.Execute(func() (interface{}, error) { return nil, fn() })
	return err
}

// QualifyInstrument wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) QualifyInstrument(ctx context.Context, inst *models.Instrument) error {
	return execCircuitBreakerErr(c.breaker, func() error { return c.broker.QualifyInstrument(ctx, inst) })
}

// ContractDetails wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) ContractDetails(ctx context.Context, inst *models.Instrument) (*ContractDetails, error) {
	return execCircuitBreaker(c.breaker, c.broker, func(b Broker) (*ContractDetails, error) {
		return b.ContractDetails(ctx, inst)
	})
}

// GetQuote wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) GetQuote(ctx context.Context, inst *models.Instrument) (*models.Quote, error) {
	return execCircuitBreaker(c.breaker, c.broker, func(b Broker) (*models.Quote, error) {
		return b.GetQuote(ctx, inst)
	})
}

// SubscribeQuotes wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) SubscribeQuotes(ctx context.Context, insts []*models.Instrument) ([]*models.Quote, error) {
	return execCircuitBreaker(c.breaker, c.broker, func(b Broker) ([]*models.Quote, error) {
		return b.SubscribeQuotes(ctx, insts)
	})
}

// SetMarketDataMode wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) SetMarketDataMode(ctx context.Context, mode models.MarketDataMode) error {
	return execCircuitBreakerErr(c.breaker, func() error { return c.broker.SetMarketDataMode(ctx, mode) })
}

// HistoricalBars wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) HistoricalBars(ctx context.Context, inst *models.Instrument, req HistoryRequest) ([]Bar, error) {
	return execCircuitBreaker(c.breaker, c.broker, func(b Broker) ([]Bar, error) {
		return b.HistoricalBars(ctx, inst, req)
	})
}

// PlaceComboLimit wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) PlaceComboLimit(ctx context.Context, combo *models.ComboOrder,
	action models.OrderAction, qty int, limit float64, tag string) (*models.Trade, error) {
	return execCircuitBreaker(c.breaker, c.broker, func(b Broker) (*models.Trade, error) {
		return b.PlaceComboLimit(ctx, combo, action, qty, limit, tag)
	})
}

// ReplaceOrder wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) ReplaceOrder(ctx context.Context, orderID string, limit float64) error {
	return execCircuitBreakerErr(c.breaker, func() error { return c.broker.ReplaceOrder(ctx, orderID, limit) })
}

// CancelOrder wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) CancelOrder(ctx context.Context, orderID string) error {
	return execCircuitBreakerErr(c.breaker, func() error { return c.broker.CancelOrder(ctx, orderID) })
}

// OrderStatus wraps the underlying broker call with circuit breaker.
func (c *CircuitBreakerBroker) OrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	return execCircuitBreaker(c.breaker, c.broker, func(b Broker) (models.OrderStatus, error) {
		return b.OrderStatus(ctx, orderID)
	})
}
