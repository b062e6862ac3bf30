package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/models"
	"github.com/pgannon/spreadbot/internal/strategy"
)

// Builder constructs a spread's qualified legs. Implemented by
// strategy.SpreadBuilder.
type Builder interface {
	Build(ctx context.Context) (short, long *models.Instrument, err error)
}

// Executor is the deadline-bounded spread execution loop. Spot and strike
// selection drift between attempts, so every iteration rebuilds the spread
// from scratch, reprices the combo off fresh leg quotes, and attempts a
// fill.
type Executor struct {
	broker  broker.Broker
	builder Builder
	manager *Manager
	logger  *logrus.Logger
	qty     int
	now     func() time.Time
}

// NewExecutor creates an execution loop for one spread strategy.
func NewExecutor(b broker.Broker, builder Builder, manager *Manager, logger *logrus.Logger, qty int) *Executor {
	return &Executor{
		broker:  b,
		builder: builder,
		manager: manager,
		logger:  logger,
		qty:     qty,
		now:     time.Now,
	}
}

// Buy rebuilds the spread and attempts a fill repeatedly until a trade
// fills or the deadline elapses. The deadline is checked at the top of each
// iteration only: no attempt starts after it has passed, but an attempt
// already in flight always runs to completion.
//
// The net limit is ask(long) - bid(short), the debit paid to open a
// credit-construction vertical bought as a unit. Returns (nil, nil) when
// the deadline elapses without a fill.
func (e *Executor) Buy(ctx context.Context, deadline time.Duration, prog *models.FillProgression) (*models.Trade, error) {
	deadlineAt := e.now().Add(deadline)

	for {
		if e.now().After(deadlineAt) {
			e.logger.WithField("deadline", deadline.String()).
				Warn("Execution deadline elapsed without a fill")
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		short, long, err := e.builder.Build(ctx)
		if err != nil {
			// Data unavailability and selection failures are retryable with
			// a full rebuild; venue failures propagate.
			if errors.Is(err, strategy.ErrNoSpotPrice) || errors.Is(err, strategy.ErrNoGreeksAvailable) {
				e.logger.WithError(err).Error("Spread build aborted, retrying")
				continue
			}
			return nil, err
		}

		limit, err := e.netLimit(ctx, short, long)
		if err != nil {
			return nil, err
		}

		combo, err := Assemble(short, long)
		if err != nil {
			return nil, err
		}

		e.logger.WithFields(logrus.Fields{
			"short": short.Description(),
			"long":  long.Description(),
			"limit": limit,
			"qty":   e.qty,
		}).Info("Attempting spread fill")

		trade, err := e.manager.LimitBuy(ctx, combo, e.qty, limit, prog)
		if err != nil {
			return nil, err
		}
		if trade != nil {
			return trade, nil
		}

		e.logger.Info("No fill this attempt, rebuilding spread")
	}
}

// netLimit prices the combo off fresh leg quotes.
func (e *Executor) netLimit(ctx context.Context, short, long *models.Instrument) (float64, error) {
	shortQuote, err := e.broker.GetQuote(ctx, short)
	if err != nil {
		return 0, fmt.Errorf("quote for short leg %s: %w", short.Description(), err)
	}
	longQuote, err := e.broker.GetQuote(ctx, long)
	if err != nil {
		return 0, fmt.Errorf("quote for long leg %s: %w", long.Description(), err)
	}
	return longQuote.Ask - shortQuote.Bid, nil
}
