package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pgannon/spreadbot/internal/dashboard"
	"github.com/pgannon/spreadbot/internal/models"
)

// runTradingTask executes one scheduled pass: reconcile the data-feed mode
// with the session schedule, gate entry on the filters, then run the
// deadline-bounded spread execution loop.
func (b *Bot) runTradingTask(ctx context.Context) {
	now := time.Now()
	b.status.update(func(s *dashboard.Status) { s.LastCycle = now })

	mode, err := b.sessions.EnsureModeForNow(ctx, b.underlying, models.ModeLive, models.ModeFrozen)
	if err != nil {
		b.logger.WithError(err).Error("Failed to reconcile market data mode")
		return
	}
	sessionOpen := mode == models.ModeLive
	b.status.update(func(s *dashboard.Status) {
		s.DataMode = mode.String()
		s.SessionOpen = sessionOpen
	})

	if !sessionOpen {
		b.logger.Info("Session closed, skipping entry")
		return
	}

	for _, filter := range b.filters {
		ready, err := filter.Evaluate(ctx)
		if err != nil {
			b.logger.WithError(err).Error("Entry filter failed")
			return
		}
		if !ready {
			b.logger.Info("Entry filter not ready, skipping cycle")
			return
		}
	}

	b.logger.Info("Starting spread execution...")
	prog := b.config.Progression()
	trade, err := b.executor.Buy(ctx, b.config.Deadline(), &prog)
	if err != nil {
		b.logger.WithError(err).Error("Spread execution failed")
		b.status.update(func(s *dashboard.Status) { s.LastTrade = "error: " + err.Error() })
		return
	}
	if trade == nil {
		b.logger.Warn("Spread execution ended without a fill")
		b.status.update(func(s *dashboard.Status) { s.LastTrade = "no fill" })
		return
	}

	b.logger.WithField("order_id", trade.OrderID).Info("Spread filled")
	b.status.update(func(s *dashboard.Status) {
		s.LastTrade = fmt.Sprintf("%s filled @ %.2f", trade.OrderID, trade.LimitPrice)
	})
}
