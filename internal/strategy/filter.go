package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/models"
)

// BarSize is a venue bar size token.
type BarSize string

const (
	BarSec5  BarSize = "5 secs"
	BarSec15 BarSize = "15 secs"
	BarMin1  BarSize = "1 min"
	BarMin5  BarSize = "5 mins"
	BarMin15 BarSize = "15 mins"
	BarHour1 BarSize = "1 hour"
	BarDay1  BarSize = "1 day"
)

var barSeconds = map[BarSize]int{
	BarSec5:  5,
	BarSec15: 15,
	BarMin1:  60,
	BarMin5:  5 * 60,
	BarMin15: 15 * 60,
	BarHour1: 60 * 60,
	BarDay1:  24 * 60 * 60,
}

// HistorySpec describes the historical data an entry filter needs.
type HistorySpec struct {
	BarSize BarSize
	// Length is the indicator period in bars.
	Length int
	// WarmupBars is extra history so the indicator stabilizes.
	WarmupBars int
	WhatToShow string
	UseRTH     bool
}

// DurationString converts the bar requirement into a venue duration token
// ("<n> S", "<n> D", "<n> W", "<n> M", "<n> Y"). Day-based durations are
// padded generously so session gaps and holidays do not starve the request.
func (h HistorySpec) DurationString() string {
	barsNeeded := h.Length + h.WarmupBars
	secondsNeeded := barsNeeded * barSeconds[h.BarSize]

	if secondsNeeded <= 60*60 {
		return fmt.Sprintf("%d S", secondsNeeded)
	}

	days := int(math.Ceil(float64(secondsNeeded) / (24 * 60 * 60)))
	days = int(float64(days)*1.6) + 2

	if days <= 6 {
		return fmt.Sprintf("%d D", days)
	}
	if days <= 60 {
		return fmt.Sprintf("%d W", int(math.Ceil(float64(days)/7)))
	}
	if days <= 365 {
		return fmt.Sprintf("%d M", int(math.Ceil(float64(days)/30)))
	}
	return fmt.Sprintf("%d Y", int(math.Ceil(float64(days)/365)))
}

// Evaluator is an entry filter: a single "ready now" check over shared
// historical data. Filters gate spread entry; they never place orders.
type Evaluator interface {
	Evaluate(ctx context.Context) (bool, error)
}

// MAType selects the moving average flavor.
type MAType string

const (
	MASimple      MAType = "sma"
	MAExponential MAType = "ema"
	MAWeighted    MAType = "wma"
)

// fetchCloses requests historical bars and returns their closes, failing
// when fewer bars arrive than the indicator needs.
func fetchCloses(ctx context.Context, b broker.Broker, inst *models.Instrument, h HistorySpec) ([]broker.Bar, error) {
	bars, err := b.HistoricalBars(ctx, inst, broker.HistoryRequest{
		Duration:   h.DurationString(),
		BarSize:    string(h.BarSize),
		WhatToShow: h.WhatToShow,
		UseRTH:     h.UseRTH,
	})
	if err != nil {
		return nil, fmt.Errorf("historical bars for %s: %w", inst.Symbol, err)
	}
	if len(bars) < h.Length {
		return nil, fmt.Errorf("not enough historical bars for %s: got %d, need %d (%s)",
			inst.Symbol, len(bars), h.Length, h.BarSize)
	}
	return bars, nil
}

// CloseAboveMovingAverage is ready when the latest close sits above its
// moving average.
type CloseAboveMovingAverage struct {
	broker  broker.Broker
	logger  *logrus.Logger
	inst    *models.Instrument
	history HistorySpec
	maType  MAType
}

var _ Evaluator = (*CloseAboveMovingAverage)(nil)

// NewCloseAboveMovingAverage creates the filter.
func NewCloseAboveMovingAverage(b broker.Broker, logger *logrus.Logger, inst *models.Instrument,
	history HistorySpec, maType MAType) *CloseAboveMovingAverage {
	return &CloseAboveMovingAverage{broker: b, logger: logger, inst: inst, history: history, maType: maType}
}

// Evaluate implements Evaluator.
func (f *CloseAboveMovingAverage) Evaluate(ctx context.Context) (bool, error) {
	bars, err := fetchCloses(ctx, f.broker, f.inst, f.history)
	if err != nil {
		return false, err
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	ma, err := movingAverage(closes, f.history.Length, f.maType)
	if err != nil {
		return false, err
	}

	last := closes[len(closes)-1]
	ready := last > ma

	f.logger.WithFields(logrus.Fields{
		"filter": "close_above_ma",
		"symbol": f.inst.Symbol,
		"close":  last,
		"ma":     ma,
		"ready":  ready,
	}).Info("Entry filter evaluated")

	return ready, nil
}

// movingAverage computes the terminal moving average value over the last
// length closes.
func movingAverage(closes []float64, length int, maType MAType) (float64, error) {
	window := closes[len(closes)-length:]
	switch maType {
	case MASimple:
		return stats.Mean(stats.Float64Data(window))
	case MAExponential:
		// Standard EMA with k = 2/(n+1), seeded from the first close of the
		// full series so warmup bars count.
		k := 2.0 / (float64(length) + 1.0)
		ema := closes[0]
		for _, c := range closes[1:] {
			ema = c*k + ema*(1-k)
		}
		return ema, nil
	case MAWeighted:
		var num, den float64
		for i, c := range window {
			w := float64(i + 1)
			num += c * w
			den += w
		}
		return num / den, nil
	default:
		return 0, fmt.Errorf("strategy: unsupported moving average type %q", maType)
	}
}

// MoveUpFromOpen is ready when the latest bar moved up from its open by at
// least the configured fraction.
type MoveUpFromOpen struct {
	broker    broker.Broker
	logger    *logrus.Logger
	inst      *models.Instrument
	threshold float64
	history   HistorySpec
}

var _ Evaluator = (*MoveUpFromOpen)(nil)

// NewMoveUpFromOpen creates the filter. threshold is fractional: 0.005 means
// the close must sit at least 0.5% above the open.
func NewMoveUpFromOpen(b broker.Broker, logger *logrus.Logger, inst *models.Instrument,
	threshold float64, history HistorySpec) *MoveUpFromOpen {
	return &MoveUpFromOpen{broker: b, logger: logger, inst: inst, threshold: threshold, history: history}
}

// Evaluate implements Evaluator.
func (f *MoveUpFromOpen) Evaluate(ctx context.Context) (bool, error) {
	bars, err := fetchCloses(ctx, f.broker, f.inst, f.history)
	if err != nil {
		return false, err
	}

	last := bars[len(bars)-1]
	if last.Open <= 0 {
		return false, fmt.Errorf("invalid open price %.4f for %s", last.Open, f.inst.Symbol)
	}
	move := (last.Close - last.Open) / last.Open
	ready := move >= f.threshold

	f.logger.WithFields(logrus.Fields{
		"filter":   "move_up_from_open",
		"symbol":   f.inst.Symbol,
		"open":     last.Open,
		"close":    last.Close,
		"move_pct": move * 100,
		"ready":    ready,
	}).Info("Entry filter evaluated")

	return ready, nil
}
