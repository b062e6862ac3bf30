package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/models"
)

// ErrNoSpotPrice is returned when the underlying has no usable price. It is
// a soft failure: the caller should abort the current build attempt and, if
// it retries at all, retry with a full rebuild.
var ErrNoSpotPrice = errors.New("strategy: no spot price for underlying")

// BuilderConfig configures spread construction.
type BuilderConfig struct {
	Spec          models.VerticalSpec
	Right         models.Right
	Kind          models.SpreadKind
	GreeksTimeout time.Duration
	GreeksPoll    time.Duration
}

// SpreadBuilder constructs a delta-targeted vertical spread for one
// underlying: spot lookup, strike candidate generation, leg qualification,
// delta selection, and the width-offset long leg.
//
// Both returned legs are venue-qualified and consistent with the spec at
// call time. Prices move between build and order placement, so the
// execution loop rebuilds per attempt; builds must stay cheap and
// idempotent.
type SpreadBuilder struct {
	broker     broker.Broker
	logger     *logrus.Logger
	underlying *models.Instrument
	class      models.OptionClass
	cfg        BuilderConfig
	now        func() time.Time
}

// NewSpreadBuilder creates a spread builder.
func NewSpreadBuilder(b broker.Broker, logger *logrus.Logger, underlying *models.Instrument,
	class models.OptionClass, cfg BuilderConfig) (*SpreadBuilder, error) {
	if err := cfg.Spec.Validate(); err != nil {
		return nil, err
	}
	if cfg.Right != models.RightPut && cfg.Right != models.RightCall {
		return nil, fmt.Errorf("strategy: unsupported right %q", cfg.Right)
	}
	if cfg.Kind != models.SpreadCredit && cfg.Kind != models.SpreadDebit {
		return nil, fmt.Errorf("strategy: unsupported spread kind %q", cfg.Kind)
	}
	return &SpreadBuilder{
		broker:     b,
		logger:     logger,
		underlying: underlying,
		class:      class,
		cfg:        cfg,
		now:        time.Now,
	}, nil
}

// Build constructs and qualifies the short and long legs of the spread.
// Missing spot data surfaces as ErrNoSpotPrice, a failed delta selection as
// ErrNoGreeksAvailable; qualification and venue failures propagate as-is.
func (b *SpreadBuilder) Build(ctx context.Context) (short, long *models.Instrument, err error) {
	spotQuote, err := b.broker.GetQuote(ctx, b.underlying)
	if err != nil {
		return nil, nil, fmt.Errorf("spot quote for %s: %w", b.underlying.Symbol, err)
	}
	spot := spotQuote.MarketPrice()
	if math.IsNaN(spot) || spot <= 0 {
		b.logger.WithFields(logrus.Fields{
			"instrument": b.underlying.Symbol,
			"stage":      "spot",
		}).Error("No usable spot price, aborting build")
		return nil, nil, ErrNoSpotPrice
	}

	strikes := CandidateStrikes(spot, b.cfg.Right, b.cfg.Spec.Increment, b.cfg.Spec.StrikesDown)

	shortCandidates, err := b.qualifiedOptions(ctx, b.cfg.Spec.ShortDTE, strikes)
	if err != nil {
		return nil, nil, err
	}

	quotes, err := b.broker.SubscribeQuotes(ctx, shortCandidates)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing candidate quotes: %w", err)
	}
	if !WaitForGreeks(ctx, quotes, b.cfg.GreeksTimeout, b.cfg.GreeksPoll) {
		b.logger.WithFields(logrus.Fields{
			"instrument": b.underlying.Symbol,
			"stage":      "greeks",
			"timeout":    b.cfg.GreeksTimeout.String(),
		}).Warn("Greeks incomplete after polling window")
	}

	chosen, err := SelectByDelta(quotes, b.cfg.Spec.TargetDelta)
	if err != nil {
		b.logger.WithFields(logrus.Fields{
			"instrument": b.underlying.Symbol,
			"stage":      "selection",
		}).Error("Delta selection failed, aborting build")
		return nil, nil, err
	}
	short = chosen.Instrument

	longStrike := b.offsetStrike(short.Strike)
	longs, err := b.qualifiedOptions(ctx, b.cfg.Spec.LongDTE, []float64{longStrike})
	if err != nil {
		return nil, nil, err
	}
	long = longs[0]

	b.logger.WithFields(logrus.Fields{
		"underlying":   b.underlying.Symbol,
		"spot":         spot,
		"short_strike": short.Strike,
		"long_strike":  long.Strike,
		"delta":        *chosen.Delta,
	}).Info("Selected spread legs")

	return short, long, nil
}

// offsetStrike computes the long-leg strike from the short strike given the
// spread kind and right.
func (b *SpreadBuilder) offsetStrike(shortStrike float64) float64 {
	width := b.cfg.Spec.Width
	if b.cfg.Right == models.RightPut {
		if b.cfg.Kind == models.SpreadCredit {
			return shortStrike - width
		}
		return shortStrike + width
	}
	if b.cfg.Kind == models.SpreadCredit {
		return shortStrike + width
	}
	return shortStrike - width
}

// expiry returns today plus dte calendar days in YYYYMMDD form. The
// arithmetic is naive: weekends and holidays are not adjusted, so a dte
// landing on a non-listing day will fail qualification downstream.
func (b *SpreadBuilder) expiry(dte int) string {
	return b.now().AddDate(0, 0, dte).Format("20060102")
}

// qualifiedOptions builds option instruments for the given strikes and
// resolves them against the venue.
func (b *SpreadBuilder) qualifiedOptions(ctx context.Context, dte int, strikes []float64) ([]*models.Instrument, error) {
	expiry := b.expiry(dte)
	insts := make([]*models.Instrument, 0, len(strikes))
	for _, strike := range strikes {
		inst := b.class.Option(expiry, strike, b.cfg.Right)
		if err := b.broker.QualifyInstrument(ctx, inst); err != nil {
			return nil, fmt.Errorf("qualifying %s: %w", inst.Description(), err)
		}
		insts = append(insts, inst)
	}
	return insts, nil
}
