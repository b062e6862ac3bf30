package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/models"
)

// scheduleKey identifies one cached schedule: contract, calendar date in the
// exchange timezone, and the hours-preference flag.
type scheduleKey struct {
	contractID        int64
	day               string
	preferLiquidHours bool
}

// SessionManager resolves an instrument's trading-hours schedule and keeps
// the venue's data-feed mode consistent with it. Schedules are cached per
// contract per day; the feed mode is switched only when the desired mode
// differs from the last one this manager set.
type SessionManager struct {
	broker            broker.Broker
	logger            *logrus.Logger
	preferLiquidHours bool
	fallbackLoc       *time.Location
	now               func() time.Time

	mu          sync.Mutex
	cacheKey    scheduleKey
	cache       *SessionSchedule
	currentMode models.MarketDataMode // zero until the first switch
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithClock overrides the manager's clock.
func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

// WithTradingHours makes the manager use the full trading-hours text instead
// of liquid hours.
func WithTradingHours() Option {
	return func(m *SessionManager) { m.preferLiquidHours = false }
}

// NewSessionManager creates a session manager. fallbackLoc is used when the
// venue reports no timezone for a contract.
func NewSessionManager(b broker.Broker, logger *logrus.Logger, fallbackLoc *time.Location, opts ...Option) *SessionManager {
	m := &SessionManager{
		broker:            b,
		logger:            logger,
		preferLiquidHours: true,
		fallbackLoc:       fallbackLoc,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureModeForNow resolves the instrument's schedule, picks openMode or
// closedMode depending on whether the session is open right now, switches
// the venue feed if needed, and returns the mode in force.
func (m *SessionManager) EnsureModeForNow(ctx context.Context, inst *models.Instrument,
	openMode, closedMode models.MarketDataMode) (models.MarketDataMode, error) {

	sched, err := m.schedule(ctx, inst)
	if err != nil {
		return 0, err
	}

	now := m.now().In(sched.Loc)
	desired := closedMode
	if sched.IsOpenAt(now) {
		desired = openMode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if desired != m.currentMode {
		if err := m.broker.SetMarketDataMode(ctx, desired); err != nil {
			return 0, fmt.Errorf("switching market data mode to %s: %w", desired, err)
		}
		m.currentMode = desired
		state := "CLOSED"
		if desired == openMode {
			state = "OPEN"
		}
		m.logger.WithFields(logrus.Fields{
			"instrument": inst.Description(),
			"mode":       desired.String(),
			"session":    state,
		}).Info("Market data mode set")
	} else {
		m.logger.WithField("mode", desired.String()).Debug("Market data mode unchanged")
	}

	return desired, nil
}

// schedule returns the cached schedule for the instrument, rebuilding it
// when the contract, date, or hours preference changed.
func (m *SessionManager) schedule(ctx context.Context, inst *models.Instrument) (*SessionSchedule, error) {
	// Qualifying may change the contract identifier, so resolve first.
	if !inst.Qualified() {
		if err := m.broker.QualifyInstrument(ctx, inst); err != nil {
			return nil, fmt.Errorf("qualifying %s: %w", inst.Description(), err)
		}
	}

	details, err := m.broker.ContractDetails(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("contract details for %s: %w", inst.Description(), err)
	}
	if details == nil {
		return nil, fmt.Errorf("contract details for %s: %w", inst.Description(), broker.ErrNoContractDetails)
	}

	loc := m.fallbackLoc
	if details.TimeZoneID != "" {
		if l, err := time.LoadLocation(details.TimeZoneID); err == nil {
			loc = l
		} else {
			m.logger.WithField("tz", details.TimeZoneID).Warn("Unknown exchange timezone, using fallback")
		}
	}

	today := m.now().In(loc).Format("20060102")
	key := scheduleKey{contractID: details.ContractID, day: today, preferLiquidHours: m.preferLiquidHours}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cacheKey == key && m.cache != nil {
		return m.cache, nil
	}

	hoursText := details.TradingHours
	if m.preferLiquidHours {
		hoursText = details.LiquidHours
	}

	intervals, err := ParseHours(hoursText, loc, today)
	if err != nil {
		return nil, fmt.Errorf("parsing hours for %s: %w", inst.Description(), err)
	}

	sched := &SessionSchedule{Loc: loc, Intervals: intervals}
	m.cacheKey = key
	m.cache = sched
	return sched, nil
}
