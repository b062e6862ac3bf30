package strategy

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgannon/spreadbot/internal/mock"
	"github.com/pgannon/spreadbot/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testSpec() models.VerticalSpec {
	return models.VerticalSpec{
		TargetDelta: -0.15,
		Width:       5,
		Increment:   5,
		StrikesDown: 3,
	}
}

func testClass() models.OptionClass {
	return models.OptionClass{Symbol: "SPY", Exchange: "SMART", Currency: "USD", TradingClass: "SPY"}
}

func newTestBuilder(t *testing.T, b *mock.Broker, cfg BuilderConfig) *SpreadBuilder {
	t.Helper()
	builder, err := NewSpreadBuilder(b, testLogger(), models.NewStock("SPY", "ARCA", "USD"), testClass(), cfg)
	require.NoError(t, err)
	return builder
}

func TestNewSpreadBuilder_Validation(t *testing.T) {
	b := mock.NewBroker(mock.Config{Spot: 100})
	logger := testLogger()
	underlying := models.NewStock("SPY", "ARCA", "USD")

	_, err := NewSpreadBuilder(b, logger, underlying, testClass(), BuilderConfig{
		Spec: models.VerticalSpec{}, Right: models.RightPut, Kind: models.SpreadCredit,
	})
	assert.Error(t, err, "invalid spec should be rejected")

	_, err = NewSpreadBuilder(b, logger, underlying, testClass(), BuilderConfig{
		Spec: testSpec(), Right: models.Right("X"), Kind: models.SpreadCredit,
	})
	assert.Error(t, err, "unknown right should be rejected")

	_, err = NewSpreadBuilder(b, logger, underlying, testClass(), BuilderConfig{
		Spec: testSpec(), Right: models.RightPut, Kind: models.SpreadKind("straddle"),
	})
	assert.Error(t, err, "unknown kind should be rejected")
}

func TestSpreadBuilder_BuildPutCreditSpread(t *testing.T) {
	b := mock.NewBroker(mock.Config{
		Spot:   100,
		Deltas: map[float64]float64{100: -0.10, 95: -0.18, 90: -0.30},
	})
	builder := newTestBuilder(t, b, BuilderConfig{
		Spec:          testSpec(),
		Right:         models.RightPut,
		Kind:          models.SpreadCredit,
		GreeksTimeout: 200 * time.Millisecond,
		GreeksPoll:    5 * time.Millisecond,
	})

	short, long, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 95.0, short.Strike, "delta -0.18 is nearest to the -0.15 target")
	assert.Equal(t, 90.0, long.Strike, "long strike sits Width below the short")
	assert.True(t, short.Qualified())
	assert.True(t, long.Qualified())
	assert.Equal(t, models.RightPut, short.Right)
	assert.Equal(t, models.RightPut, long.Right)

	today := time.Now().Format("20060102")
	assert.Equal(t, today, short.Expiry)
	assert.Equal(t, today, long.Expiry)
}

func TestSpreadBuilder_NoSpotPrice(t *testing.T) {
	b := mock.NewBroker(mock.Config{Spot: 0})
	builder := newTestBuilder(t, b, BuilderConfig{
		Spec:          testSpec(),
		Right:         models.RightPut,
		Kind:          models.SpreadCredit,
		GreeksTimeout: 50 * time.Millisecond,
		GreeksPoll:    5 * time.Millisecond,
	})

	_, _, err := builder.Build(context.Background())
	assert.True(t, errors.Is(err, ErrNoSpotPrice))
}

func TestSpreadBuilder_NoGreeksArrive(t *testing.T) {
	b := mock.NewBroker(mock.Config{Spot: 100}) // no deltas configured
	builder := newTestBuilder(t, b, BuilderConfig{
		Spec:          testSpec(),
		Right:         models.RightPut,
		Kind:          models.SpreadCredit,
		GreeksTimeout: 20 * time.Millisecond,
		GreeksPoll:    5 * time.Millisecond,
	})

	_, _, err := builder.Build(context.Background())
	assert.True(t, errors.Is(err, ErrNoGreeksAvailable))
}

func TestSpreadBuilder_OffsetStrike(t *testing.T) {
	tests := []struct {
		name  string
		right models.Right
		kind  models.SpreadKind
		want  float64
	}{
		{"put credit protects below", models.RightPut, models.SpreadCredit, 95},
		{"put debit targets above", models.RightPut, models.SpreadDebit, 105},
		{"call credit protects above", models.RightCall, models.SpreadCredit, 105},
		{"call debit targets below", models.RightCall, models.SpreadDebit, 95},
	}

	b := mock.NewBroker(mock.Config{Spot: 100})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := newTestBuilder(t, b, BuilderConfig{
				Spec:  testSpec(),
				Right: tt.right,
				Kind:  tt.kind,
			})
			assert.Equal(t, tt.want, builder.offsetStrike(100))
		})
	}
}

func TestSpreadBuilder_ExpiryArithmetic(t *testing.T) {
	b := mock.NewBroker(mock.Config{Spot: 100})
	builder := newTestBuilder(t, b, BuilderConfig{
		Spec:  testSpec(),
		Right: models.RightPut,
		Kind:  models.SpreadCredit,
	})
	builder.now = func() time.Time { return time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC) }

	assert.Equal(t, "20250103", builder.expiry(0))
	assert.Equal(t, "20250110", builder.expiry(7))
	// Calendar days, not trading days: Jan 4 2025 is a Saturday.
	assert.Equal(t, "20250104", builder.expiry(1))
}
