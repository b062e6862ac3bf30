package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/mock"
	"github.com/pgannon/spreadbot/internal/models"
)

func TestHistorySpec_DurationString(t *testing.T) {
	tests := []struct {
		name string
		spec HistorySpec
		want string
	}{
		{"seconds for intraday windows", HistorySpec{BarSize: BarMin1, Length: 55}, "3300 S"},
		{"exactly one hour stays in seconds", HistorySpec{BarSize: BarMin1, Length: 60}, "3600 S"},
		{"warmup counts toward the window", HistorySpec{BarSize: BarMin1, Length: 30, WarmupBars: 25}, "3300 S"},
		{"few days padded", HistorySpec{BarSize: BarDay1, Length: 2}, "5 D"},
		{"weeks", HistorySpec{BarSize: BarDay1, Length: 10}, "3 W"},
		{"months", HistorySpec{BarSize: BarDay1, Length: 100}, "6 M"},
		{"years", HistorySpec{BarSize: BarDay1, Length: 400}, "2 Y"},
		{"hourly bars spill into days", HistorySpec{BarSize: BarHour1, Length: 2}, "3 D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.DurationString())
		})
	}
}

func trendBars(closes ...float64) []broker.Bar {
	bars := make([]broker.Bar, len(closes))
	for i, c := range closes {
		bars[i] = broker.Bar{Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func rangeCloses(from, to float64) []float64 {
	var out []float64
	if from <= to {
		for c := from; c <= to; c++ {
			out = append(out, c)
		}
		return out
	}
	for c := from; c >= to; c-- {
		out = append(out, c)
	}
	return out
}

func TestCloseAboveMovingAverage(t *testing.T) {
	history := HistorySpec{BarSize: BarDay1, Length: 20, WhatToShow: "TRADES", UseRTH: true}
	inst := models.NewStock("SPY", "ARCA", "USD")

	t.Run("uptrend is ready", func(t *testing.T) {
		b := mock.NewBroker(mock.Config{Bars: trendBars(rangeCloses(1, 25)...)})
		f := NewCloseAboveMovingAverage(b, testLogger(), inst, history, MASimple)

		ready, err := f.Evaluate(context.Background())
		require.NoError(t, err)
		assert.True(t, ready)
	})

	t.Run("downtrend is not ready", func(t *testing.T) {
		b := mock.NewBroker(mock.Config{Bars: trendBars(rangeCloses(25, 1)...)})
		f := NewCloseAboveMovingAverage(b, testLogger(), inst, history, MASimple)

		ready, err := f.Evaluate(context.Background())
		require.NoError(t, err)
		assert.False(t, ready)
	})

	t.Run("too few bars is an error", func(t *testing.T) {
		b := mock.NewBroker(mock.Config{Bars: trendBars(rangeCloses(1, 5)...)})
		f := NewCloseAboveMovingAverage(b, testLogger(), inst, history, MASimple)

		_, err := f.Evaluate(context.Background())
		assert.Error(t, err)
	})
}

func TestMovingAverage(t *testing.T) {
	closes := []float64{2, 4, 6}

	sma, err := movingAverage(closes, 2, MASimple)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, sma, 1e-9)

	// EMA with k = 2/3 over the full series, seeded from the first close:
	// 2 -> 10/3 -> 46/9.
	ema, err := movingAverage(closes, 2, MAExponential)
	require.NoError(t, err)
	assert.InDelta(t, 46.0/9.0, ema, 1e-9)

	// WMA over the last two closes: (4*1 + 6*2) / 3.
	wma, err := movingAverage(closes, 2, MAWeighted)
	require.NoError(t, err)
	assert.InDelta(t, 16.0/3.0, wma, 1e-9)

	_, err = movingAverage(closes, 2, MAType("hull"))
	assert.Error(t, err)
}

func TestMoveUpFromOpen(t *testing.T) {
	history := HistorySpec{BarSize: BarDay1, Length: 1, WhatToShow: "TRADES", UseRTH: true}
	inst := models.NewStock("SPY", "ARCA", "USD")

	t.Run("move above threshold is ready", func(t *testing.T) {
		b := mock.NewBroker(mock.Config{Bars: []broker.Bar{{Open: 100, Close: 101}}})
		f := NewMoveUpFromOpen(b, testLogger(), inst, 0.005, history)

		ready, err := f.Evaluate(context.Background())
		require.NoError(t, err)
		assert.True(t, ready)
	})

	t.Run("move below threshold is not ready", func(t *testing.T) {
		b := mock.NewBroker(mock.Config{Bars: []broker.Bar{{Open: 100, Close: 100.2}}})
		f := NewMoveUpFromOpen(b, testLogger(), inst, 0.005, history)

		ready, err := f.Evaluate(context.Background())
		require.NoError(t, err)
		assert.False(t, ready)
	})

	t.Run("down day is not ready", func(t *testing.T) {
		b := mock.NewBroker(mock.Config{Bars: []broker.Bar{{Open: 100, Close: 99}}})
		f := NewMoveUpFromOpen(b, testLogger(), inst, 0.005, history)

		ready, err := f.Evaluate(context.Background())
		require.NoError(t, err)
		assert.False(t, ready)
	})

	t.Run("invalid open is an error", func(t *testing.T) {
		b := mock.NewBroker(mock.Config{Bars: []broker.Bar{{Open: 0, Close: 100}}})
		f := NewMoveUpFromOpen(b, testLogger(), inst, 0.005, history)

		_, err := f.Evaluate(context.Background())
		assert.Error(t, err)
	})
}
