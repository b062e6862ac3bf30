package broker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/mock"
	"github.com/pgannon/spreadbot/internal/models"
)

func TestCircuitBreakerBroker_PassesCallsThrough(t *testing.T) {
	inner := mock.NewBroker(mock.Config{Spot: 100})
	cb := broker.NewCircuitBreakerBroker(inner)
	ctx := context.Background()

	inst := models.NewStock("SPY", "ARCA", "USD")
	require.NoError(t, cb.QualifyInstrument(ctx, inst))
	assert.True(t, inst.Qualified())

	quote, err := cb.GetQuote(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, 100.0, quote.MarketPrice())

	require.NoError(t, cb.SetMarketDataMode(ctx, models.ModeFrozen))
	assert.Equal(t, []models.MarketDataMode{models.ModeFrozen}, inner.ModeSwitches())

	details, err := cb.ContractDetails(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, inst.ContractID, details.ContractID)
}

func TestCircuitBreakerBroker_OpensAfterRepeatedFailures(t *testing.T) {
	inner := mock.NewBroker(mock.Config{NoDetails: true})
	cb := broker.NewCircuitBreakerBrokerWithSettings(inner, broker.CircuitBreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.6,
	})
	ctx := context.Background()
	inst := models.NewStock("SPY", "ARCA", "USD")

	for i := 0; i < 3; i++ {
		_, err := cb.ContractDetails(ctx, inst)
		require.Error(t, err)
		assert.True(t, errors.Is(err, broker.ErrNoContractDetails))
	}

	// The breaker has tripped; calls now fail fast without hitting the venue.
	before := inner.DetailsCalls()
	_, err := cb.ContractDetails(ctx, inst)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, before, inner.DetailsCalls())
}
