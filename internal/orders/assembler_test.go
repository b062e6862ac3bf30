package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgannon/spreadbot/internal/models"
)

func qualifiedOption(strike float64, contractID int64) *models.Instrument {
	return &models.Instrument{
		Symbol:     "SPY",
		SecType:    models.SecTypeOption,
		Exchange:   "SMART",
		Currency:   "USD",
		Expiry:     "20250103",
		Strike:     strike,
		Right:      models.RightPut,
		ContractID: contractID,
	}
}

func TestAssemble(t *testing.T) {
	short := qualifiedOption(95, 1001)
	long := qualifiedOption(90, 1002)

	combo, err := Assemble(short, long)
	require.NoError(t, err)

	assert.Equal(t, "SPY", combo.Symbol)
	assert.Equal(t, "SMART", combo.Exchange)
	assert.Equal(t, "USD", combo.Currency)
	require.Len(t, combo.Legs, 2)

	buy, sell := combo.Legs[0], combo.Legs[1]
	assert.Equal(t, models.ActionBuy, buy.Action)
	assert.Equal(t, int64(1002), buy.ContractID)
	assert.Equal(t, 1, buy.Ratio)
	assert.Equal(t, models.ActionSell, sell.Action)
	assert.Equal(t, int64(1001), sell.ContractID)
	assert.Equal(t, 1, sell.Ratio)
}

func TestAssemble_RejectsUnqualifiedLegs(t *testing.T) {
	short := qualifiedOption(95, 1001)
	long := qualifiedOption(90, 1002)

	_, err := Assemble(qualifiedOption(95, 0), long)
	assert.True(t, errors.Is(err, ErrIncompleteLegs))

	_, err = Assemble(short, qualifiedOption(90, 0))
	assert.True(t, errors.Is(err, ErrIncompleteLegs))

	_, err = Assemble(nil, long)
	assert.True(t, errors.Is(err, ErrIncompleteLegs))

	_, err = Assemble(short, nil)
	assert.True(t, errors.Is(err, ErrIncompleteLegs))
}
