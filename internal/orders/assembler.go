// Package orders turns qualified spread legs into combo orders and drives
// their fill lifecycle.
package orders

import (
	"errors"
	"fmt"

	"github.com/pgannon/spreadbot/internal/models"
)

// ErrIncompleteLegs is returned when a combo leg lacks a resolved contract
// identifier.
var ErrIncompleteLegs = errors.New("orders: combo leg is not qualified")

// Assemble builds a two-leg combo order from qualified leg instruments: the
// long instrument is bought and the short instrument sold, each with ratio 1,
// both routed on the short leg's venue. Partial legs are not permitted.
func Assemble(short, long *models.Instrument) (*models.ComboOrder, error) {
	if short == nil || !short.Qualified() {
		return nil, fmt.Errorf("short leg: %w", ErrIncompleteLegs)
	}
	if long == nil || !long.Qualified() {
		return nil, fmt.Errorf("long leg: %w", ErrIncompleteLegs)
	}

	return &models.ComboOrder{
		Symbol:   short.Symbol,
		Exchange: short.Exchange,
		Currency: short.Currency,
		Legs: []models.ComboLeg{
			{ContractID: long.ContractID, Action: models.ActionBuy, Ratio: 1, Exchange: long.Exchange},
			{ContractID: short.ContractID, Action: models.ActionSell, Ratio: 1, Exchange: short.Exchange},
		},
	}, nil
}
