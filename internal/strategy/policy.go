// Package strategy turns forecasts into orders once per interval boundary.
package strategy

import (
	"github.com/moznion/go-optional"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/execution"
)

// Policy maps a forecast to an order intent, or none.
type Policy interface {
	Decide(forecast float64) optional.Option[execution.Intent]
}

var _ Policy = FixedSize{}

// FixedSize trades a constant size in the forecast's direction. A zero
// forecast trades nothing.
type FixedSize struct {
	Coin string
	Size float64
}

// Decide buys on a positive forecast, sells on a negative one.
func (p FixedSize) Decide(forecast float64) optional.Option[execution.Intent] {
	if forecast == 0 {
		return optional.None[execution.Intent]()
	}
	return optional.Some(execution.Intent{Coin: p.Coin, Size: p.Size, IsBuy: forecast > 0})
}
