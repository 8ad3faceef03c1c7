// Package execution handles order lifecycle and interaction with venues.
package execution

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/metrics"
)

// Intent is a decided trade: direction and size for the configured coin.
type Intent struct {
	Coin  string
	Size  float64
	IsBuy bool
}

// Side renders the direction for logs and records.
func (i Intent) Side() string {
	if i.IsBuy {
		return "buy"
	}
	return "sell"
}

// Fill reports what a venue did with one order step. A zero-size fill from
// MarketClose means there was no position to flatten.
type Fill struct {
	Coin    string
	IsBuy   bool
	Size    float64
	Price   float64
	OrderID int64
	Cloid   string
}

// Venue executes market orders. MarketClose flattens any open position and
// succeeds as a no-op when already flat; MarketOpen takes a fresh position.
type Venue interface {
	MarketClose(ctx context.Context, coin string) (Fill, error)
	MarketOpen(ctx context.Context, coin string, isBuy bool, size float64) (Fill, error)
}

// Report carries the per-step outcomes of one close-then-open cycle.
type Report struct {
	Intent   Intent
	Close    Fill
	CloseErr error
	Open     Fill
	OpenErr  error
}

// Executor drives close-then-open cycles against a venue.
type Executor struct {
	venue Venue
	log   zerolog.Logger
}

// NewExecutor wires a venue behind the executor.
func NewExecutor(venue Venue, log zerolog.Logger) *Executor {
	return &Executor{venue: venue, log: log}
}

// Execute flattens the previous position, then opens the intended one. Step
// failures are logged and reported, never escalated: a failed close does not
// block the open, and a failed open does not take down the trading loop.
func (e *Executor) Execute(ctx context.Context, intent Intent) Report {
	report := Report{Intent: intent}

	report.Close, report.CloseErr = e.venue.MarketClose(ctx, intent.Coin)
	if report.CloseErr != nil {
		metrics.OrdersTotal.WithLabelValues(intent.Coin, "close", "error").Inc()
		e.log.Error().Err(report.CloseErr).Str("coin", intent.Coin).Msg("market close failed")
	} else {
		metrics.OrdersTotal.WithLabelValues(intent.Coin, "close", "ok").Inc()
		if report.Close.Size > 0 {
			e.log.Info().Str("coin", intent.Coin).Float64("sz", report.Close.Size).Float64("px", report.Close.Price).Msg("closed position")
		}
	}

	report.Open, report.OpenErr = e.venue.MarketOpen(ctx, intent.Coin, intent.IsBuy, intent.Size)
	if report.OpenErr != nil {
		metrics.OrdersTotal.WithLabelValues(intent.Coin, "open", "error").Inc()
		e.log.Error().Err(report.OpenErr).Str("coin", intent.Coin).Str("side", intent.Side()).Float64("sz", intent.Size).Msg("market open failed")
	} else {
		metrics.OrdersTotal.WithLabelValues(intent.Coin, "open", "ok").Inc()
		e.log.Info().Str("coin", intent.Coin).Str("side", intent.Side()).Float64("sz", report.Open.Size).Float64("px", report.Open.Price).Msg("opened position")
	}
	return report
}
