// Package paper provides an in-process venue so the bot can trade with no
// credentials and no exchange behind it.
package paper

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/execution"
)

// PriceFunc reports the latest observed market price, false before the first
// trade has been seen.
type PriceFunc func() (float64, bool)

// Venue fills market orders instantly at the latest observed price while
// tracking one virtual position, cash, and realized PnL.
type Venue struct {
	price PriceFunc
	log   zerolog.Logger

	mu          sync.Mutex
	cash        float64
	realizedPnL float64
	position    *position
	fills       []execution.Fill
}

type position struct {
	size    float64
	entryPx float64
	isBuy   bool
}

// Position is a read-only view of the open virtual position.
type Position struct {
	Size    float64
	EntryPx float64
	IsBuy   bool
}

// Snapshot is a point-in-time view of the venue state.
type Snapshot struct {
	Cash        float64
	RealizedPnL float64
	Position    *Position
	Fills       int
}

var _ execution.Venue = (*Venue)(nil)

// NewVenue starts a paper account with the given bankroll; fills are priced
// by the supplied price source.
func NewVenue(startingCash float64, price PriceFunc, log zerolog.Logger) *Venue {
	return &Venue{price: price, log: log, cash: startingCash}
}

// MarketClose realizes PnL on the open position at the latest price. With no
// position it succeeds as a no-op.
func (v *Venue) MarketClose(ctx context.Context, coin string) (execution.Fill, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.position == nil {
		return execution.Fill{Coin: coin}, nil
	}
	px, ok := v.price()
	if !ok {
		return execution.Fill{}, errors.New("paper: no market price observed yet")
	}
	pos := v.position
	pnl := (px - pos.entryPx) * pos.size
	if !pos.isBuy {
		pnl = -pnl
	}
	v.realizedPnL += pnl
	v.cash += pnl
	v.position = nil

	fill := execution.Fill{Coin: coin, IsBuy: !pos.isBuy, Size: pos.size, Price: px}
	v.fills = append(v.fills, fill)
	v.log.Debug().Str("coin", coin).Float64("sz", fill.Size).Float64("px", px).Float64("pnl", pnl).Msg("paper close")
	return fill, nil
}

// MarketOpen takes a virtual position at the latest price. The venue holds
// at most one position; callers flatten before reopening.
func (v *Venue) MarketOpen(ctx context.Context, coin string, isBuy bool, size float64) (execution.Fill, error) {
	if size <= 0 {
		return execution.Fill{}, errors.New("paper: size must be positive")
	}
	px, ok := v.price()
	if !ok {
		return execution.Fill{}, errors.New("paper: no market price observed yet")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.position != nil {
		return execution.Fill{}, errors.New("paper: position already open, close first")
	}
	v.position = &position{size: size, entryPx: px, isBuy: isBuy}

	fill := execution.Fill{Coin: coin, IsBuy: isBuy, Size: size, Price: px}
	v.fills = append(v.fills, fill)
	v.log.Debug().Str("coin", coin).Bool("buy", isBuy).Float64("sz", size).Float64("px", px).Msg("paper open")
	return fill, nil
}

// Snapshot copies the current venue state.
func (v *Venue) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := Snapshot{Cash: v.cash, RealizedPnL: v.realizedPnL, Fills: len(v.fills)}
	if v.position != nil {
		snap.Position = &Position{Size: v.position.size, EntryPx: v.position.entryPx, IsBuy: v.position.isBuy}
	}
	return snap
}

// Fills copies the fill history, oldest first.
func (v *Venue) Fills() []execution.Fill {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]execution.Fill, len(v.fills))
	copy(out, v.fills)
	return out
}
