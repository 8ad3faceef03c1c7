// Package stream owns the market data connection: dial, subscribe, read,
// keepalive, boundary scheduling, and reconnect with backoff.
package stream

import (
	"sync/atomic"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/signal"
)

// PriceCell publishes the latest observed tick from the read loop to the
// decision callback. One writer, any readers; the value survives reconnects
// so a firing right after a drop still sees the last known price.
type PriceCell struct {
	tick atomic.Pointer[signal.Tick]
}

// Store publishes t as the latest observation.
func (c *PriceCell) Store(t signal.Tick) {
	c.tick.Store(&t)
}

// Latest returns the most recent observation, false before the first one.
func (c *PriceCell) Latest() (signal.Tick, bool) {
	p := c.tick.Load()
	if p == nil {
		return signal.Tick{}, false
	}
	return *p, true
}

// LatestPrice adapts Latest for price-only consumers.
func (c *PriceCell) LatestPrice() (float64, bool) {
	t, ok := c.Latest()
	return t.Price, ok
}
