// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import "time"

// Tick is the latest observed trade price for the instrument. Ticks are
// ephemeral: only the most recent one matters to the decision loop.
type Tick struct {
	Coin       string
	Price      float64
	ObservedAt time.Time
}
