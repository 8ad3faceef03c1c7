// Package replay persists one record per trading decision for offline
// analysis. The live loop only ever appends; reading is for tooling.
package replay

import (
	"fmt"
	"time"
)

// Record is one decision cycle: what the model saw and what the bot did.
type Record struct {
	Coin      string    `json:"coin"`
	Size      float64   `json:"size"`
	IsBuy     bool      `json:"is_buy"`
	Forecast  float64   `json:"forecast"`
	Feature   float64   `json:"feature"`
	Price     float64   `json:"price"`
	DecidedAt time.Time `json:"decided_at"`
}

// Sink appends decision records.
type Sink interface {
	Record(Record) error
	Close() error
}

// Reader loads previously recorded decisions, oldest first.
type Reader interface {
	All() ([]Record, error)
	Close() error
}

// Open builds the sink for the configured backend, "jsonl" or "sqlite".
func Open(backend, path string) (Sink, error) {
	switch backend {
	case "jsonl":
		return NewJSONLSink(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown replay backend %q", backend)
	}
}

// OpenReader builds the reader for the configured backend.
func OpenReader(backend, path string) (Reader, error) {
	switch backend {
	case "jsonl":
		return NewJSONLReader(path), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown replay backend %q", backend)
	}
}
