// Package hyperliquid speaks the Hyperliquid HTTP and websocket surfaces:
// info queries, signed exchange actions, and the shared interval vocabulary.
package hyperliquid

import (
	"fmt"
	"strconv"
	"time"
)

// API endpoints.
const (
	MainnetAPIURL = "https://api.hyperliquid.xyz"
	TestnetAPIURL = "https://api.hyperliquid-testnet.xyz"
	MainnetWSURL  = "wss://api.hyperliquid.xyz/ws"
	TestnetWSURL  = "wss://api.hyperliquid-testnet.xyz/ws"
)

// Interval is a candle interval accepted by the exchange.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
	Interval1M  Interval = "1M"
)

// Intervals lists every interval the exchange accepts, shortest first.
func Intervals() []Interval {
	return []Interval{
		Interval1m, Interval3m, Interval5m, Interval15m, Interval30m,
		Interval1h, Interval2h, Interval4h, Interval8h, Interval12h,
		Interval1d, Interval3d, Interval1w, Interval1M,
	}
}

var unitMinutes = map[byte]int{'m': 1, 'h': 60, 'd': 1440, 'w': 10080, 'M': 43200}

// Minutes converts the interval to whole minutes by parsing its numeric
// prefix and scaling by the unit suffix, so "1h" is 60 and "1M" is 43200.
func (i Interval) Minutes() (int, error) {
	s := string(i)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid interval %q", s)
	}
	unit, ok := unitMinutes[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid interval unit in %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval count in %q", s)
	}
	return n * unit, nil
}

// Duration converts the interval to a time.Duration.
func (i Interval) Duration() (time.Duration, error) {
	mins, err := i.Minutes()
	if err != nil {
		return 0, err
	}
	return time.Duration(mins) * time.Minute, nil
}

// Valid reports whether the interval is one the exchange accepts.
func (i Interval) Valid() bool {
	for _, known := range Intervals() {
		if i == known {
			return true
		}
	}
	return false
}
