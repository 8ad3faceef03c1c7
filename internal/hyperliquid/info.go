package hyperliquid

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Info wraps the read-only /info endpoint.
type Info struct {
	c *Client
}

// NewInfo builds an info API over an existing client.
func NewInfo(c *Client) *Info { return &Info{c: c} }

type infoRequest struct {
	Type string     `json:"type"`
	User string     `json:"user,omitempty"`
	Req  *candleReq `json:"req,omitempty"`
}

type candleReq struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type candleWire struct {
	OpenMs  int64  `json:"t"`
	CloseMs int64  `json:"T"`
	Coin    string `json:"s"`
	Open    string `json:"o"`
	High    string `json:"h"`
	Low     string `json:"l"`
	Close   string `json:"c"`
	Volume  string `json:"v"`
	Trades  int    `json:"n"`
}

// Candle is one OHLCV bar.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Trades    int
}

// CandleSnapshot fetches candles for coin covering [start, end].
func (i *Info) CandleSnapshot(ctx context.Context, coin string, interval Interval, start, end time.Time) ([]Candle, error) {
	req := infoRequest{
		Type: "candleSnapshot",
		Req: &candleReq{
			Coin:      coin,
			Interval:  string(interval),
			StartTime: start.UnixMilli(),
			EndTime:   end.UnixMilli(),
		},
	}
	var wires []candleWire
	if err := i.c.post(ctx, "/info", req, &wires); err != nil {
		return nil, fmt.Errorf("candle snapshot: %w", err)
	}
	candles := make([]Candle, 0, len(wires))
	for _, w := range wires {
		c, err := w.parse()
		if err != nil {
			return nil, fmt.Errorf("candle snapshot: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// LastCandles fetches the n most recent candles for coin, using a lookback
// window of n interval lengths ending now.
func (i *Info) LastCandles(ctx context.Context, coin string, interval Interval, n int) ([]Candle, error) {
	d, err := interval.Duration()
	if err != nil {
		return nil, err
	}
	end := time.Now()
	start := end.Add(-time.Duration(n) * d)
	candles, err := i.CandleSnapshot(ctx, coin, interval, start, end)
	if err != nil {
		return nil, err
	}
	if len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	return candles, nil
}

func (w candleWire) parse() (Candle, error) {
	c := Candle{
		OpenTime:  time.UnixMilli(w.OpenMs),
		CloseTime: time.UnixMilli(w.CloseMs),
		Trades:    w.Trades,
	}
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{w.Open, &c.Open}, {w.High, &c.High}, {w.Low, &c.Low},
		{w.Close, &c.Close}, {w.Volume, &c.Volume},
	} {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return Candle{}, fmt.Errorf("bad candle field %q: %w", f.raw, err)
		}
		*f.dst = v
	}
	return c, nil
}

// UserState is the perp clearinghouse view of one account.
type UserState struct {
	MarginSummary  MarginSummary   `json:"marginSummary"`
	AssetPositions []AssetPosition `json:"assetPositions"`
}

// MarginSummary carries account-level balances as decimal strings.
type MarginSummary struct {
	AccountValue string `json:"accountValue"`
	TotalNtlPos  string `json:"totalNtlPos"`
	TotalRawUsd  string `json:"totalRawUsd"`
}

// AssetPosition wraps one open position.
type AssetPosition struct {
	Position Position `json:"position"`
}

// Position is a signed perp position; Szi is negative when short.
type Position struct {
	Coin    string `json:"coin"`
	Szi     string `json:"szi"`
	EntryPx string `json:"entryPx"`
}

// AccountValue parses the account equity.
func (u *UserState) AccountValue() (float64, error) {
	v, err := strconv.ParseFloat(u.MarginSummary.AccountValue, 64)
	if err != nil {
		return 0, fmt.Errorf("bad accountValue %q: %w", u.MarginSummary.AccountValue, err)
	}
	return v, nil
}

// SignedPosition returns the signed position size for coin, zero when flat.
func (u *UserState) SignedPosition(coin string) (float64, error) {
	for _, ap := range u.AssetPositions {
		if ap.Position.Coin != coin {
			continue
		}
		szi, err := strconv.ParseFloat(ap.Position.Szi, 64)
		if err != nil {
			return 0, fmt.Errorf("bad position size %q: %w", ap.Position.Szi, err)
		}
		return szi, nil
	}
	return 0, nil
}

// UserState queries the perp clearinghouse state for address.
func (i *Info) UserState(ctx context.Context, address string) (*UserState, error) {
	var out UserState
	if err := i.c.post(ctx, "/info", infoRequest{Type: "clearinghouseState", User: address}, &out); err != nil {
		return nil, fmt.Errorf("user state: %w", err)
	}
	return &out, nil
}

// SpotBalance is one spot holding.
type SpotBalance struct {
	Coin  string `json:"coin"`
	Total string `json:"total"`
	Hold  string `json:"hold"`
}

// SpotBalances queries the spot balances for address.
func (i *Info) SpotBalances(ctx context.Context, address string) ([]SpotBalance, error) {
	var out struct {
		Balances []SpotBalance `json:"balances"`
	}
	if err := i.c.post(ctx, "/info", infoRequest{Type: "spotClearinghouseState", User: address}, &out); err != nil {
		return nil, fmt.Errorf("spot balances: %w", err)
	}
	return out.Balances, nil
}

// AssetInfo describes one tradeable perp.
type AssetInfo struct {
	Name       string `json:"name"`
	SzDecimals int    `json:"szDecimals"`
}

// Meta is the perp universe; asset ids are positions in Universe.
type Meta struct {
	Universe []AssetInfo `json:"universe"`
}

// Meta queries the perp universe.
func (i *Info) Meta(ctx context.Context) (*Meta, error) {
	var out Meta
	if err := i.c.post(ctx, "/info", infoRequest{Type: "meta"}, &out); err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}
	return &out, nil
}

// AllMids queries the current mid price for every coin.
func (i *Info) AllMids(ctx context.Context) (map[string]float64, error) {
	var wire map[string]string
	if err := i.c.post(ctx, "/info", infoRequest{Type: "allMids"}, &wire); err != nil {
		return nil, fmt.Errorf("all mids: %w", err)
	}
	mids := make(map[string]float64, len(wire))
	for coin, raw := range wire {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad mid %q for %s: %w", raw, coin, err)
		}
		mids[coin] = v
	}
	return mids, nil
}
