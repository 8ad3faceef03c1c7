package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/execution"
)

// Exchange places signed orders through the /exchange endpoint. It satisfies
// execution.Venue with IOC aggressive-limit orders, the API's shape of a
// market order.
type Exchange struct {
	c        *Client
	info     *Info
	signer   Signer
	account  string
	mainnet  bool
	slippage float64

	mu     sync.Mutex
	assets map[string]assetMeta
}

type assetMeta struct {
	id         int
	szDecimals int
}

var _ execution.Venue = (*Exchange)(nil)

// NewExchange builds the live trading surface. account is the address whose
// positions are traded; empty means the signer's own address (they differ
// when signing with an API wallet). slippageBps bounds how far past mid the
// IOC limit price may cross, e.g. 500 for 5%.
func NewExchange(c *Client, info *Info, signer Signer, account string, mainnet bool, slippageBps float64) *Exchange {
	if account == "" {
		account = signer.Address().Hex()
	}
	return &Exchange{
		c:        c,
		info:     info,
		signer:   signer,
		account:  account,
		mainnet:  mainnet,
		slippage: slippageBps / 10_000,
	}
}

// Wire structs are msgpack-hashed for signing; field order must stay exactly
// as the exchange serializes them.
type limitTif struct {
	Tif string `msgpack:"tif" json:"tif"`
}

type orderTypeWire struct {
	Limit *limitTif `msgpack:"limit,omitempty" json:"limit,omitempty"`
}

type orderWire struct {
	Asset      int           `msgpack:"a" json:"a"`
	IsBuy      bool          `msgpack:"b" json:"b"`
	LimitPx    string        `msgpack:"p" json:"p"`
	Size       string        `msgpack:"s" json:"s"`
	ReduceOnly bool          `msgpack:"r" json:"r"`
	Type       orderTypeWire `msgpack:"t" json:"t"`
	Cloid      string        `msgpack:"c,omitempty" json:"c,omitempty"`
}

type orderAction struct {
	Type     string      `msgpack:"type" json:"type"`
	Orders   []orderWire `msgpack:"orders" json:"orders"`
	Grouping string      `msgpack:"grouping" json:"grouping"`
}

type exchangeRequest struct {
	Action       any       `json:"action"`
	Nonce        int64     `json:"nonce"`
	Signature    Signature `json:"signature"`
	VaultAddress *string   `json:"vaultAddress"`
}

type exchangeResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type orderStatuses struct {
	Type string `json:"type"`
	Data struct {
		Statuses []orderStatus `json:"statuses"`
	} `json:"data"`
}

type orderStatus struct {
	Resting *struct {
		Oid int64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		TotalSz string `json:"totalSz"`
		AvgPx   string `json:"avgPx"`
		Oid     int64  `json:"oid"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

// MarketOpen takes a position at mid adjusted by the slippage allowance.
func (e *Exchange) MarketOpen(ctx context.Context, coin string, isBuy bool, size float64) (execution.Fill, error) {
	px, err := e.slippagePrice(ctx, coin, isBuy)
	if err != nil {
		return execution.Fill{}, fmt.Errorf("market open %s: %w", coin, err)
	}
	return e.place(ctx, coin, isBuy, size, px, false)
}

// MarketClose flattens the current position with a reduce-only IOC order.
// Already flat is success: a zero fill and no error.
func (e *Exchange) MarketClose(ctx context.Context, coin string) (execution.Fill, error) {
	state, err := e.info.UserState(ctx, e.account)
	if err != nil {
		return execution.Fill{}, fmt.Errorf("market close %s: %w", coin, err)
	}
	szi, err := state.SignedPosition(coin)
	if err != nil {
		return execution.Fill{}, fmt.Errorf("market close %s: %w", coin, err)
	}
	if szi == 0 {
		return execution.Fill{Coin: coin}, nil
	}
	isBuy := szi < 0
	px, err := e.slippagePrice(ctx, coin, isBuy)
	if err != nil {
		return execution.Fill{}, fmt.Errorf("market close %s: %w", coin, err)
	}
	return e.place(ctx, coin, isBuy, math.Abs(szi), px, true)
}

func (e *Exchange) place(ctx context.Context, coin string, isBuy bool, size float64, limitPx string, reduceOnly bool) (execution.Fill, error) {
	asset, err := e.asset(ctx, coin)
	if err != nil {
		return execution.Fill{}, err
	}
	cloid := NewCloid()
	action := orderAction{
		Type: "order",
		Orders: []orderWire{{
			Asset:      asset.id,
			IsBuy:      isBuy,
			LimitPx:    limitPx,
			Size:       FormatSize(size, asset.szDecimals),
			ReduceOnly: reduceOnly,
			Type:       orderTypeWire{Limit: &limitTif{Tif: "Ioc"}},
			Cloid:      cloid,
		}},
		Grouping: "na",
	}
	nonce := time.Now().UnixMilli()
	sig, err := e.signer.SignAction(action, nonce, e.mainnet)
	if err != nil {
		return execution.Fill{}, err
	}

	var resp exchangeResponse
	if err := e.c.post(ctx, "/exchange", exchangeRequest{Action: action, Nonce: nonce, Signature: sig}, &resp); err != nil {
		return execution.Fill{}, err
	}
	if resp.Status != "ok" {
		return execution.Fill{}, fmt.Errorf("exchange rejected order: %s", resp.Response)
	}
	var statuses orderStatuses
	if err := json.Unmarshal(resp.Response, &statuses); err != nil {
		return execution.Fill{}, fmt.Errorf("decode order response: %w", err)
	}
	if len(statuses.Data.Statuses) == 0 {
		return execution.Fill{}, fmt.Errorf("order response carried no status")
	}

	status := statuses.Data.Statuses[0]
	switch {
	case status.Error != "":
		return execution.Fill{}, fmt.Errorf("order rejected: %s", status.Error)
	case status.Filled != nil:
		totalSz, err := strconv.ParseFloat(status.Filled.TotalSz, 64)
		if err != nil {
			return execution.Fill{}, fmt.Errorf("bad fill size %q: %w", status.Filled.TotalSz, err)
		}
		avgPx, err := strconv.ParseFloat(status.Filled.AvgPx, 64)
		if err != nil {
			return execution.Fill{}, fmt.Errorf("bad fill price %q: %w", status.Filled.AvgPx, err)
		}
		return execution.Fill{
			Coin:    coin,
			IsBuy:   isBuy,
			Size:    totalSz,
			Price:   avgPx,
			OrderID: status.Filled.Oid,
			Cloid:   cloid,
		}, nil
	case status.Resting != nil:
		// an IOC should never rest; report it unfilled
		return execution.Fill{Coin: coin, IsBuy: isBuy, OrderID: status.Resting.Oid, Cloid: cloid}, nil
	default:
		return execution.Fill{}, fmt.Errorf("order response carried empty status")
	}
}

func (e *Exchange) slippagePrice(ctx context.Context, coin string, isBuy bool) (string, error) {
	mids, err := e.info.AllMids(ctx)
	if err != nil {
		return "", err
	}
	mid, ok := mids[coin]
	if !ok {
		return "", fmt.Errorf("no mid price for %s", coin)
	}
	px := mid * (1 - e.slippage)
	if isBuy {
		px = mid * (1 + e.slippage)
	}
	return FormatPrice(px), nil
}

func (e *Exchange) asset(ctx context.Context, coin string) (assetMeta, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.assets == nil {
		meta, err := e.info.Meta(ctx)
		if err != nil {
			return assetMeta{}, fmt.Errorf("load universe: %w", err)
		}
		assets := make(map[string]assetMeta, len(meta.Universe))
		for id, a := range meta.Universe {
			assets[a.Name] = assetMeta{id: id, szDecimals: a.SzDecimals}
		}
		e.assets = assets
	}
	a, ok := e.assets[coin]
	if !ok {
		return assetMeta{}, fmt.Errorf("coin %s not in perp universe", coin)
	}
	return a, nil
}

// FormatPrice renders px with five significant figures and at most six
// decimals, the form the exchange accepts for perp limit prices.
func FormatPrice(px float64) string {
	d, err := decimal.NewFromString(strconv.FormatFloat(px, 'g', 5, 64))
	if err != nil {
		d = decimal.NewFromFloat(px)
	}
	return d.Round(6).String()
}

// FormatSize renders sz rounded to the asset's size decimals.
func FormatSize(sz float64, szDecimals int) string {
	return decimal.NewFromFloat(sz).Round(int32(szDecimals)).String()
}

// NewCloid makes a 16-byte hex client order id from a random uuid.
func NewCloid() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
