package stream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
)

var testUpgrader = websocket.Upgrader{}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// tradeServer upgrades each connection and hands it to script. Close of the
// test server waits for handlers, so scripts must return once their
// connection dies.
func tradeServer(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		script(conn)
	}))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func readSubscribe(t *testing.T, conn *websocket.Conn, coin string) bool {
	t.Helper()
	var req wsRequest
	if err := conn.ReadJSON(&req); err != nil {
		return false
	}
	if req.Method != "subscribe" || req.Subscription == nil {
		t.Errorf("unexpected first frame: %+v", req)
		return false
	}
	if req.Subscription.Type != "trades" || req.Subscription.Coin != coin {
		t.Errorf("unexpected subscription: %+v", *req.Subscription)
		return false
	}
	return true
}

func TestRetryLadder(t *testing.T) {
	retry := &backoff.Backoff{Min: time.Second, Max: 30 * time.Second, Factor: 2}
	want := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for i, expected := range want {
		if got := retry.Duration(); got != expected {
			t.Fatalf("attempt %d: expected %v, got %v", i, expected, got)
		}
	}
	retry.Reset()
	if got := retry.Duration(); got != time.Second {
		t.Fatalf("expected reset to %v, got %v", time.Second, got)
	}
}

func TestManagerStoresLastTradeOfBatch(t *testing.T) {
	server := tradeServer(t, func(conn *websocket.Conn) {
		if !readSubscribe(t, conn, "ETH") {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"subscriptionResponse","data":{"method":"subscribe","subscription":{"type":"trades","coin":"ETH"}}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"trades","data":[{"coin":"ETH","side":"B","px":"2500.5","sz":"0.1","time":1700000000000},{"coin":"ETH","side":"A","px":"2600.25","sz":"0.2","time":1700000001000}]}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cell PriceCell
	manager := NewManager(Config{
		URL:    wsURL(server),
		Coin:   "ETH",
		Period: time.Hour,
		Fire:   func(context.Context) {},
	}, &cell, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- manager.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool {
		px, ok := cell.LatestPrice()
		return ok && px == 2600.25
	})
	tick, _ := cell.Latest()
	if tick.Coin != "ETH" || !tick.ObservedAt.Equal(time.UnixMilli(1700000001000)) {
		t.Fatalf("unexpected tick: %+v", tick)
	}
	waitFor(t, 2*time.Second, func() bool { return manager.State() == StateSubscribed })

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if manager.State() != StateDisconnected {
		t.Fatalf("expected disconnected after Run, got %v", manager.State())
	}
}

func TestManagerReconnectsAfterDrop(t *testing.T) {
	var conns atomic.Int32
	server := tradeServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		if !readSubscribe(t, conn, "BTC") {
			return
		}
		if n == 1 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"trades","data":[{"coin":"BTC","side":"B","px":"97000","sz":"0.01","time":1700000000000}]}`))
			return // drop without a close frame
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"trades","data":[{"coin":"BTC","side":"B","px":"97500","sz":"0.01","time":1700000002000}]}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cell PriceCell
	manager := NewManager(Config{
		URL:    wsURL(server),
		Coin:   "BTC",
		Period: time.Hour,
		Fire:   func(context.Context) {},
	}, &cell, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- manager.Run(ctx) }()

	// first epoch price, then the drop and a ~1s retry before the second
	waitFor(t, 2*time.Second, func() bool {
		px, ok := cell.LatestPrice()
		return ok && px == 97000
	})
	waitFor(t, 3*time.Second, func() bool {
		px, ok := cell.LatestPrice()
		return ok && px == 97500
	})
	if got := conns.Load(); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestManagerReconnectsAfterLateErrorFrame(t *testing.T) {
	var conns atomic.Int32
	server := tradeServer(t, func(conn *websocket.Conn) {
		n := conns.Add(1)
		if !readSubscribe(t, conn, "ETH") {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"subscriptionResponse","data":{"method":"subscribe","subscription":{"type":"trades","coin":"ETH"}}}`))
		if n == 1 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"trades","data":[{"coin":"ETH","side":"B","px":"2500","sz":"0.1","time":1700000000000}]}`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"error","data":"Rate limited"}`))
		} else {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"trades","data":[{"coin":"ETH","side":"B","px":"2510","sz":"0.1","time":1700000002000}]}`))
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cell PriceCell
	manager := NewManager(Config{
		URL:    wsURL(server),
		Coin:   "ETH",
		Period: time.Hour,
		Fire:   func(context.Context) {},
	}, &cell, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- manager.Run(ctx) }()

	// the error frame lands after the subscription is confirmed, so it ends
	// the epoch but not the run
	waitFor(t, 2*time.Second, func() bool {
		px, ok := cell.LatestPrice()
		return ok && px == 2500
	})
	waitFor(t, 3*time.Second, func() bool {
		px, ok := cell.LatestPrice()
		return ok && px == 2510
	})
	if got := conns.Load(); got != 2 {
		t.Fatalf("expected a redial after the error frame, got %d connections", got)
	}
	waitFor(t, 2*time.Second, func() bool { return manager.State() == StateSubscribed })

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestManagerStopsOnServerRejection(t *testing.T) {
	var conns atomic.Int32
	server := tradeServer(t, func(conn *websocket.Conn) {
		conns.Add(1)
		if !readSubscribe(t, conn, "ETH") {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"error","data":"Invalid subscription: trades"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cell PriceCell
	manager := NewManager(Config{
		URL:    wsURL(server),
		Coin:   "ETH",
		Period: time.Hour,
		Fire:   func(context.Context) {},
	}, &cell, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- manager.Run(ctx) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrSubscribeRejected) {
			t.Fatalf("expected ErrSubscribeRejected, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after server rejection")
	}
	if got := conns.Load(); got != 1 {
		t.Fatalf("expected no redial after rejection, got %d connections", got)
	}
}
