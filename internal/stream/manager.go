package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/metrics"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/scheduler"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/signal"
)

// ErrSubscribeRejected marks a server error received before the subscription
// is confirmed. Redialing would fail the same way, so it ends the run instead
// of feeding the retry loop. Error frames after confirmation only end the
// epoch and reconnect.
var ErrSubscribeRejected = errors.New("stream: subscription rejected")

const (
	readIdleTimeout  = 60 * time.Second
	pingInterval     = 20 * time.Second
	writeTimeout     = 5 * time.Second
	handshakeTimeout = 10 * time.Second
)

// State describes where the manager is in the connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateDraining:
		return "draining"
	default:
		return "disconnected"
	}
}

// Config parameterizes one managed connection.
type Config struct {
	URL    string
	Coin   string
	Period time.Duration
	// Fire runs at each interval boundary while the connection epoch is
	// alive. It is never invoked concurrently with itself.
	Fire func(context.Context)
}

// Manager keeps one subscription alive across reconnects. Each connection
// epoch runs a read loop and a boundary scheduler under a shared group; the
// scheduler is torn down with the epoch, so a stale timer can never fire
// into the next connection.
type Manager struct {
	cfg   Config
	cell  *PriceCell
	log   zerolog.Logger
	state atomic.Int32
}

// NewManager wires a manager around the shared price cell.
func NewManager(cfg Config, cell *PriceCell, log zerolog.Logger) *Manager {
	return &Manager{cfg: cfg, cell: cell, log: log}
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}

type subscription struct {
	Type string `json:"type"`
	Coin string `json:"coin"`
}

type wsRequest struct {
	Method       string        `json:"method"`
	Subscription *subscription `json:"subscription,omitempty"`
}

type wsMessage struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type wsTrade struct {
	Coin string `json:"coin"`
	Side string `json:"side"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Time int64  `json:"time"`
}

// Run keeps the subscription alive until ctx is canceled or the server
// rejects it. Transient failures retry forever on an exponential ladder that
// resets after a clean server close.
func (m *Manager) Run(ctx context.Context) error {
	retry := &backoff.Backoff{Min: time.Second, Max: 30 * time.Second, Factor: 2}
	defer m.setState(StateDisconnected)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := m.runEpoch(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrSubscribeRejected):
			return err
		}
		if err == nil {
			retry.Reset()
		}
		delay := retry.Duration()
		metrics.ReconnectsTotal.Inc()
		m.log.Warn().Err(err).Dur("retry_in", delay).Msg("market stream disconnected, retrying")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runEpoch owns one connection: dial, subscribe, then a read loop and a
// boundary scheduler until either exits. It returns nil only for a clean
// server close.
func (m *Manager) runEpoch(ctx context.Context) error {
	m.setState(StateConnecting)
	defer m.setState(StateDisconnected)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(wsRequest{
		Method:       "subscribe",
		Subscription: &subscription{Type: "trades", Coin: m.cfg.Coin},
	}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	m.log.Info().Str("coin", m.cfg.Coin).Str("url", m.cfg.URL).Msg("connected market data stream")

	epochCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(epochCtx)

	g.Go(func() error {
		<-gctx.Done()
		m.setState(StateDraining)
		_ = conn.Close() // unblock a read in flight
		return nil
	})
	g.Go(func() error {
		// the epoch ends with the read loop, whatever else is running
		defer cancel()
		return m.readLoop(gctx, conn)
	})
	g.Go(func() error {
		err := scheduler.New(m.cfg.Period, m.boundaryFire, m.log).Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	err = g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (m *Manager) boundaryFire(ctx context.Context) {
	metrics.FiringsTotal.WithLabelValues(m.cfg.Coin).Inc()
	m.cfg.Fire(ctx)
}

func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go m.pingLoop(pingCtx, conn)

	subscribed := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.log.Info().Msg("server closed the stream")
				return nil
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))

		var env wsMessage
		if err := json.Unmarshal(message, &env); err != nil {
			m.log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}
		switch env.Channel {
		case "trades":
			m.handleTrades(env.Data)
		case "subscriptionResponse":
			subscribed = true
			m.setState(StateSubscribed)
			m.log.Info().Str("coin", m.cfg.Coin).Msg("trades subscription confirmed")
		case "pong":
		case "error":
			if !subscribed {
				return fmt.Errorf("%w: %s", ErrSubscribeRejected, bytes.TrimSpace(env.Data))
			}
			return fmt.Errorf("stream: server error frame: %s", bytes.TrimSpace(env.Data))
		default:
			m.log.Debug().Str("channel", env.Channel).Msg("ignoring stream message")
		}
	}
}

// handleTrades publishes the last trade of the batch as the latest price.
func (m *Manager) handleTrades(data json.RawMessage) {
	var trades []wsTrade
	if err := json.Unmarshal(data, &trades); err != nil {
		m.log.Warn().Err(err).Msg("failed to decode trades payload")
		return
	}
	if len(trades) == 0 {
		return
	}
	last := lo.LastOrEmpty(trades)
	px, err := strconv.ParseFloat(last.Px, 64)
	if err != nil {
		m.log.Warn().Err(err).Str("px", last.Px).Msg("invalid trade price")
		return
	}
	m.cell.Store(signal.Tick{Coin: last.Coin, Price: px, ObservedAt: time.UnixMilli(last.Time)})
	metrics.TicksTotal.WithLabelValues(m.cfg.Coin).Add(float64(len(trades)))
}

func (m *Manager) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(wsRequest{Method: "ping"}); err != nil {
				m.log.Warn().Err(err).Msg("stream ping failed")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
