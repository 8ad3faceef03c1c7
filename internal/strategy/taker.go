package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rs/zerolog"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/execution"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/feature"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/metrics"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/model"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/replay"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/signal"
)

// BasicTaker runs one decision cycle per tick it is handed: update the
// feature, predict, decide, and execute close-then-open. Nothing in the
// cycle escalates into the caller; degraded steps are logged, counted, and
// skipped.
type BasicTaker struct {
	coin      string
	lag       feature.Ticker[float64, float64]
	predictor model.Predictor
	policy    Policy
	executor  *execution.Executor
	sink      replay.Sink
	log       zerolog.Logger
}

// NewBasicTaker assembles the decision pipeline. sink may be nil when replay
// recording is disabled.
func NewBasicTaker(
	coin string,
	lag feature.Ticker[float64, float64],
	predictor model.Predictor,
	policy Policy,
	executor *execution.Executor,
	sink replay.Sink,
	log zerolog.Logger,
) *BasicTaker {
	return &BasicTaker{
		coin:      coin,
		lag:       lag,
		predictor: predictor,
		policy:    policy,
		executor:  executor,
		sink:      sink,
		log:       log,
	}
}

// Warmup seeds the feature with historical closes so the first live firing
// can already predict. Domain errors in history are logged and skipped.
func (s *BasicTaker) Warmup(closes []float64) {
	for _, px := range closes {
		if _, err := s.lag.OnTick(px); err != nil {
			s.log.Warn().Err(err).Float64("close", px).Msg("skipped warmup candle")
		}
	}
	s.log.Info().Int("candles", len(closes)).Msg("feature warmed up")
}

// OnTick runs one decision cycle against the given price observation and
// returns the execution report when an order pair was attempted.
func (s *BasicTaker) OnTick(ctx context.Context, tick signal.Tick) optional.Option[execution.Report] {
	lag, err := s.lag.OnTick(tick.Price)
	if err != nil {
		metrics.SkipsTotal.WithLabelValues(s.coin, "feature_error").Inc()
		s.log.Warn().Err(err).Float64("px", tick.Price).Msg("feature rejected price, skipping decision")
		return optional.None[execution.Report]()
	}

	forecast, err := s.predictor.Predict(lag)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientHistory) {
			metrics.SkipsTotal.WithLabelValues(s.coin, "warming_up").Inc()
			s.log.Debug().Msg("not enough history to predict yet")
		} else {
			metrics.SkipsTotal.WithLabelValues(s.coin, "predict_error").Inc()
			s.log.Warn().Err(err).Msg("prediction failed, skipping decision")
		}
		return optional.None[execution.Report]()
	}

	intent := s.policy.Decide(forecast)
	if intent.IsNone() {
		metrics.SkipsTotal.WithLabelValues(s.coin, "no_trade").Inc()
		s.log.Debug().Float64("forecast", forecast).Msg("no trade for flat forecast")
		return optional.None[execution.Report]()
	}

	decided := intent.Unwrap()
	s.log.Info().
		Str("coin", decided.Coin).
		Str("side", decided.Side()).
		Float64("sz", decided.Size).
		Float64("forecast", forecast).
		Float64("px", tick.Price).
		Msg("executing decision")
	report := s.executor.Execute(ctx, decided)

	s.record(decided, forecast, lag.Unwrap(), tick.Price)
	return optional.Some(report)
}

func (s *BasicTaker) record(intent execution.Intent, forecast, lag, price float64) {
	if s.sink == nil {
		return
	}
	rec := replay.Record{
		Coin:      intent.Coin,
		Size:      intent.Size,
		IsBuy:     intent.IsBuy,
		Forecast:  forecast,
		Feature:   lag,
		Price:     price,
		DecidedAt: time.Now().UTC(),
	}
	if err := s.sink.Record(rec); err != nil {
		s.log.Warn().Err(err).Msg("replay record failed")
	}
}
