package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/config"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/execution"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/feature"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/hyperliquid"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/metrics"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/model"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/paper"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/replay"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/strategy"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/stream"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	log := util.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	apiURL, wsURL := hyperliquid.MainnetAPIURL, hyperliquid.MainnetWSURL
	if cfg.Exchange.Testnet {
		apiURL, wsURL = hyperliquid.TestnetAPIURL, hyperliquid.TestnetWSURL
	}
	interval := hyperliquid.Interval(cfg.Exchange.Interval)
	period, err := interval.Duration()
	if err != nil {
		log.Fatal().Err(err).Msg("bad interval")
	}

	client := hyperliquid.NewClient(apiURL)
	info := hyperliquid.NewInfo(client)

	var cell stream.PriceCell
	venue, err := buildVenue(ctx, cfg, client, info, &cell, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build venue")
	}

	sink, err := replay.Open(cfg.Replay.Backend, cfg.Replay.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open replay sink")
	}
	defer sink.Close()

	taker := strategy.NewBasicTaker(
		cfg.Exchange.Coin,
		feature.NewLogReturn(),
		model.NewLinear(cfg.Model.Weight, cfg.Model.Bias),
		strategy.FixedSize{Coin: cfg.Exchange.Coin, Size: cfg.Trade.Size},
		execution.NewExecutor(venue, log),
		sink,
		log,
	)

	candles, err := info.LastCandles(ctx, cfg.Exchange.Coin, interval, cfg.Warmup.Lags)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch warmup candles")
	}
	taker.Warmup(lo.Map(candles, func(c hyperliquid.Candle, _ int) float64 { return c.Close }))

	manager := stream.NewManager(stream.Config{
		URL:    wsURL,
		Coin:   cfg.Exchange.Coin,
		Period: period,
		Fire: func(ctx context.Context) {
			tick, ok := cell.Latest()
			if !ok {
				metrics.SkipsTotal.WithLabelValues(cfg.Exchange.Coin, "no_price").Inc()
				log.Warn().Msg("no price observed yet, skipping boundary")
				return
			}
			taker.OnTick(ctx, tick)
		},
	}, &cell, log)

	log.Info().
		Str("coin", cfg.Exchange.Coin).
		Str("interval", string(interval)).
		Str("mode", cfg.Exchange.Mode).
		Msg("taker bot started")

	if err := manager.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("stream manager stopped")
	}
	log.Info().Msg("shutting down")
}

func buildVenue(ctx context.Context, cfg *config.Config, client *hyperliquid.Client, info *hyperliquid.Info, cell *stream.PriceCell, log zerolog.Logger) (execution.Venue, error) {
	if cfg.Exchange.Mode == "paper" {
		return paper.NewVenue(cfg.Paper.StartingCash, cell.LatestPrice, log), nil
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, err
	}
	signer, err := hyperliquid.NewWalletSigner(secrets.PrivateKey)
	if err != nil {
		return nil, err
	}
	address := secrets.AccountAddress
	if address == "" {
		address = signer.Address().Hex()
	}
	if err := checkEquity(ctx, info, address, log); err != nil {
		return nil, err
	}
	log.Info().Str("address", address).Bool("testnet", cfg.Exchange.Testnet).Msg("live trading enabled")
	return hyperliquid.NewExchange(client, info, signer, address, !cfg.Exchange.Testnet, cfg.Trade.SlippageBps), nil
}

// checkEquity refuses to start live trading against an account with no funds
// anywhere on the exchange. Spot-only accounts pass; perp orders will still
// need margin transferred to perps.
func checkEquity(ctx context.Context, info *hyperliquid.Info, address string, log zerolog.Logger) error {
	state, err := info.UserState(ctx, address)
	if err != nil {
		return fmt.Errorf("query user state: %w", err)
	}
	equity, err := state.AccountValue()
	if err != nil {
		return err
	}
	if equity > 0 {
		return nil
	}
	balances, err := info.SpotBalances(ctx, address)
	if err != nil {
		return fmt.Errorf("query spot balances: %w", err)
	}
	for _, balance := range balances {
		if total, err := strconv.ParseFloat(balance.Total, 64); err == nil && total > 0 {
			log.Warn().Str("address", address).Msg("no perp margin, only spot balances; transfer funds to perps before orders can fill")
			return nil
		}
	}
	return fmt.Errorf("account %s has no equity on the exchange (if this is an API wallet address, set HL_WALLET to the account address)", address)
}
