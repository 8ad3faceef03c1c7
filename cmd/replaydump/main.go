// Binary replaydump prints the decision history recorded by the trading loop.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SaveMeASpark20/hl-trading-bot/internal/config"
	"github.com/SaveMeASpark20/hl-trading-bot/internal/replay"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	reader, err := replay.OpenReader(cfg.Replay.Backend, cfg.Replay.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open replay store: %v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	records, err := reader.All()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read records: %v\n", err)
		os.Exit(1)
	}

	var buys, sells int
	for _, rec := range records {
		side := "sell"
		if rec.IsBuy {
			side = "buy"
			buys++
		} else {
			sells++
		}
		fmt.Printf("%s  %-4s %s %.6f  forecast=%+.6f feature=%+.6f px=%.4f\n",
			rec.DecidedAt.Format(time.RFC3339), side, rec.Coin, rec.Size, rec.Forecast, rec.Feature, rec.Price)
	}
	fmt.Printf("%d decisions (%d buys, %d sells)\n", len(records), buys, sells)
}
