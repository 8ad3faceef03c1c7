// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, metrics address, and logging level.
type App struct {
	Name        string `validate:"required"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Exchange describes which venue the bot trades and on what cadence.
type Exchange struct {
	Mode     string `validate:"oneof=paper live"`
	Testnet  bool
	Coin     string `validate:"required"`
	Interval string `validate:"oneof=1m 3m 5m 15m 30m 1h 2h 4h 8h 12h 1d 3d 1w 1M"`
}

// Trade fixes the order size and the slippage allowance for taker orders.
type Trade struct {
	Size        float64 `validate:"gt=0"`
	SlippageBps float64 `yaml:"slippage_bps" validate:"gte=0"`
}

// Model holds the affine forecast coefficients.
type Model struct {
	Weight float64
	Bias   float64
}

// Warmup sizes the historical candle fetch that primes the feature engine.
// Two lags is the minimum that yields a log return on the first firing.
type Warmup struct {
	Lags int `validate:"gte=2"`
}

// Paper captures paper-trading account settings.
type Paper struct {
	StartingCash float64 `yaml:"starting_cash" validate:"gte=0"`
}

// Replay selects where per-firing decision records are persisted.
type Replay struct {
	Backend string `validate:"oneof=jsonl sqlite"`
	Path    string `validate:"required"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Trade    Trade    `yaml:"trade"`
	Model    Model    `yaml:"model"`
	Warmup   Warmup   `yaml:"warmup"`
	Paper    Paper    `yaml:"paper"`
	Replay   Replay   `yaml:"replay"`
}

var validate = validator.New()

// Load reads a YAML file from disk, hydrates a Config struct, and validates
// it. A config that loads without error is safe to run against.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &config, nil
}
