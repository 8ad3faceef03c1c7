// Package config also sources signing material from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Secrets carries live-trading credentials. They never appear in the YAML
// file.
type Secrets struct {
	// PrivateKey is the hex-encoded secp256k1 key that signs exchange
	// actions.
	PrivateKey string
	// AccountAddress optionally names the account to query when the key is
	// an API wallet. Empty means the address derived from the key.
	AccountAddress string
}

// LoadSecrets reads credentials from the environment, consulting a .env file
// first when one exists.
func LoadSecrets() (Secrets, error) {
	_ = godotenv.Load()
	key := strings.TrimSpace(os.Getenv("HL_SECRET"))
	if key == "" {
		return Secrets{}, fmt.Errorf("HL_SECRET is not set")
	}
	return Secrets{
		PrivateKey:     key,
		AccountAddress: strings.TrimSpace(os.Getenv("HL_WALLET")),
	}, nil
}
