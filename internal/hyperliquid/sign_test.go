package hyperliquid

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// well-known throwaway development key
const testSecret = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testAction() orderAction {
	return orderAction{
		Type: "order",
		Orders: []orderWire{{
			Asset:   1,
			IsBuy:   true,
			LimitPx: "2625",
			Size:    "0.0002",
			Type:    orderTypeWire{Limit: &limitTif{Tif: "Ioc"}},
		}},
		Grouping: "na",
	}
}

func TestActionHashDeterministic(t *testing.T) {
	h1, err := ActionHash(testAction(), 1700000000000)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	h2, err := ActionHash(testAction(), 1700000000000)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if len(h1) != 32 {
		t.Fatalf("hash length %d, want 32", len(h1))
	}
	if string(h1) != string(h2) {
		t.Fatal("same action and nonce must hash identically")
	}

	h3, err := ActionHash(testAction(), 1700000000001)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if string(h1) == string(h3) {
		t.Fatal("nonce must change the action hash")
	}
}

func TestSignActionRecoversWalletAddress(t *testing.T) {
	signer, err := NewWalletSigner(testSecret)
	if err != nil {
		t.Fatalf("NewWalletSigner error: %v", err)
	}

	const nonce = 1700000000000
	sig, err := signer.SignAction(testAction(), nonce, false)
	if err != nil {
		t.Fatalf("SignAction error: %v", err)
	}
	if sig.V != 27 && sig.V != 28 {
		t.Fatalf("v = %d, want 27 or 28", sig.V)
	}

	connectionID, err := ActionHash(testAction(), nonce)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	digest := agentDigest("b", connectionID)

	raw := append(hexutil.MustDecode(sig.R), hexutil.MustDecode(sig.S)...)
	raw = append(raw, byte(sig.V-27))
	pub, err := crypto.SigToPub(digest, raw)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if got := crypto.PubkeyToAddress(*pub); got != signer.Address() {
		t.Fatalf("recovered %s, want %s", got.Hex(), signer.Address().Hex())
	}
}

func TestSignActionMainnetAndTestnetDiffer(t *testing.T) {
	signer, err := NewWalletSigner("0x" + testSecret)
	if err != nil {
		t.Fatalf("NewWalletSigner error: %v", err)
	}
	main, err := signer.SignAction(testAction(), 1, true)
	if err != nil {
		t.Fatalf("sign mainnet: %v", err)
	}
	test, err := signer.SignAction(testAction(), 1, false)
	if err != nil {
		t.Fatalf("sign testnet: %v", err)
	}
	if main == test {
		t.Fatal("phantom agent source must separate mainnet and testnet signatures")
	}
}

func TestNewWalletSignerRejectsGarbage(t *testing.T) {
	if _, err := NewWalletSigner("not-a-key"); err == nil {
		t.Fatal("expected error for malformed secret")
	}
}
