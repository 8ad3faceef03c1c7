package hyperliquid

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vmihailenco/msgpack/v5"
)

// Signature is the r/s/v triple the exchange endpoint expects.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

// Signer authorizes L1 exchange actions for one account.
type Signer interface {
	Address() common.Address
	SignAction(action any, nonce int64, mainnet bool) (Signature, error)
}

// WalletSigner signs with a raw secp256k1 key held in memory.
type WalletSigner struct {
	key *ecdsa.PrivateKey
}

var _ Signer = (*WalletSigner)(nil)

// NewWalletSigner parses a hex-encoded private key, with or without the 0x
// prefix.
func NewWalletSigner(secretHex string) (*WalletSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(secretHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse wallet secret: %w", err)
	}
	return &WalletSigner{key: key}, nil
}

// Address returns the wallet's account address.
func (w *WalletSigner) Address() common.Address {
	return crypto.PubkeyToAddress(w.key.PublicKey)
}

// SignAction hashes the action with its nonce and signs the resulting
// phantom agent the way the exchange verifies L1 actions.
func (w *WalletSigner) SignAction(action any, nonce int64, mainnet bool) (Signature, error) {
	connectionID, err := ActionHash(action, nonce)
	if err != nil {
		return Signature{}, err
	}
	source := "b"
	if mainnet {
		source = "a"
	}
	sig, err := crypto.Sign(agentDigest(source, connectionID), w.key)
	if err != nil {
		return Signature{}, fmt.Errorf("sign action: %w", err)
	}
	return Signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: int(sig[64]) + 27,
	}, nil
}

// ActionHash is keccak256(msgpack(action) || nonce_be64 || 0x00). The
// trailing byte marks the no-vault case; msgpack field order must match the
// wire struct declaration order or the exchange recomputes a different hash.
func ActionHash(action any, nonce int64) ([]byte, error) {
	data, err := msgpack.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}
	var nb [8]byte
	binary.BigEndian.PutUint64(nb[:], uint64(nonce))
	data = append(data, nb[:]...)
	data = append(data, 0x00)
	return crypto.Keccak256(data), nil
}

var (
	eip712DomainTypeHash = crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	agentTypeHash        = crypto.Keccak256([]byte("Agent(string source,bytes32 connectionId)"))
)

// agentDigest builds the EIP-712 digest for the phantom agent
// {source, connectionId} under the Exchange/1/1337 domain.
func agentDigest(source string, connectionID []byte) []byte {
	domainSeparator := crypto.Keccak256(
		eip712DomainTypeHash,
		crypto.Keccak256([]byte("Exchange")),
		crypto.Keccak256([]byte("1")),
		uint256Word(1337),
		addressWord(common.Address{}),
	)
	agentHash := crypto.Keccak256(
		agentTypeHash,
		crypto.Keccak256([]byte(source)),
		connectionID,
	)
	return crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, agentHash)
}

func uint256Word(v uint64) []byte {
	var w [32]byte
	binary.BigEndian.PutUint64(w[24:], v)
	return w[:]
}

func addressWord(a common.Address) []byte {
	var w [32]byte
	copy(w[12:], a[:])
	return w[:]
}
