package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	projectrpc "github.com/aman-zulfiqar/solana-token-accounts/internal/rpc"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

// TxClient is the RPC surface needed to build and dry-run transactions.
type TxClient interface {
	GetLatestBlockhash(ctx context.Context) (*projectrpc.BlockhashValue, error)
	SimulateTransaction(ctx context.Context, txBase64 string) (*projectrpc.SimulationValue, error)
}

type Wallet struct {
	rpc    TxClient
	priv   solana.PrivateKey
	pub    solana.PublicKey
	logger *logrus.Logger
}

// New wraps an already parsed key and an RPC client.
func New(priv solana.PrivateKey, client TxClient, logger *logrus.Logger) *Wallet {
	if logger == nil {
		logger = logrus.New()
	}
	return &Wallet{
		rpc:    client,
		priv:   priv,
		pub:    priv.PublicKey(),
		logger: logger,
	}
}

func (w *Wallet) Address() string             { return w.pub.String() }
func (w *Wallet) PublicKey() solana.PublicKey { return w.pub }

// ParsePrivateKey accepts a base58 string or a solana-keygen JSON byte array.
func ParsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(b))
		}
		return solana.PrivateKey(ed25519.PrivateKey(b)), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(ed25519.PrivateKey(raw)), nil
}

// LoadPrivateKey reads a key from a keygen JSON file.
func LoadPrivateKey(path string) (solana.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: read key file: %w", err)
	}
	return ParsePrivateKey(string(b))
}
