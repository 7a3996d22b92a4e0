package chainreader

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/metrics"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/rpc"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// AccountsClient is the subset of the RPC client the reader needs.
type AccountsClient interface {
	GetMultipleAccounts(ctx context.Context, addresses []string) (*rpc.MultipleAccountsResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
}

// Config holds reader tuning.
type Config struct {
	// ChunkSize caps keys per getMultipleAccounts request (max 100).
	ChunkSize int
	// Concurrency caps in-flight chunk requests.
	Concurrency int
	Logger      *logrus.Logger
}

// Reader reads account states over JSON-RPC. It implements
// tokenaccount.AccountFetcher.
type Reader struct {
	client      AccountsClient
	chunkSize   int
	concurrency int
	logger      *logrus.Logger
}

// New creates a Reader. Zero config fields take their defaults.
func New(client AccountsClient, cfg Config) *Reader {
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > rpc.MaxAccountsPerRequest {
		cfg.ChunkSize = rpc.MaxAccountsPerRequest
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Reader{
		client:      client,
		chunkSize:   cfg.ChunkSize,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

var _ tokenaccount.AccountFetcher = (*Reader)(nil)

// FetchStates returns one state per address, in order. Sets larger than the
// chunk size are split and fetched concurrently; the first transport error
// cancels the rest and is returned as is.
func (r *Reader) FetchStates(ctx context.Context, addresses []solana.PublicKey) ([]tokenaccount.AccountState, error) {
	out := make([]tokenaccount.AccountState, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}

	start := time.Now()
	defer func() {
		metrics.FetchLatency.Observe(time.Since(start).Seconds())
	}()
	metrics.FetchedAddresses.Add(float64(len(addresses)))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for lo := 0; lo < len(addresses); lo += r.chunkSize {
		lo := lo
		hi := min(lo+r.chunkSize, len(addresses))
		g.Go(func() error {
			return r.fetchChunk(gCtx, addresses[lo:hi], out[lo:hi])
		})
	}

	if err := g.Wait(); err != nil {
		metrics.FetchErrors.Inc()
		r.logger.WithFields(logrus.Fields{
			"addresses": len(addresses),
			"error":     err,
		}).Warn("fetch account states failed")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"addresses": len(addresses),
		"duration":  time.Since(start),
	}).Debug("fetched account states")
	return out, nil
}

func (r *Reader) fetchChunk(ctx context.Context, addresses []solana.PublicKey, out []tokenaccount.AccountState) error {
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = a.String()
	}

	metrics.FetchRequests.Inc()
	res, err := r.client.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return err
	}
	if len(res.Value) != len(addresses) {
		return fmt.Errorf("getMultipleAccounts returned %d values for %d keys", len(res.Value), len(addresses))
	}

	for i, info := range res.Value {
		if info == nil {
			out[i] = tokenaccount.MissingAccount()
			continue
		}
		st, err := decode(info)
		if err != nil {
			return fmt.Errorf("account %s: %w", addresses[i], err)
		}
		out[i] = st
	}
	return nil
}

func decode(info *rpc.AccountInfo) (tokenaccount.AccountState, error) {
	owner, err := solana.PublicKeyFromBase58(info.Owner)
	if err != nil {
		return tokenaccount.AccountState{}, fmt.Errorf("invalid owner program: %w", err)
	}
	data, err := info.DecodedData()
	if err != nil {
		return tokenaccount.AccountState{}, err
	}
	return tokenaccount.DecodeAccountState(owner, info.Lamports, data)
}

// RentExemption returns the rent-exempt minimum for a token account. Its
// signature matches tokenaccount.FundingAmountProvider.
func (r *Reader) RentExemption(ctx context.Context) (uint64, error) {
	return r.client.GetMinimumBalanceForRentExemption(ctx, tokenaccount.TokenAccountSize)
}
