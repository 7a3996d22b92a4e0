package tokenaccount

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// fakeFetcher serves states from a map and counts calls.
type fakeFetcher struct {
	mu     sync.Mutex
	states map[solana.PublicKey]AccountState
	calls  int
	seen   [][]solana.PublicKey
	err    error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{states: make(map[solana.PublicKey]AccountState)}
}

func (f *fakeFetcher) FetchStates(_ context.Context, addrs []solana.PublicKey) ([]AccountState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.seen = append(f.seen, append([]solana.PublicKey(nil), addrs...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([]AccountState, len(addrs))
	for i, a := range addrs {
		out[i] = f.states[a]
	}
	return out, nil
}

// put registers an SPL token account owned by owner at addr.
func (f *fakeFetcher) put(addr, mint, owner, program solana.PublicKey) {
	f.states[addr] = AccountState{
		Exists:       true,
		Owner:        owner.ToPointer(),
		OwnerProgram: program.ToPointer(),
		Mint:         mint.ToPointer(),
		Lamports:     2039280,
	}
}

type countingProvider struct {
	calls  int
	amount uint64
	err    error
}

func (p *countingProvider) provide(context.Context) (uint64, error) {
	p.calls++
	return p.amount, p.err
}

func newTestResolver(t *testing.T, f AccountFetcher, cfg Config) *Resolver {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	r := NewResolver(f, cfg, logger)
	r.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return r
}

func tokenAccountData(mint, owner solana.PublicKey) []byte {
	data := make([]byte, TokenAccountSize)
	copy(data[0:32], mint.Bytes())
	copy(data[32:64], owner.Bytes())
	binary.LittleEndian.PutUint64(data[64:72], 42)
	data[108] = 1 // initialized
	return data
}

func ixData(t *testing.T, ix solana.Instruction) []byte {
	t.Helper()
	data, err := ix.Data()
	require.NoError(t, err)
	return data
}

// ixKind names an instruction by program and tag.
func ixKind(t *testing.T, ix solana.Instruction) string {
	t.Helper()
	data := ixData(t, ix)
	program := ix.ProgramID()

	switch {
	case program.Equals(AssociatedTokenProgramID):
		if len(data) > 0 && data[0] == ataCreateIdempotent {
			return "ata-create-idempotent"
		}
		return "ata-create"
	case program.Equals(solana.SystemProgramID):
		require.GreaterOrEqual(t, len(data), 4)
		switch binary.LittleEndian.Uint32(data[:4]) {
		case 0:
			return "system-create"
		case 2:
			return "system-transfer"
		case 3:
			return "system-create-with-seed"
		}
	case program.IsAnyOf(solana.TokenProgramID, solana.Token2022ProgramID):
		require.NotEmpty(t, data)
		switch data[0] {
		case tokenCloseAccount:
			return "token-close"
		case tokenSyncNative:
			return "token-sync"
		case tokenInitializeAccount3:
			return "token-init3"
		}
	}
	return fmt.Sprintf("unknown(%s)", program)
}

func ixKinds(t *testing.T, ixs []solana.Instruction) []string {
	t.Helper()
	out := make([]string, 0, len(ixs))
	for _, ix := range ixs {
		out = append(out, ixKind(t, ix))
	}
	return out
}

// ledger applies associated-token-account creation semantics to a set of
// existing accounts. Other instructions are accepted as no-ops.
type ledger struct {
	accounts map[solana.PublicKey]AccountState
}

func newLedger() *ledger {
	return &ledger{accounts: make(map[solana.PublicKey]AccountState)}
}

func (l *ledger) create(addr, mint, owner, program solana.PublicKey) {
	l.accounts[addr] = AccountState{
		Exists:       true,
		Owner:        owner.ToPointer(),
		OwnerProgram: program.ToPointer(),
		Mint:         mint.ToPointer(),
	}
}

func (l *ledger) execute(t *testing.T, ixs []solana.Instruction) error {
	t.Helper()
	for i, ix := range ixs {
		if !ix.ProgramID().Equals(AssociatedTokenProgramID) {
			continue
		}
		data := ixData(t, ix)
		accts := ix.Accounts()
		ata, owner, mint, program := accts[1].PublicKey, accts[2].PublicKey, accts[3].PublicKey, accts[5].PublicKey

		existing, ok := l.accounts[ata]
		switch {
		case !ok:
			l.create(ata, mint, owner, program)
		case data[0] == ataCreateIdempotent && existing.Owner.Equals(owner) && existing.Mint.Equals(mint):
			// already initialized for the same owner and mint
		default:
			return fmt.Errorf("instruction %d: account %s already in use", i, ata)
		}
	}
	return nil
}
