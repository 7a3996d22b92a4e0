package tokenaccount

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// WrapStrategy selects how a native-SOL token account is created for a request.
type WrapStrategy string

const (
	// WrapUnspecified defers to Config.DefaultStrategy.
	WrapUnspecified WrapStrategy = ""

	// WrapNone never creates or funds an account.
	WrapNone WrapStrategy = "none"

	// WrapAssociated uses the canonical associated token account.
	WrapAssociated WrapStrategy = "associated"

	// WrapEphemeralKeypair allocates a temporary account at a fresh keypair,
	// which must co-sign the transaction.
	WrapEphemeralKeypair WrapStrategy = "ephemeral-keypair"

	// WrapSeeded allocates a temporary account at an address derived from the
	// owner and a seed. No extra signer is needed.
	WrapSeeded WrapStrategy = "seeded"

	// WrapDefault allocates a temporary account at a fresh keypair with the
	// funding folded into the allocation (no transfer/sync).
	WrapDefault WrapStrategy = "default"
)

// ParseWrapStrategy accepts the strategy names plus the short aliases
// "ata", "keypair" and "seed".
func ParseWrapStrategy(s string) (WrapStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return WrapUnspecified, nil
	case "none":
		return WrapNone, nil
	case "associated", "ata":
		return WrapAssociated, nil
	case "ephemeral-keypair", "keypair":
		return WrapEphemeralKeypair, nil
	case "seeded", "seed":
		return WrapSeeded, nil
	case "default":
		return WrapDefault, nil
	default:
		return WrapUnspecified, fmt.Errorf("unknown wrap strategy %q", s)
	}
}

// nativeOnly reports whether the strategy only makes sense for the native mint.
func (s WrapStrategy) nativeOnly() bool {
	switch s {
	case WrapEphemeralKeypair, WrapSeeded, WrapDefault:
		return true
	default:
		return false
	}
}

// wrapInput is everything a decision-table rule needs for one account.
type wrapInput struct {
	owner             solana.PublicKey
	mint              solana.PublicKey
	tokenProgram      solana.PublicKey
	canonical         solana.PublicKey
	funder            solana.PublicKey
	unwrapDestination solana.PublicKey
	amount            uint64
	idempotent        bool
	seed              string
	rent              *lazyAmount
	newKeypair        func() (solana.PrivateKey, error)
}

type wrapOutput struct {
	address      solana.PublicKey
	instructions []solana.Instruction
	cleanup      []solana.Instruction
	signers      []solana.PrivateKey
	created      bool
}

type wrapCase struct {
	strategy WrapStrategy
	exists   bool
	funded   bool
}

type wrapRule func(ctx context.Context, in wrapInput) (wrapOutput, error)

// wrapTable holds one rule per (strategy, exists, funded) combination for
// the native mint.
var wrapTable = map[wrapCase]wrapRule{
	{WrapNone, true, false}:  useExisting,
	{WrapNone, true, true}:   rejectFunding,
	{WrapNone, false, false}: leaveAbsent,
	{WrapNone, false, true}:  rejectFunding,

	{WrapAssociated, true, false}:  useExisting,
	{WrapAssociated, true, true}:   fundExisting,
	{WrapAssociated, false, false}: createAssociated,
	{WrapAssociated, false, true}:  createAssociated,

	{WrapEphemeralKeypair, true, false}:  useExisting,
	{WrapEphemeralKeypair, true, true}:   fundExisting,
	{WrapEphemeralKeypair, false, false}: createAssociated,
	{WrapEphemeralKeypair, false, true}:  createEphemeral,

	{WrapSeeded, true, false}:  useExisting,
	{WrapSeeded, true, true}:   fundExisting,
	{WrapSeeded, false, false}: createAssociated,
	{WrapSeeded, false, true}:  createSeeded,

	{WrapDefault, true, false}:  useExisting,
	{WrapDefault, true, true}:   fundExisting,
	{WrapDefault, false, false}: createAssociated,
	{WrapDefault, false, true}:  createPrefunded,
}

func selectWrap(ctx context.Context, strategy WrapStrategy, exists bool, in wrapInput) (wrapOutput, error) {
	rule, ok := wrapTable[wrapCase{strategy: strategy, exists: exists, funded: in.amount > 0}]
	if !ok {
		return wrapOutput{}, fmt.Errorf("%w: unknown strategy %q", ErrInvalidStrategyForMint, strategy)
	}
	return rule(ctx, in)
}

func useExisting(_ context.Context, in wrapInput) (wrapOutput, error) {
	return wrapOutput{address: in.canonical}, nil
}

func leaveAbsent(_ context.Context, in wrapInput) (wrapOutput, error) {
	return wrapOutput{address: in.canonical}, nil
}

func rejectFunding(_ context.Context, in wrapInput) (wrapOutput, error) {
	return wrapOutput{}, fmt.Errorf("%w: strategy %q cannot fund %d lamports", ErrInvalidStrategyForMint, WrapNone, in.amount)
}

// fundExisting tops up an account that is already there. It was not created
// here, so it is never closed.
func fundExisting(_ context.Context, in wrapInput) (wrapOutput, error) {
	return wrapOutput{
		address:      in.canonical,
		instructions: fundingIxs(in, in.canonical),
	}, nil
}

func createAssociated(_ context.Context, in wrapInput) (wrapOutput, error) {
	ixs := []solana.Instruction{
		NewCreateAssociatedTokenAccountIx(in.funder, in.canonical, in.owner, in.mint, in.tokenProgram, in.idempotent),
	}
	ixs = append(ixs, fundingIxs(in, in.canonical)...)

	return wrapOutput{
		address:      in.canonical,
		instructions: ixs,
		cleanup:      closeIxs(in, in.canonical),
		created:      true,
	}, nil
}

func createEphemeral(ctx context.Context, in wrapInput) (wrapOutput, error) {
	rent, err := in.rent.get(ctx)
	if err != nil {
		return wrapOutput{}, err
	}
	kp, err := in.newKeypair()
	if err != nil {
		return wrapOutput{}, err
	}
	account := kp.PublicKey()

	ixs := []solana.Instruction{
		NewCreateTokenAccountIx(in.funder, account, in.tokenProgram, rent),
		NewInitializeAccount3Ix(account, in.mint, in.owner, in.tokenProgram),
	}
	ixs = append(ixs, fundingIxs(in, account)...)

	return wrapOutput{
		address:      account,
		instructions: ixs,
		cleanup:      closeIxs(in, account),
		signers:      []solana.PrivateKey{kp},
		created:      true,
	}, nil
}

func createSeeded(ctx context.Context, in wrapInput) (wrapOutput, error) {
	account, err := DeriveSeeded(in.owner, in.seed, in.tokenProgram)
	if err != nil {
		return wrapOutput{}, err
	}
	rent, err := in.rent.get(ctx)
	if err != nil {
		return wrapOutput{}, err
	}

	ixs := []solana.Instruction{
		NewCreateTokenAccountWithSeedIx(in.funder, account, in.owner, in.seed, in.tokenProgram, rent),
		NewInitializeAccount3Ix(account, in.mint, in.owner, in.tokenProgram),
	}
	ixs = append(ixs, fundingIxs(in, account)...)

	return wrapOutput{
		address:      account,
		instructions: ixs,
		cleanup:      closeIxs(in, account),
		created:      true,
	}, nil
}

func createPrefunded(ctx context.Context, in wrapInput) (wrapOutput, error) {
	rent, err := in.rent.get(ctx)
	if err != nil {
		return wrapOutput{}, err
	}
	kp, err := in.newKeypair()
	if err != nil {
		return wrapOutput{}, err
	}
	account := kp.PublicKey()

	// InitializeAccount3 on the native mint records the excess over rent as
	// the wrapped balance, so no sync is needed.
	return wrapOutput{
		address: account,
		instructions: []solana.Instruction{
			NewCreateTokenAccountIx(in.funder, account, in.tokenProgram, rent+in.amount),
			NewInitializeAccount3Ix(account, in.mint, in.owner, in.tokenProgram),
		},
		cleanup: closeIxs(in, account),
		signers: []solana.PrivateKey{kp},
		created: true,
	}, nil
}

func fundingIxs(in wrapInput, account solana.PublicKey) []solana.Instruction {
	if in.amount == 0 {
		return nil
	}
	return []solana.Instruction{
		NewSystemTransferIx(in.funder, account, in.amount),
		NewTokenSyncNativeIx(account, in.tokenProgram),
	}
}

func closeIxs(in wrapInput, account solana.PublicKey) []solana.Instruction {
	return []solana.Instruction{
		NewTokenCloseAccountIx(account, in.unwrapDestination, in.owner, in.tokenProgram),
	}
}

// lazyAmount calls its provider at most once, and only when asked.
type lazyAmount struct {
	provider FundingAmountProvider
	called   bool
	value    uint64
	err      error
}

func (l *lazyAmount) get(ctx context.Context) (uint64, error) {
	if l.called {
		return l.value, l.err
	}
	l.called = true
	if l.provider == nil {
		l.err = fmt.Errorf("funding amount provider is required")
		return 0, l.err
	}
	l.value, l.err = l.provider(ctx)
	return l.value, l.err
}
