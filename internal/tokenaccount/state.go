package tokenaccount

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// TokenAccountSize is the base size of an SPL token account.
const TokenAccountSize = 165

// AccountState is a snapshot of one address taken at fetch time. It can be
// stale by the time a plan built from it executes.
type AccountState struct {
	Exists bool

	// Owner is the token-account authority decoded from the account data.
	// Nil when the account does not exist or is not a token account.
	Owner *solana.PublicKey

	// OwnerProgram is the program the account is assigned to.
	OwnerProgram *solana.PublicKey

	Mint     *solana.PublicKey
	Lamports uint64
}

// AccountFetcher reads the state of many addresses in one round trip.
// Missing accounts come back with Exists=false and no error.
type AccountFetcher interface {
	FetchStates(ctx context.Context, addresses []solana.PublicKey) ([]AccountState, error)
}

// FundingAmountProvider returns the lamports needed to fund a new token
// account (normally the rent-exemption minimum).
type FundingAmountProvider func(ctx context.Context) (uint64, error)

// MissingAccount is the state of an address with no account.
func MissingAccount() AccountState {
	return AccountState{}
}

// DecodeAccountState builds an AccountState from raw account fields. Data
// that is not an SPL token account layout yields a state with a nil Owner.
func DecodeAccountState(programOwner solana.PublicKey, lamports uint64, data []byte) (AccountState, error) {
	state := AccountState{
		Exists:       true,
		OwnerProgram: programOwner.ToPointer(),
		Lamports:     lamports,
	}

	if !programOwner.IsAnyOf(solana.TokenProgramID, solana.Token2022ProgramID) {
		return state, nil
	}
	if len(data) < TokenAccountSize {
		// mints and multisigs are shorter than token accounts
		return state, nil
	}

	var acc token.Account
	if err := bin.NewBinDecoder(data).Decode(&acc); err != nil {
		return AccountState{}, fmt.Errorf("decode token account: %w", err)
	}
	state.Owner = acc.Owner.ToPointer()
	state.Mint = acc.Mint.ToPointer()
	return state, nil
}
