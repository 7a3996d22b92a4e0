package server

import (
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/constants"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
)

// parsePubkey parses a required base58 key and rejects the zero key.
func parsePubkey(field, s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is required", field)
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s must be a base58 public key", field)
	}
	if pk.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("%s must not be the zero key", field)
	}
	return pk, nil
}

// parseOptionalPubkey returns the zero key for an empty value.
func parseOptionalPubkey(field, s string) (solana.PublicKey, error) {
	if strings.TrimSpace(s) == "" {
		return solana.PublicKey{}, nil
	}
	return parsePubkey(field, s)
}

// parseMint accepts a base58 mint or a known symbol.
func parseMint(s string) (solana.PublicKey, error) {
	return parsePubkey("mint", constants.MintAddress(s))
}

func parseTokenProgram(s string) (solana.PublicKey, error) {
	pk, err := tokenaccount.ParseTokenProgram(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("token_program must be token, token-2022 or a base58 program id")
	}
	return pk, nil
}

func validateSeed(seed string) error {
	if len(seed) > solana.MaxSeedLength {
		return fmt.Errorf("seed must be at most %d bytes", solana.MaxSeedLength)
	}
	return nil
}

// resolveInput is the parsed form of ResolveOptions.
type resolveInput struct {
	funder            solana.PublicKey
	unwrapDestination solana.PublicKey
	strategy          tokenaccount.WrapStrategy
}

func parseOptions(o ResolveOptions) (resolveInput, map[string]any) {
	var (
		in      resolveInput
		err     error
		details = map[string]any{}
	)
	if in.funder, err = parseOptionalPubkey("funder", o.Funder); err != nil {
		details["funder"] = err.Error()
	}
	if in.unwrapDestination, err = parseOptionalPubkey("unwrap_destination", o.UnwrapDestination); err != nil {
		details["unwrap_destination"] = err.Error()
	}
	if in.strategy, err = tokenaccount.ParseWrapStrategy(o.Strategy); err != nil {
		details["strategy"] = err.Error()
	}
	if err := validateSeed(o.Seed); err != nil {
		details["seed"] = err.Error()
	}
	if len(details) > 0 {
		return in, details
	}
	return in, nil
}
