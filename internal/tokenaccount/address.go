package tokenaccount

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

var (
	// SPL Associated Token Account program
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID

	// Native mint of the Token-2022 program
	NativeMint2022 = solana.MustPublicKeyFromBase58("9pan9bMn5HatX4EJdBwg9VgCa7Uz5HL8N1m5D3NdXejP")
)

// normalizeTokenProgram maps the zero key to the legacy SPL Token program.
func normalizeTokenProgram(tokenProgram solana.PublicKey) solana.PublicKey {
	if tokenProgram.IsZero() {
		return solana.TokenProgramID
	}
	return tokenProgram
}

// DeriveCanonical derives the associated token account for (mint, owner, tokenProgram).
func DeriveCanonical(mint, owner, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if err := requirePubkey(mint, "mint"); err != nil {
		return solana.PublicKey{}, err
	}
	if err := requirePubkey(owner, "owner"); err != nil {
		return solana.PublicKey{}, err
	}
	tokenProgram = normalizeTokenProgram(tokenProgram)

	// Seeds: [owner, token_program, mint]
	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			tokenProgram.Bytes(),
			mint.Bytes(),
		},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return ata, nil
}

// DeriveSeeded derives the address of an account created with
// CreateAccountWithSeed(base=owner, seed) and assigned to tokenProgram.
func DeriveSeeded(owner solana.PublicKey, seed string, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if err := requirePubkey(owner, "owner"); err != nil {
		return solana.PublicKey{}, err
	}
	if seed == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: seed is empty", ErrInvalidInput)
	}
	if len(seed) > solana.MaxSeedLength {
		return solana.PublicKey{}, fmt.Errorf("%w: seed is %d bytes, max %d", ErrInvalidInput, len(seed), solana.MaxSeedLength)
	}
	addr, err := solana.CreateWithSeed(owner, seed, normalizeTokenProgram(tokenProgram))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive seeded address: %w", err)
	}
	return addr, nil
}

// TimeSeed returns the seed used when the caller supplies none.
func TimeSeed(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// NewEphemeralKeypair returns a fresh keypair for a temporary wrapper account.
func NewEphemeralKeypair() (solana.PrivateKey, error) {
	kp, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral keypair: %w", err)
	}
	return kp, nil
}

// IsOffCurve reports whether addr is a program-derived address rather than
// an ed25519 wallet key.
func IsOffCurve(addr solana.PublicKey) bool {
	return !addr.IsOnCurve()
}

// IsNativeMint reports whether mint is the wrapped-SOL mint for tokenProgram.
func IsNativeMint(mint, tokenProgram solana.PublicKey) bool {
	if normalizeTokenProgram(tokenProgram).Equals(solana.Token2022ProgramID) {
		return mint.Equals(NativeMint2022)
	}
	return mint.Equals(solana.SolMint)
}

// ParseTokenProgram accepts "token", "token-2022" or a base58 program id.
// Empty means legacy SPL Token.
func ParseTokenProgram(s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "token", "spl-token":
		return solana.TokenProgramID, nil
	case "token-2022", "token2022":
		return solana.Token2022ProgramID, nil
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("token program must be token, token-2022 or a base58 program id")
	}
	return pk, nil
}

func requirePubkey(pk solana.PublicKey, name string) error {
	if pk.IsZero() {
		return fmt.Errorf("%w: %s is zero", ErrInvalidInput, name)
	}
	return nil
}
