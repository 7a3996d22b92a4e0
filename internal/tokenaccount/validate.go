package tokenaccount

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Validate checks an observed account against the expected owner before any
// instruction is built. Rules apply in order: off-curve gating first, then
// ownership of an existing account.
func Validate(
	observed AccountState,
	expectedOwner solana.PublicKey,
	expectedProgram solana.PublicKey,
	ownerIsOffCurve bool,
	allowOffCurveOwner bool,
) error {
	if ownerIsOffCurve && !allowOffCurveOwner {
		return fmt.Errorf("%w: %s", ErrOffCurveOwnerDisallowed, expectedOwner)
	}

	if !observed.Exists {
		return nil
	}

	if observed.OwnerProgram != nil && !observed.OwnerProgram.Equals(normalizeTokenProgram(expectedProgram)) {
		return fmt.Errorf("%w: account is assigned to program %s, expected %s",
			ErrOwnershipChanged, *observed.OwnerProgram, normalizeTokenProgram(expectedProgram))
	}
	if observed.Owner == nil {
		return fmt.Errorf("%w: account is not a token account", ErrOwnershipChanged)
	}
	if !observed.Owner.Equals(expectedOwner) {
		return fmt.Errorf("%w: owner is %s, expected %s", ErrOwnershipChanged, *observed.Owner, expectedOwner)
	}
	return nil
}
