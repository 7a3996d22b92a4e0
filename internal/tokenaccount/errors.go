package tokenaccount

import "errors"

var (
	// ErrOffCurveOwnerDisallowed is returned when the owner is a program-derived
	// address and the request did not opt in with AllowOffCurveOwner.
	ErrOffCurveOwnerDisallowed = errors.New("owner is off-curve and off-curve owners are not allowed")

	// ErrOwnershipChanged is returned when an account already exists at the
	// canonical address but is no longer controlled by the expected owner.
	// Callers must re-derive intent instead of retrying.
	ErrOwnershipChanged = errors.New("token account ownership changed")

	// ErrInvalidStrategyForMint is returned when a native-only wrapping strategy
	// is requested for another mint, or when funding is requested with a
	// strategy (or mint) that cannot carry it.
	ErrInvalidStrategyForMint = errors.New("wrapping strategy is invalid for mint")

	// ErrInvalidInput marks malformed requests: zero keys, bad seeds and
	// duplicate batch entries.
	ErrInvalidInput = errors.New("invalid resolve input")
)

// IsRejection reports whether err is one of the resolver's policy rejections
// rather than a transport or input failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrOffCurveOwnerDisallowed) ||
		errors.Is(err, ErrOwnershipChanged) ||
		errors.Is(err, ErrInvalidStrategyForMint)
}
