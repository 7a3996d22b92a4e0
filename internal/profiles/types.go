package profiles

import (
	"errors"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
)

var ErrNotFound = errors.New("profile not found")

// Profile is a named set of resolver defaults.
type Profile struct {
	Name      string              `json:"name"`
	Config    tokenaccount.Config `json:"config"`
	UpdatedAt time.Time           `json:"updated_at"`
}
