package server

import (
	"net/http"
	"strings"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/constants"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/labstack/echo/v4"
)

// Derive returns the canonical addresses of one or more mints for an owner.
// Query: owner (required), mint (comma separated, required), token_program,
// seed (also derive the seeded wrapper address).
// It never touches the chain.
func (h *Handlers) Derive(c echo.Context) error {
	details := map[string]any{}

	owner, err := ownerKey(c)
	if err != nil {
		details["owner"] = err.Error()
	}
	program, err := parseTokenProgram(c.QueryParam("token_program"))
	if err != nil {
		details["token_program"] = err.Error()
	}
	mints := splitCSVQuery(c.QueryParam("mint"))
	switch {
	case len(mints) == 0:
		details["mint"] = "required"
	case len(mints) > constants.MaxBatchEntries:
		details["mint"] = "too many mints"
	}
	seed := c.QueryParam("seed")
	if err := validateSeed(seed); err != nil {
		details["seed"] = err.Error()
	}
	if len(details) > 0 {
		return h.err(c, http.StatusBadRequest, "invalid query", details)
	}

	resp := DeriveResponse{
		Owner:         owner.String(),
		OwnerOffCurve: tokenaccount.IsOffCurve(owner),
		TokenProgram:  program.String(),
		Accounts:      make([]DerivedAccount, 0, len(mints)),
	}
	for _, m := range mints {
		mint, err := parseMint(m)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid query", map[string]any{"mint": err.Error()})
		}
		ata, err := tokenaccount.DeriveCanonical(mint, owner, program)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "failed to derive address", map[string]any{"err": err.Error()})
		}
		resp.Accounts = append(resp.Accounts, DerivedAccount{Mint: mint.String(), Canonical: ata.String()})
	}

	if seed != "" {
		seeded, err := tokenaccount.DeriveSeeded(owner, seed, program)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "failed to derive address", map[string]any{"err": err.Error()})
		}
		resp.Seeded = seeded.String()
	}

	return c.JSON(http.StatusOK, resp)
}

// splitCSVQuery splits a comma separated query value, dropping empty parts.
func splitCSVQuery(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
