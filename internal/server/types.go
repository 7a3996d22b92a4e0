package server

import (
	"github.com/aman-zulfiqar/solana-token-accounts/internal/planview"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"`
}

// ResolveOptions are the per-request overrides shared by single and batch
// resolution. Profile selects a stored config as the base.
type ResolveOptions struct {
	Profile            string `json:"profile,omitempty"`
	Funder             string `json:"funder,omitempty"`
	UnwrapDestination  string `json:"unwrap_destination,omitempty"`
	Idempotent         *bool  `json:"idempotent,omitempty"`
	AllowOffCurveOwner *bool  `json:"allow_off_curve_owner,omitempty"`
	Strategy           string `json:"strategy,omitempty"` // none | associated | ephemeral-keypair | seeded | default
	Seed               string `json:"seed,omitempty"`
}

// ResolveRequest resolves one token account
type ResolveRequest struct {
	ResolveOptions
	Owner         string `json:"owner"`
	Mint          string `json:"mint"`                     // base58 or a known symbol (SOL, USDC, ...)
	TokenProgram  string `json:"token_program,omitempty"`  // "token", "token-2022" or base58
	FundingAmount uint64 `json:"funding_amount,omitempty"` // lamports to wrap (native mint only)
}

// BatchEntryRequest is one mint of a batch
type BatchEntryRequest struct {
	Mint          string `json:"mint"`
	TokenProgram  string `json:"token_program,omitempty"`
	FundingAmount uint64 `json:"funding_amount,omitempty"`
}

// BatchResolveRequest resolves several mints for one owner with one chain read
type BatchResolveRequest struct {
	ResolveOptions
	Owner   string              `json:"owner"`
	Entries []BatchEntryRequest `json:"entries"`
}

// PlanResponse is a resolved plan, including ephemeral signer secrets
type PlanResponse = planview.Plan

// BatchResolveResponse holds plans in request order
type BatchResolveResponse struct {
	Items []PlanResponse `json:"items"`
}

// DerivedAccount is one derived address
type DerivedAccount struct {
	Mint      string `json:"mint"`
	Canonical string `json:"canonical"`
}

// DeriveResponse lists derived addresses for an owner
type DeriveResponse struct {
	Owner         string           `json:"owner"`
	OwnerOffCurve bool             `json:"owner_off_curve"`
	TokenProgram  string           `json:"token_program"`
	Accounts      []DerivedAccount `json:"accounts"`
	Seeded        string           `json:"seeded,omitempty"`
}

// ProfileUpsertRequest creates or replaces a profile
type ProfileUpsertRequest struct {
	Name   string              `json:"name"`
	Config tokenaccount.Config `json:"config"`
}

// ProfileUpdateRequest replaces the config of an existing profile name
type ProfileUpdateRequest struct {
	Config tokenaccount.Config `json:"config"`
}
