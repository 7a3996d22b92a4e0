// Package planview renders resolved plans as JSON-friendly values for the
// API and the CLI.
package planview

import (
	"encoding/base64"
	"fmt"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
)

// AccountMeta is an instruction account
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// Instruction is an instruction ready to be placed in a transaction
type Instruction struct {
	ProgramID string        `json:"program_id"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"` // base64
}

// Signer is an ephemeral keypair the caller must sign with. The key only
// controls the address, never the token account.
type Signer struct {
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"` // base58
}

// Plan is a resolved plan
type Plan struct {
	ID                  string        `json:"id"`
	Owner               string        `json:"owner"`
	Address             string        `json:"address"`
	Mint                string        `json:"mint"`
	TokenProgram        string        `json:"token_program"`
	Strategy            string        `json:"strategy"`
	Created             bool          `json:"created"`
	Usable              bool          `json:"usable"`
	Instructions        []Instruction `json:"instructions"`
	CleanupInstructions []Instruction `json:"cleanup_instructions"`
	Signers             []Signer      `json:"signers"`
}

func Instructions(ixs []solana.Instruction) ([]Instruction, error) {
	out := make([]Instruction, 0, len(ixs))
	for _, ix := range ixs {
		data, err := ix.Data()
		if err != nil {
			return nil, fmt.Errorf("encode instruction data: %w", err)
		}
		metas := ix.Accounts()
		accounts := make([]AccountMeta, 0, len(metas))
		for _, m := range metas {
			accounts = append(accounts, AccountMeta{
				Pubkey:     m.PublicKey.String(),
				IsSigner:   m.IsSigner,
				IsWritable: m.IsWritable,
			})
		}
		out = append(out, Instruction{
			ProgramID: ix.ProgramID().String(),
			Accounts:  accounts,
			Data:      base64.StdEncoding.EncodeToString(data),
		})
	}
	return out, nil
}

// FromPlan renders p. Ephemeral secret keys are included; strip them before
// logging.
func FromPlan(p *tokenaccount.Plan) (Plan, error) {
	setup, err := Instructions(p.Instructions)
	if err != nil {
		return Plan{}, err
	}
	cleanup, err := Instructions(p.CleanupInstructions)
	if err != nil {
		return Plan{}, err
	}
	signers := make([]Signer, 0, len(p.Signers))
	for _, s := range p.Signers {
		signers = append(signers, Signer{PublicKey: s.PublicKey().String(), SecretKey: s.String()})
	}
	return Plan{
		ID:                  p.ID,
		Owner:               p.Owner.String(),
		Address:             p.Address.String(),
		Mint:                p.Mint.String(),
		TokenProgram:        p.TokenProgram.String(),
		Strategy:            string(p.Strategy),
		Created:             p.Created,
		Usable:              p.Usable(),
		Instructions:        setup,
		CleanupInstructions: cleanup,
		Signers:             signers,
	}, nil
}

func FromPlans(plans []*tokenaccount.Plan) ([]Plan, error) {
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		v, err := FromPlan(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
