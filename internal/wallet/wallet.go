package wallet

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// ComposeInstructions lays out plans around the caller's own instructions:
// every plan's setup first, then primary, then cleanup in reverse plan order.
// It also returns the extra signers the plans require.
func ComposeInstructions(plans []*tokenaccount.Plan, primary ...solana.Instruction) ([]solana.Instruction, []solana.PrivateKey) {
	var (
		ixs     []solana.Instruction
		signers []solana.PrivateKey
	)
	for _, p := range plans {
		if p == nil {
			continue
		}
		ixs = append(ixs, p.Instructions...)
		signers = append(signers, p.Signers...)
	}
	ixs = append(ixs, primary...)
	for i := len(plans) - 1; i >= 0; i-- {
		if plans[i] == nil {
			continue
		}
		ixs = append(ixs, plans[i].CleanupInstructions...)
	}
	return ixs, signers
}

// GetLatestBlockhash fetches the most recent blockhash
func (w *Wallet) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	bh, err := w.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}

	hash, err := solana.HashFromBase58(bh.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// BuildTransaction creates a new transaction with recent blockhash, paid by
// the wallet.
func (w *Wallet) BuildTransaction(
	ctx context.Context,
	instructions []solana.Instruction,
) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("no instructions to build")
	}

	recentBlockhash, err := w.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recentBlockhash,
		solana.TransactionPayer(w.pub),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return tx, nil
}

// SignTx signs a transaction with the wallet key plus any extra signers
// (ephemeral wrapper accounts).
func (w *Wallet) SignTx(tx *solana.Transaction, extra ...solana.PrivateKey) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		for i := range extra {
			if key.Equals(extra[i].PublicKey()) {
				return &extra[i]
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// BuildPlanTransaction composes plans around primary, then builds and signs
// the transaction.
func (w *Wallet) BuildPlanTransaction(
	ctx context.Context,
	plans []*tokenaccount.Plan,
	primary ...solana.Instruction,
) (*solana.Transaction, error) {
	ixs, signers := ComposeInstructions(plans, primary...)

	tx, err := w.BuildTransaction(ctx, ixs)
	if err != nil {
		return nil, err
	}
	if err := w.SignTx(tx, signers...); err != nil {
		return nil, err
	}

	w.logger.WithFields(logrus.Fields{
		"plans":        len(plans),
		"instructions": len(ixs),
		"signers":      len(tx.Signatures),
	}).Debug("built plan transaction")
	return tx, nil
}

// SimulationResult contains simulation output
type SimulationResult struct {
	Success       bool
	Error         string
	Logs          []string
	UnitsConsumed uint64
}

// SimulateTransaction runs a signed transaction without submitting it. A
// failed simulation returns the result along with an error.
func (w *Wallet) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	value, err := w.rpc.SimulateTransaction(ctx, base64.StdEncoding.EncodeToString(txBytes))
	if err != nil {
		return nil, fmt.Errorf("simulateTransaction failed: %w", err)
	}

	result := &SimulationResult{
		Logs:          value.Logs,
		UnitsConsumed: value.UnitsConsumed,
	}

	if value.Err != nil {
		result.Error = fmt.Sprintf("%v", value.Err)
		return result, fmt.Errorf("simulation failed: %v", value.Err)
	}

	result.Success = true
	return result, nil
}
