package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	resolveFlags
	keypair string
}

// SimulateResult is the output of the simulate command.
type SimulateResult struct {
	Wallet        string   `json:"wallet"`
	Plans         int      `json:"plans"`
	Instructions  int      `json:"instructions"`
	Signatures    int      `json:"signatures"`
	Success       bool     `json:"success"`
	Error         string   `json:"error,omitempty"`
	UnitsConsumed uint64   `json:"units_consumed"`
	Logs          []string `json:"logs,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Dry-run the planned instructions as a signed transaction",
		Long: `Resolve the mints for the wallet, build one transaction with every setup
instruction followed by every cleanup instruction, sign it with the wallet
and any ephemeral keys, and simulate it. Nothing is submitted.

The wallet comes from --keypair or WALLET_PRIVATE_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.keypair, "keypair", "", "path to a solana-keygen JSON keypair")
	opts.register(cmd)
	return cmd
}

func loadSigner(path, fromEnv string) (solana.PrivateKey, error) {
	if path != "" {
		return wallet.LoadPrivateKey(path)
	}
	if strings.TrimSpace(fromEnv) == "" {
		return nil, fmt.Errorf("no wallet: pass --keypair or set WALLET_PRIVATE_KEY")
	}
	return wallet.ParsePrivateKey(fromEnv)
}

func runSimulate(rootOpts *RootOptions, opts *simulateOptions, cmd *cobra.Command) error {
	f := formatter(rootOpts, cmd)

	b, err := rootOpts.connect(rootOpts)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "connect", err))
	}

	priv, err := loadSigner(opts.keypair, b.Config.WalletPrivateKey)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "load wallet", err))
	}
	w := wallet.New(priv, b.Tx, b.Logger)

	req, err := opts.batch(cmd, w.PublicKey(), b.Rent)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid flags", err))
	}

	plans, err := resolve(cmd.Context(), b, req)
	if err != nil {
		return f.Fail(resolveError(err))
	}

	ixs, _ := wallet.ComposeInstructions(plans)
	if len(ixs) == 0 {
		return f.Success(SimulateResult{Wallet: w.Address(), Plans: len(plans), Success: true}, func(out io.Writer) {
			fmt.Fprintln(out, "every account is already usable, nothing to simulate")
		})
	}

	tx, err := w.BuildPlanTransaction(cmd.Context(), plans)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "build transaction", err))
	}
	f.VerboseLog("simulating %d instruction(s) with %d signature(s)", len(ixs), len(tx.Signatures))

	sim, simErr := w.SimulateTransaction(cmd.Context(), tx)
	if sim == nil {
		return f.Fail(WrapExitError(ExitCommandError, "simulate", simErr))
	}

	res := SimulateResult{
		Wallet:        w.Address(),
		Plans:         len(plans),
		Instructions:  len(ixs),
		Signatures:    len(tx.Signatures),
		Success:       sim.Success,
		Error:         sim.Error,
		UnitsConsumed: sim.UnitsConsumed,
		Logs:          sim.Logs,
	}
	if err := f.Success(res, func(out io.Writer) {
		writePlansText(out, plans)
		fmt.Fprintf(out, "simulation success=%t units=%d\n", res.Success, res.UnitsConsumed)
		if res.Error != "" {
			fmt.Fprintf(out, "error: %s\n", res.Error)
		}
		for _, l := range res.Logs {
			fmt.Fprintf(out, "  %s\n", l)
		}
	}); err != nil {
		return err
	}
	if simErr != nil {
		return WrapExitError(ExitFailure, "simulation failed", simErr)
	}
	return nil
}
