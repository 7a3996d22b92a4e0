package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/constants"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func formatter(rootOpts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}
}

func parseKey(field, s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", field)
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("--%s: %w", field, err)
	}
	return pk, nil
}

func parseOptionalKey(field, s string) (solana.PublicKey, error) {
	if strings.TrimSpace(s) == "" {
		return solana.PublicKey{}, nil
	}
	return parseKey(field, s)
}

func parseMint(s string) (solana.PublicKey, error) {
	return parseKey("mint", constants.MintAddress(s))
}

// parseMintSpec parses "MINT" or "MINT=LAMPORTS".
func parseMintSpec(s string) (solana.PublicKey, uint64, error) {
	mintPart, amountPart, hasAmount := strings.Cut(s, "=")
	mint, err := parseMint(mintPart)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	if !hasAmount {
		return mint, 0, nil
	}
	amount, err := strconv.ParseUint(strings.TrimSpace(amountPart), 10, 64)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("--mint %q: lamports must be an unsigned integer", s)
	}
	return mint, amount, nil
}

// resolveFlags are shared by plan and simulate.
type resolveFlags struct {
	mints         []string
	tokenProgram  string
	strategy      string
	funder        string
	unwrapTo      string
	seed          string
	idempotent    bool
	allowOffCurve bool
}

func (r *resolveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&r.mints, "mint", "m", nil, "MINT or MINT=LAMPORTS, repeatable (symbols like SOL work)")
	cmd.Flags().StringVar(&r.tokenProgram, "token-program", "token", "token, token-2022 or a program id")
	cmd.Flags().StringVar(&r.strategy, "strategy", "", "none, associated, ephemeral-keypair, seeded or default")
	cmd.Flags().StringVar(&r.funder, "funder", "", "account paying for creation (defaults to owner)")
	cmd.Flags().StringVar(&r.unwrapTo, "unwrap-to", "", "receives lamports when a temporary account closes (defaults to owner)")
	cmd.Flags().StringVar(&r.seed, "seed", "", "seed for the seeded strategy (defaults to a time seed)")
	cmd.Flags().BoolVar(&r.idempotent, "idempotent", false, "use idempotent associated account creation")
	cmd.Flags().BoolVar(&r.allowOffCurve, "allow-off-curve", false, "allow program-derived owners")
	_ = cmd.MarkFlagRequired("mint")
}

// boolOverride returns nil unless the flag was set, so config defaults apply.
func boolOverride(cmd *cobra.Command, name string, v bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func (r *resolveFlags) batch(cmd *cobra.Command, owner solana.PublicKey, rent tokenaccount.FundingAmountProvider) (tokenaccount.BatchRequest, error) {
	program, err := tokenaccount.ParseTokenProgram(r.tokenProgram)
	if err != nil {
		return tokenaccount.BatchRequest{}, err
	}
	strategy, err := tokenaccount.ParseWrapStrategy(r.strategy)
	if err != nil {
		return tokenaccount.BatchRequest{}, err
	}
	funder, err := parseOptionalKey("funder", r.funder)
	if err != nil {
		return tokenaccount.BatchRequest{}, err
	}
	unwrapTo, err := parseOptionalKey("unwrap-to", r.unwrapTo)
	if err != nil {
		return tokenaccount.BatchRequest{}, err
	}
	if len(r.seed) > solana.MaxSeedLength {
		return tokenaccount.BatchRequest{}, fmt.Errorf("--seed must be at most %d bytes", solana.MaxSeedLength)
	}
	if len(r.mints) > constants.MaxBatchEntries {
		return tokenaccount.BatchRequest{}, fmt.Errorf("at most %d mints per call", constants.MaxBatchEntries)
	}

	req := tokenaccount.BatchRequest{
		Owner:                 owner,
		FundingAmountProvider: rent,
		UnwrapDestination:     unwrapTo,
		Funder:                funder,
		Idempotent:            boolOverride(cmd, "idempotent", r.idempotent),
		AllowOffCurveOwner:    boolOverride(cmd, "allow-off-curve", r.allowOffCurve),
		Strategy:              strategy,
		Seed:                  r.seed,
	}
	for _, spec := range r.mints {
		mint, amount, err := parseMintSpec(spec)
		if err != nil {
			return tokenaccount.BatchRequest{}, err
		}
		req.Entries = append(req.Entries, tokenaccount.BatchEntry{Mint: mint, TokenProgram: program, FundingAmount: amount})
	}
	return req, nil
}

// resolve runs one Resolve for a single mint and ResolveMany otherwise.
func resolve(ctx context.Context, b *Backend, req tokenaccount.BatchRequest) ([]*tokenaccount.Plan, error) {
	r := tokenaccount.NewResolver(b.Fetcher, b.Config.Resolver, b.Logger)
	if len(req.Entries) != 1 {
		return r.ResolveMany(ctx, req)
	}
	e := req.Entries[0]
	plan, err := r.Resolve(ctx, tokenaccount.Request{
		Owner:                 req.Owner,
		Mint:                  e.Mint,
		TokenProgram:          e.TokenProgram,
		FundingAmount:         e.FundingAmount,
		FundingAmountProvider: req.FundingAmountProvider,
		UnwrapDestination:     req.UnwrapDestination,
		Funder:                req.Funder,
		Idempotent:            req.Idempotent,
		AllowOffCurveOwner:    req.AllowOffCurveOwner,
		Strategy:              req.Strategy,
		Seed:                  req.Seed,
	})
	if err != nil {
		return nil, err
	}
	return []*tokenaccount.Plan{plan}, nil
}

func resolveError(err error) *ExitError {
	if tokenaccount.IsRejection(err) {
		return WrapExitError(ExitFailure, "resolution rejected", err)
	}
	if errors.Is(err, tokenaccount.ErrInvalidInput) {
		return WrapExitError(ExitCommandError, "invalid input", err)
	}
	return WrapExitError(ExitCommandError, "resolution failed", err)
}

func writePlansText(w io.Writer, plans []*tokenaccount.Plan) {
	for _, p := range plans {
		fmt.Fprintf(w, "%s -> %s [%s] created=%t setup=%d cleanup=%d signers=%d\n",
			p.Mint, p.Address, p.Strategy, p.Created,
			len(p.Instructions), len(p.CleanupInstructions), len(p.Signers))
	}
}
