package cli

import (
	"fmt"
	"io"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/spf13/cobra"
)

type deriveOptions struct {
	owner        string
	mints        []string
	tokenProgram string
	seed         string
}

// DerivedAccount is one derived canonical address.
type DerivedAccount struct {
	Mint      string `json:"mint"`
	Canonical string `json:"canonical"`
}

// DeriveResult is the output of the derive command.
type DeriveResult struct {
	Owner         string           `json:"owner"`
	OwnerOffCurve bool             `json:"owner_off_curve"`
	TokenProgram  string           `json:"token_program"`
	Accounts      []DerivedAccount `json:"accounts"`
	Seeded        string           `json:"seeded,omitempty"`
}

// NewDeriveCommand creates the derive command. It works offline.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &deriveOptions{}
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive canonical token account addresses",
		Long: `Derive the associated token account of each mint for an owner.
With --seed, also derive the seeded wrapper address. Nothing is read from chain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.owner, "owner", "", "owner public key (required)")
	cmd.Flags().StringSliceVarP(&opts.mints, "mint", "m", nil, "mint address or symbol, repeatable")
	cmd.Flags().StringVar(&opts.tokenProgram, "token-program", "token", "token, token-2022 or a program id")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "seed for the seeded wrapper address")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("mint")
	return cmd
}

func runDerive(rootOpts *RootOptions, opts *deriveOptions, cmd *cobra.Command) error {
	f := formatter(rootOpts, cmd)

	owner, err := parseKey("owner", opts.owner)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid flags", err))
	}
	program, err := tokenaccount.ParseTokenProgram(opts.tokenProgram)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid flags", err))
	}

	res := DeriveResult{
		Owner:         owner.String(),
		OwnerOffCurve: tokenaccount.IsOffCurve(owner),
		TokenProgram:  program.String(),
	}
	for _, m := range opts.mints {
		mint, err := parseMint(m)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "invalid flags", err))
		}
		ata, err := tokenaccount.DeriveCanonical(mint, owner, program)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "derive failed", err))
		}
		res.Accounts = append(res.Accounts, DerivedAccount{Mint: mint.String(), Canonical: ata.String()})
	}
	if opts.seed != "" {
		seeded, err := tokenaccount.DeriveSeeded(owner, opts.seed, program)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "derive failed", err))
		}
		res.Seeded = seeded.String()
	}

	return f.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "owner %s (off-curve: %t)\n", res.Owner, res.OwnerOffCurve)
		for _, a := range res.Accounts {
			fmt.Fprintf(w, "  %s  %s\n", a.Mint, a.Canonical)
		}
		if res.Seeded != "" {
			fmt.Fprintf(w, "  seeded  %s\n", res.Seeded)
		}
	})
}
