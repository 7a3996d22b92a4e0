package cli

import (
	"io"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/planview"
	"github.com/spf13/cobra"
)

type planOptions struct {
	resolveFlags
	owner string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the instructions that make token accounts usable",
		Long: `Read the owner's canonical accounts from chain and print, for each mint,
the setup and cleanup instructions plus any ephemeral signers.

JSON output includes ephemeral secret keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.owner, "owner", "", "owner public key (required)")
	opts.register(cmd)
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func runPlan(rootOpts *RootOptions, opts *planOptions, cmd *cobra.Command) error {
	f := formatter(rootOpts, cmd)

	owner, err := parseKey("owner", opts.owner)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid flags", err))
	}

	b, err := rootOpts.connect(rootOpts)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "connect", err))
	}

	req, err := opts.batch(cmd, owner, b.Rent)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid flags", err))
	}
	f.VerboseLog("resolving %d mint(s) for %s", len(req.Entries), owner)

	plans, err := resolve(cmd.Context(), b, req)
	if err != nil {
		return f.Fail(resolveError(err))
	}

	views, err := planview.FromPlans(plans)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "encode plans", err))
	}
	return f.Success(views, func(w io.Writer) {
		writePlansText(w, plans)
	})
}
