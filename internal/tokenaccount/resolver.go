package tokenaccount

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config holds resolver defaults. Requests may override each field.
type Config struct {
	Idempotent         bool         `json:"idempotent"`
	AllowOffCurveOwner bool         `json:"allow_off_curve_owner"`
	DefaultStrategy    WrapStrategy `json:"default_strategy,omitempty"`
}

// Plan is the outcome of resolving one (owner, mint) pair.
//
// Instructions run before the caller's own instructions and
// CleanupInstructions after them. Signers must co-sign the transaction.
type Plan struct {
	ID                  string
	Owner               solana.PublicKey
	Address             solana.PublicKey
	Mint                solana.PublicKey
	TokenProgram        solana.PublicKey
	Strategy            WrapStrategy
	Created             bool
	Instructions        []solana.Instruction
	CleanupInstructions []solana.Instruction
	Signers             []solana.PrivateKey
}

// Usable reports whether the account can be used without any setup.
func (p *Plan) Usable() bool {
	return len(p.Instructions) == 0
}

// Request describes one token account to resolve.
type Request struct {
	Owner        solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey // zero means legacy SPL Token

	// FundingAmount is the lamports to wrap when Mint is the native mint.
	FundingAmount uint64

	// FundingAmountProvider returns the rent needed for a fresh account.
	// Called at most once, and only when an allocation needs it.
	FundingAmountProvider FundingAmountProvider

	// UnwrapDestination receives the lamports when a temporary account is
	// closed. Defaults to Owner.
	UnwrapDestination solana.PublicKey

	// Funder pays for creation and funding. Defaults to Owner.
	Funder solana.PublicKey

	Idempotent         *bool
	AllowOffCurveOwner *bool
	Strategy           WrapStrategy

	// Seed is used by the seeded strategy. Defaults to a time-based seed.
	Seed string
}

// BatchEntry is one mint in a ResolveMany call.
type BatchEntry struct {
	Mint          solana.PublicKey
	TokenProgram  solana.PublicKey
	FundingAmount uint64
}

// BatchRequest resolves several mints for the same owner. Options apply to
// every entry.
type BatchRequest struct {
	Owner                 solana.PublicKey
	Entries               []BatchEntry
	FundingAmountProvider FundingAmountProvider
	UnwrapDestination     solana.PublicKey
	Funder                solana.PublicKey
	Idempotent            *bool
	AllowOffCurveOwner    *bool
	Strategy              WrapStrategy
	Seed                  string
}

// Resolver turns (owner, mint) pairs into ready-to-use token account plans.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	fetcher AccountFetcher
	cfg     Config
	logger  *logrus.Logger

	newKeypair func() (solana.PrivateKey, error)
	now        func() time.Time
}

// NewResolver creates a resolver reading account state through fetcher.
func NewResolver(fetcher AccountFetcher, cfg Config, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{
		fetcher:    fetcher,
		cfg:        cfg,
		logger:     logger,
		newKeypair: NewEphemeralKeypair,
		now:        time.Now,
	}
}

// Config returns the resolver defaults.
func (r *Resolver) Config() Config {
	return r.cfg
}

type resolveOptions struct {
	owner             solana.PublicKey
	funder            solana.PublicKey
	unwrapDestination solana.PublicKey
	idempotent        bool
	allowOffCurve     bool
	strategy          WrapStrategy
	explicit          bool
	seed              string
}

func (r *Resolver) options(
	owner, funder, unwrapDestination solana.PublicKey,
	idempotent, allowOffCurve *bool,
	strategy WrapStrategy,
	seed string,
) (resolveOptions, error) {
	if err := requirePubkey(owner, "owner"); err != nil {
		return resolveOptions{}, err
	}
	opts := resolveOptions{
		owner:             owner,
		funder:            funder,
		unwrapDestination: unwrapDestination,
		idempotent:        r.cfg.Idempotent,
		allowOffCurve:     r.cfg.AllowOffCurveOwner,
		strategy:          strategy,
		explicit:          strategy != WrapUnspecified,
		seed:              seed,
	}
	if opts.funder.IsZero() {
		opts.funder = owner
	}
	if opts.unwrapDestination.IsZero() {
		opts.unwrapDestination = owner
	}
	if idempotent != nil {
		opts.idempotent = *idempotent
	}
	if allowOffCurve != nil {
		opts.allowOffCurve = *allowOffCurve
	}
	if opts.strategy == WrapUnspecified {
		opts.strategy = r.cfg.DefaultStrategy
	}
	if opts.strategy == WrapUnspecified {
		opts.strategy = WrapDefault
	}
	if opts.seed == "" {
		opts.seed = TimeSeed(r.now())
	}
	return opts, nil
}

// Resolve derives the canonical account for req, fetches its state once,
// validates ownership and assembles the plan. Transport errors from the
// fetcher or the funding provider are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Plan, error) {
	start := time.Now()
	defer func() {
		metrics.ResolveLatency.WithLabelValues("single").Observe(time.Since(start).Seconds())
	}()

	opts, err := r.options(req.Owner, req.Funder, req.UnwrapDestination,
		req.Idempotent, req.AllowOffCurveOwner, req.Strategy, req.Seed)
	if err != nil {
		return nil, err
	}
	entry := BatchEntry{Mint: req.Mint, TokenProgram: req.TokenProgram, FundingAmount: req.FundingAmount}

	ata, err := DeriveCanonical(entry.Mint, opts.owner, entry.TokenProgram)
	if err != nil {
		return nil, err
	}

	states, err := r.fetcher.FetchStates(ctx, []solana.PublicKey{ata})
	if err != nil {
		r.observe(opts.strategy, err)
		return nil, err
	}
	if len(states) != 1 {
		return nil, fmt.Errorf("fetcher returned %d states for 1 address", len(states))
	}

	rent := &lazyAmount{provider: req.FundingAmountProvider}
	plan, err := r.assemble(ctx, opts, entry, ata, states[0], rent, opts.seed)
	r.observe(opts.strategy, err)
	if err != nil {
		return nil, err
	}
	r.record(plan)
	return plan, nil
}

// ResolveMany resolves every entry with a single FetchStates call. Plans come
// back in entry order. Any failing entry fails the whole call.
//
// Entries must name distinct (mint, token program) pairs. A wrapping strategy
// applies to the native entries only; other mints resolve as associated.
func (r *Resolver) ResolveMany(ctx context.Context, req BatchRequest) ([]*Plan, error) {
	start := time.Now()
	defer func() {
		metrics.ResolveLatency.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	}()

	opts, err := r.options(req.Owner, req.Funder, req.UnwrapDestination,
		req.Idempotent, req.AllowOffCurveOwner, req.Strategy, req.Seed)
	if err != nil {
		return nil, err
	}
	if len(req.Entries) == 0 {
		return []*Plan{}, nil
	}

	addrs := make([]solana.PublicKey, len(req.Entries))
	seen := make(map[solana.PublicKey]int, len(req.Entries))
	for i, e := range req.Entries {
		ata, err := DeriveCanonical(e.Mint, opts.owner, e.TokenProgram)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if j, ok := seen[ata]; ok {
			return nil, fmt.Errorf("%w: entry %d repeats mint %s of entry %d", ErrInvalidInput, i, e.Mint, j)
		}
		seen[ata] = i
		addrs[i] = ata
	}

	states, err := r.fetcher.FetchStates(ctx, addrs)
	if err != nil {
		r.observe(opts.strategy, err)
		return nil, err
	}
	if len(states) != len(addrs) {
		return nil, fmt.Errorf("fetcher returned %d states for %d addresses", len(states), len(addrs))
	}

	rent := &lazyAmount{provider: req.FundingAmountProvider}
	plans := make([]*Plan, len(req.Entries))
	for i, e := range req.Entries {
		entryOpts := opts
		if entryOpts.strategy.nativeOnly() && !IsNativeMint(e.Mint, e.TokenProgram) {
			entryOpts.explicit = false
		}
		plan, err := r.assemble(ctx, entryOpts, e, addrs[i], states[i], rent, opts.seed)
		r.observe(opts.strategy, err)
		if err != nil {
			return nil, err
		}
		plans[i] = plan
	}
	for _, p := range plans {
		r.record(p)
	}
	return plans, nil
}

func (r *Resolver) assemble(
	ctx context.Context,
	opts resolveOptions,
	entry BatchEntry,
	ata solana.PublicKey,
	state AccountState,
	rent *lazyAmount,
	seed string,
) (*Plan, error) {
	tokenProgram := normalizeTokenProgram(entry.TokenProgram)

	if err := Validate(state, opts.owner, tokenProgram, IsOffCurve(opts.owner), opts.allowOffCurve); err != nil {
		return nil, err
	}

	plan := &Plan{
		ID:           uuid.NewString(),
		Owner:        opts.owner,
		Address:      ata,
		Mint:         entry.Mint,
		TokenProgram: tokenProgram,
	}

	if !IsNativeMint(entry.Mint, tokenProgram) {
		if opts.explicit && opts.strategy.nativeOnly() {
			return nil, fmt.Errorf("%w: %q requires the native mint, got %s",
				ErrInvalidStrategyForMint, opts.strategy, entry.Mint)
		}
		if entry.FundingAmount > 0 {
			return nil, fmt.Errorf("%w: cannot fund mint %s", ErrInvalidStrategyForMint, entry.Mint)
		}

		plan.Strategy = WrapAssociated
		if opts.explicit && opts.strategy == WrapNone {
			plan.Strategy = WrapNone
			return plan, nil
		}
		if !state.Exists {
			plan.Instructions = []solana.Instruction{
				NewCreateAssociatedTokenAccountIx(opts.funder, ata, opts.owner, entry.Mint, tokenProgram, opts.idempotent),
			}
			plan.Created = true
		}
		return plan, nil
	}

	out, err := selectWrap(ctx, opts.strategy, state.Exists, wrapInput{
		owner:             opts.owner,
		mint:              entry.Mint,
		tokenProgram:      tokenProgram,
		canonical:         ata,
		funder:            opts.funder,
		unwrapDestination: opts.unwrapDestination,
		amount:            entry.FundingAmount,
		idempotent:        opts.idempotent,
		seed:              seed,
		rent:              rent,
		newKeypair:        r.newKeypair,
	})
	if err != nil {
		return nil, err
	}

	plan.Strategy = opts.strategy
	plan.Address = out.address
	plan.Created = out.created
	plan.Instructions = out.instructions
	plan.CleanupInstructions = out.cleanup
	plan.Signers = out.signers
	return plan, nil
}

func (r *Resolver) observe(strategy WrapStrategy, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if IsRejection(err) {
			outcome = "rejected"
		}
	}
	metrics.ResolutionsTotal.WithLabelValues(string(strategy), outcome).Inc()
}

func (r *Resolver) record(p *Plan) {
	metrics.PlannedInstructions.WithLabelValues("setup").Add(float64(len(p.Instructions)))
	metrics.PlannedInstructions.WithLabelValues("cleanup").Add(float64(len(p.CleanupInstructions)))
	if p.Created {
		metrics.AccountsCreated.WithLabelValues(string(p.Strategy)).Inc()
	}

	r.logger.WithFields(logrus.Fields{
		"plan_id":  p.ID,
		"owner":    p.Owner.String(),
		"mint":     p.Mint.String(),
		"address":  p.Address.String(),
		"strategy": p.Strategy,
		"created":  p.Created,
		"setup":    len(p.Instructions),
		"cleanup":  len(p.CleanupInstructions),
		"signers":  len(p.Signers),
	}).Debug("resolved token account")
}
