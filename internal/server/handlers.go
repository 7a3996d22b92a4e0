package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/constants"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/journal"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/planview"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/profiles"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ProfileStore is the subset of profiles.Store the handlers use
type ProfileStore interface {
	Get(ctx context.Context, name string) (*profiles.Profile, error)
	List(ctx context.Context) ([]*profiles.Profile, error)
	Upsert(ctx context.Context, name string, cfg tokenaccount.Config) (*profiles.Profile, error)
	Delete(ctx context.Context, name string) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Fetcher  tokenaccount.AccountFetcher        // Chain account reader
	Rent     tokenaccount.FundingAmountProvider // Rent-exempt minimum for new token accounts
	Defaults tokenaccount.Config                // Resolver defaults when no profile is named
	Profiles ProfileStore                       // Redis-backed resolver profiles (optional)
	Journal  *journal.Journal                   // Plan journal (optional)
	DevMode  bool                               // Enable detailed error responses in development
	Logger   *logrus.Logger                     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) log() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// configFor returns the named profile's config, or Defaults when no profile
// is named. A non-zero status means the lookup failed.
func (h *Handlers) configFor(ctx context.Context, profile string) (tokenaccount.Config, int, string) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return h.Defaults, 0, ""
	}
	if h.Profiles == nil {
		return tokenaccount.Config{}, http.StatusBadRequest, "profiles are not configured"
	}
	if err := profiles.ValidateName(profile); err != nil {
		return tokenaccount.Config{}, http.StatusBadRequest, "invalid profile name"
	}
	p, err := h.Profiles.Get(ctx, profile)
	if errors.Is(err, profiles.ErrNotFound) {
		return tokenaccount.Config{}, http.StatusNotFound, "profile not found"
	}
	if err != nil {
		return tokenaccount.Config{}, http.StatusInternalServerError, "failed to load profile"
	}
	return p.Config, 0, ""
}

// resolveFailed maps a resolver error to a response. Malformed input and
// ownership or strategy rejections are the caller's problem, anything else
// is upstream.
func (h *Handlers) resolveFailed(c echo.Context, err error) error {
	if errors.Is(err, tokenaccount.ErrInvalidInput) {
		return h.err(c, http.StatusBadRequest, "invalid request", map[string]any{"err": err.Error()})
	}
	if tokenaccount.IsRejection(err) {
		return h.err(c, http.StatusUnprocessableEntity, "resolution rejected", map[string]any{"err": err.Error()})
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return h.err(c, http.StatusGatewayTimeout, "resolution timed out", nil)
	}
	h.log().WithError(err).Warn("resolution failed")
	return h.err(c, http.StatusBadGateway, "failed to resolve account", map[string]any{"err": err.Error()})
}

func (h *Handlers) record(ctx context.Context, plans ...*tokenaccount.Plan) {
	if h.Journal == nil {
		return
	}
	if err := h.Journal.Record(ctx, "api", plans...); err != nil {
		h.log().WithError(err).Warn("journal record failed")
	}
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Resolve returns the plan for one (owner, mint) pair
func (h *Handlers) Resolve(c echo.Context) error {
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	opts, details := parseOptions(req.ResolveOptions)
	if details == nil {
		details = map[string]any{}
	}
	owner, err := parsePubkey("owner", req.Owner)
	if err != nil {
		details["owner"] = err.Error()
	}
	mint, err := parseMint(req.Mint)
	if err != nil {
		details["mint"] = err.Error()
	}
	program, err := parseTokenProgram(req.TokenProgram)
	if err != nil {
		details["token_program"] = err.Error()
	}
	if len(details) > 0 {
		return h.err(c, http.StatusBadRequest, "invalid request", details)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	cfg, status, msg := h.configFor(ctx, req.Profile)
	if status != 0 {
		return h.err(c, status, msg, nil)
	}
	r := tokenaccount.NewResolver(h.Fetcher, cfg, h.log())

	plan, err := r.Resolve(ctx, tokenaccount.Request{
		Owner:                 owner,
		Mint:                  mint,
		TokenProgram:          program,
		FundingAmount:         req.FundingAmount,
		FundingAmountProvider: h.Rent,
		UnwrapDestination:     opts.unwrapDestination,
		Funder:                opts.funder,
		Idempotent:            req.Idempotent,
		AllowOffCurveOwner:    req.AllowOffCurveOwner,
		Strategy:              opts.strategy,
		Seed:                  req.Seed,
	})
	if err != nil {
		return h.resolveFailed(c, err)
	}

	out, err := planview.FromPlan(plan)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to encode plan", nil)
	}
	h.record(ctx, plan)
	return c.JSON(http.StatusOK, out)
}

// ResolveBatch returns plans for several mints of one owner, in request order.
// Any failing entry fails the whole batch.
func (h *Handlers) ResolveBatch(c echo.Context) error {
	var req BatchResolveRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if len(req.Entries) > constants.MaxBatchEntries {
		return h.err(c, http.StatusBadRequest, "too many entries", map[string]any{"entries": "max 256"})
	}

	opts, details := parseOptions(req.ResolveOptions)
	if details == nil {
		details = map[string]any{}
	}
	owner, err := parsePubkey("owner", req.Owner)
	if err != nil {
		details["owner"] = err.Error()
	}
	entries := make([]tokenaccount.BatchEntry, len(req.Entries))
	for i, e := range req.Entries {
		mint, err := parseMint(e.Mint)
		if err != nil {
			details["entries"] = map[string]any{"index": i, "err": err.Error()}
			break
		}
		program, err := parseTokenProgram(e.TokenProgram)
		if err != nil {
			details["entries"] = map[string]any{"index": i, "err": err.Error()}
			break
		}
		entries[i] = tokenaccount.BatchEntry{Mint: mint, TokenProgram: program, FundingAmount: e.FundingAmount}
	}
	if len(details) > 0 {
		return h.err(c, http.StatusBadRequest, "invalid request", details)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	cfg, status, msg := h.configFor(ctx, req.Profile)
	if status != 0 {
		return h.err(c, status, msg, nil)
	}
	r := tokenaccount.NewResolver(h.Fetcher, cfg, h.log())

	plans, err := r.ResolveMany(ctx, tokenaccount.BatchRequest{
		Owner:                 owner,
		Entries:               entries,
		FundingAmountProvider: h.Rent,
		UnwrapDestination:     opts.unwrapDestination,
		Funder:                opts.funder,
		Idempotent:            req.Idempotent,
		AllowOffCurveOwner:    req.AllowOffCurveOwner,
		Strategy:              opts.strategy,
		Seed:                  req.Seed,
	})
	if err != nil {
		return h.resolveFailed(c, err)
	}

	items, err := planview.FromPlans(plans)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to encode plan", nil)
	}
	h.record(ctx, plans...)
	return c.JSON(http.StatusOK, BatchResolveResponse{Items: items})
}

// ProfilesUpsert creates or replaces a resolver profile
func (h *Handlers) ProfilesUpsert(c echo.Context) error {
	if h.Profiles == nil {
		return h.err(c, http.StatusBadRequest, "profiles are not configured", nil)
	}
	var req ProfileUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	return h.upsertProfile(c, req.Name, req.Config)
}

// ProfilesUpdate replaces the config of the profile named in the path
func (h *Handlers) ProfilesUpdate(c echo.Context) error {
	if h.Profiles == nil {
		return h.err(c, http.StatusBadRequest, "profiles are not configured", nil)
	}
	var req ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	return h.upsertProfile(c, c.Param("name"), req.Config)
}

func (h *Handlers) upsertProfile(c echo.Context, name string, cfg tokenaccount.Config) error {
	if err := profiles.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid name", map[string]any{"name": "invalid format"})
	}
	if _, err := tokenaccount.ParseWrapStrategy(string(cfg.DefaultStrategy)); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid default_strategy", map[string]any{"default_strategy": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Profiles.Upsert(ctx, name, cfg)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert profile", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// ProfilesGet retrieves a profile by name
// Returns 404 if profile doesn't exist
func (h *Handlers) ProfilesGet(c echo.Context) error {
	if h.Profiles == nil {
		return h.err(c, http.StatusBadRequest, "profiles are not configured", nil)
	}
	name := c.Param("name")
	if err := profiles.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid name", map[string]any{"name": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Profiles.Get(ctx, name)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "profile not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get profile", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// ProfilesList returns every stored profile
func (h *Handlers) ProfilesList(c echo.Context) error {
	if h.Profiles == nil {
		return c.JSON(http.StatusOK, map[string]any{"items": []*profiles.Profile{}})
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Profiles.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list profiles", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ProfilesDelete removes a profile by name
// Returns 204 No Content on successful deletion
func (h *Handlers) ProfilesDelete(c echo.Context) error {
	if h.Profiles == nil {
		return h.err(c, http.StatusBadRequest, "profiles are not configured", nil)
	}
	name := c.Param("name")
	if err := profiles.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid name", map[string]any{"name": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Profiles.Delete(ctx, name); err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "profile not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to delete profile", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// ownerKey is a small helper for handlers that accept the owner as a query
// parameter.
func ownerKey(c echo.Context) (solana.PublicKey, error) {
	return parsePubkey("owner", c.QueryParam("owner"))
}
