package journal

import (
	"context"
	"errors"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/sirupsen/logrus"
)

// Entry is one resolved plan as recorded for auditing.
type Entry struct {
	PlanID       string    `json:"plan_id"`
	Source       string    `json:"source"`
	Owner        string    `json:"owner"`
	Mint         string    `json:"mint"`
	Address      string    `json:"address"`
	TokenProgram string    `json:"token_program"`
	Strategy     string    `json:"strategy"`
	Created      bool      `json:"created"`
	SetupIxs     uint16    `json:"setup_ixs"`
	CleanupIxs   uint16    `json:"cleanup_ixs"`
	Signers      uint16    `json:"signers"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// FromPlan flattens a plan. Signer keys are never recorded, only their count.
func FromPlan(p *tokenaccount.Plan, source string, at time.Time) Entry {
	return Entry{
		PlanID:       p.ID,
		Source:       source,
		Owner:        p.Owner.String(),
		Mint:         p.Mint.String(),
		Address:      p.Address.String(),
		TokenProgram: p.TokenProgram.String(),
		Strategy:     string(p.Strategy),
		Created:      p.Created,
		SetupIxs:     uint16(len(p.Instructions)),
		CleanupIxs:   uint16(len(p.CleanupInstructions)),
		Signers:      uint16(len(p.Signers)),
		ResolvedAt:   at.UTC(),
	}
}

// Sink persists or forwards entries.
type Sink interface {
	Write(ctx context.Context, entries []Entry) error
	Close() error
}

// Journal fans entries out to every sink. A failing sink does not stop the
// others.
type Journal struct {
	sinks  []Sink
	logger *logrus.Logger
	now    func() time.Time
}

// New creates a journal writing to every sink.
func New(logger *logrus.Logger, sinks ...Sink) *Journal {
	if logger == nil {
		logger = logrus.New()
	}
	return &Journal{sinks: sinks, logger: logger, now: time.Now}
}

// Record writes one entry per plan. Nil journals and empty plan sets are no-ops.
func (j *Journal) Record(ctx context.Context, source string, plans ...*tokenaccount.Plan) error {
	if j == nil || len(j.sinks) == 0 || len(plans) == 0 {
		return nil
	}

	at := j.now()
	entries := make([]Entry, 0, len(plans))
	for _, p := range plans {
		if p == nil {
			continue
		}
		entries = append(entries, FromPlan(p, source, at))
	}

	var errs []error
	for _, s := range j.sinks {
		if err := s.Write(ctx, entries); err != nil {
			j.logger.WithFields(logrus.Fields{
				"entries": len(entries),
				"error":   err,
			}).Warn("journal sink write failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	var errs []error
	for _, s := range j.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
