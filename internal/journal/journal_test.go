package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	entries []Entry
	err     error
	closed  bool
}

func (s *memorySink) Write(_ context.Context, entries []Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func testPlan(t *testing.T) *tokenaccount.Plan {
	t.Helper()
	kp, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	owner := solana.NewWallet().PublicKey()
	return &tokenaccount.Plan{
		ID:                  "plan-1",
		Owner:               owner,
		Mint:                solana.SolMint,
		Address:             kp.PublicKey(),
		TokenProgram:        solana.TokenProgramID,
		Strategy:            tokenaccount.WrapEphemeralKeypair,
		Created:             true,
		Instructions:        make([]solana.Instruction, 4),
		CleanupInstructions: make([]solana.Instruction, 1),
		Signers:             []solana.PrivateKey{kp},
	}
}

func TestFromPlan(t *testing.T) {
	p := testPlan(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))

	e := FromPlan(p, "api", at)
	assert.Equal(t, "plan-1", e.PlanID)
	assert.Equal(t, "api", e.Source)
	assert.Equal(t, p.Owner.String(), e.Owner)
	assert.Equal(t, "ephemeral-keypair", e.Strategy)
	assert.Equal(t, uint16(4), e.SetupIxs)
	assert.Equal(t, uint16(1), e.CleanupIxs)
	assert.Equal(t, uint16(1), e.Signers)
	assert.Equal(t, time.UTC, e.ResolvedAt.Location())
}

func TestJournal_RecordFansOut(t *testing.T) {
	good, bad := &memorySink{}, &memorySink{err: errors.New("down")}
	j := New(quietLogger(), bad, good)

	err := j.Record(context.Background(), "cli", testPlan(t), nil, testPlan(t))
	assert.Error(t, err)
	assert.Len(t, good.entries, 2)

	require.NoError(t, j.Close())
	assert.True(t, good.closed)
	assert.True(t, bad.closed)
}

func TestJournal_NilAndEmpty(t *testing.T) {
	var j *Journal
	assert.NoError(t, j.Record(context.Background(), "api", testPlan(t)))
	assert.NoError(t, j.Close())

	s := &memorySink{}
	assert.NoError(t, New(nil, s).Record(context.Background(), "api"))
	assert.Empty(t, s.entries)
}
