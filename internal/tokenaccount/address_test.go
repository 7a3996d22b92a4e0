package tokenaccount

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveCanonical_Deterministic(t *testing.T) {
	owner, mint := newKey(), newKey()

	a1, err := DeriveCanonical(mint, owner, solana.TokenProgramID)
	require.NoError(t, err)
	a2, err := DeriveCanonical(mint, owner, solana.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	// zero program is the legacy program
	a3, err := DeriveCanonical(mint, owner, solana.PublicKey{})
	require.NoError(t, err)
	assert.Equal(t, a1, a3)

	otherOwner, err := DeriveCanonical(mint, newKey(), solana.TokenProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, a1, otherOwner)

	otherMint, err := DeriveCanonical(newKey(), owner, solana.TokenProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, a1, otherMint)

	otherProgram, err := DeriveCanonical(mint, owner, solana.Token2022ProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, a1, otherProgram)
}

func TestDeriveCanonical_MatchesSeedLayout(t *testing.T) {
	owner, mint := newKey(), newKey()

	want, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), solana.TokenProgramID.Bytes(), mint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	require.NoError(t, err)

	got, err := DeriveCanonical(mint, owner, solana.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, IsOffCurve(got))
}

func TestDeriveCanonical_RejectsZeroKeys(t *testing.T) {
	_, err := DeriveCanonical(solana.PublicKey{}, newKey(), solana.TokenProgramID)
	assert.Error(t, err)

	_, err = DeriveCanonical(newKey(), solana.PublicKey{}, solana.TokenProgramID)
	assert.Error(t, err)
}

func TestDeriveSeeded(t *testing.T) {
	owner := newKey()

	a1, err := DeriveSeeded(owner, "1700000000000", solana.TokenProgramID)
	require.NoError(t, err)
	a2, err := DeriveSeeded(owner, "1700000000000", solana.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	want, err := solana.CreateWithSeed(owner, "1700000000000", solana.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, a1)

	a3, err := DeriveSeeded(owner, "1700000000001", solana.TokenProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, a1, a3)

	_, err = DeriveSeeded(owner, "", solana.TokenProgramID)
	assert.Error(t, err)

	_, err = DeriveSeeded(owner, "this-seed-is-definitely-longer-than-32-bytes", solana.TokenProgramID)
	assert.Error(t, err)
}

func TestTimeSeed(t *testing.T) {
	assert.Equal(t, "1700000000000", TimeSeed(time.UnixMilli(1700000000000)))
}

func TestNewEphemeralKeypair_Fresh(t *testing.T) {
	k1, err := NewEphemeralKeypair()
	require.NoError(t, err)
	k2, err := NewEphemeralKeypair()
	require.NoError(t, err)
	assert.NotEqual(t, k1.PublicKey(), k2.PublicKey())
}

func TestIsOffCurve(t *testing.T) {
	assert.False(t, IsOffCurve(newKey()))

	pda, _, err := solana.FindProgramAddress([][]byte{[]byte("vault")}, solana.SystemProgramID)
	require.NoError(t, err)
	assert.True(t, IsOffCurve(pda))
}

func TestIsNativeMint(t *testing.T) {
	assert.True(t, IsNativeMint(solana.SolMint, solana.TokenProgramID))
	assert.True(t, IsNativeMint(solana.SolMint, solana.PublicKey{}))
	assert.True(t, IsNativeMint(NativeMint2022, solana.Token2022ProgramID))
	assert.False(t, IsNativeMint(solana.SolMint, solana.Token2022ProgramID))
	assert.False(t, IsNativeMint(NativeMint2022, solana.TokenProgramID))
	assert.False(t, IsNativeMint(newKey(), solana.TokenProgramID))
}

func TestParseTokenProgram(t *testing.T) {
	for in, want := range map[string]solana.PublicKey{
		"":                                 solana.TokenProgramID,
		" Token ":                          solana.TokenProgramID,
		"token-2022":                       solana.Token2022ProgramID,
		solana.Token2022ProgramID.String(): solana.Token2022ProgramID,
	} {
		got, err := ParseTokenProgram(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTokenProgram("token-2023")
	assert.Error(t, err)
}
