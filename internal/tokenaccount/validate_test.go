package tokenaccount

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	owner, mint := newKey(), newKey()

	existing := AccountState{
		Exists:       true,
		Owner:        owner.ToPointer(),
		OwnerProgram: solana.TokenProgramID.ToPointer(),
		Mint:         mint.ToPointer(),
	}

	tests := []struct {
		name     string
		state    AccountState
		offCurve bool
		allowOff bool
		program  solana.PublicKey
		wantErr  error
	}{
		{name: "missing", state: MissingAccount(), program: solana.TokenProgramID},
		{name: "owned", state: existing, program: solana.TokenProgramID},
		{name: "owned, zero program", state: existing, program: solana.PublicKey{}},
		{name: "off-curve allowed", state: existing, offCurve: true, allowOff: true, program: solana.TokenProgramID},
		{
			name:     "off-curve disallowed",
			state:    MissingAccount(),
			offCurve: true,
			program:  solana.TokenProgramID,
			wantErr:  ErrOffCurveOwnerDisallowed,
		},
		{
			name: "different owner",
			state: AccountState{
				Exists:       true,
				Owner:        newKey().ToPointer(),
				OwnerProgram: solana.TokenProgramID.ToPointer(),
			},
			program: solana.TokenProgramID,
			wantErr: ErrOwnershipChanged,
		},
		{
			name: "reassigned program",
			state: AccountState{
				Exists:       true,
				OwnerProgram: solana.SystemProgramID.ToPointer(),
			},
			program: solana.TokenProgramID,
			wantErr: ErrOwnershipChanged,
		},
		{
			name:    "other token program",
			state:   existing,
			program: solana.Token2022ProgramID,
			wantErr: ErrOwnershipChanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.state, owner, tt.program, tt.offCurve, tt.allowOff)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsRejection(err))
		})
	}
}

func TestDecodeAccountState(t *testing.T) {
	owner, mint := newKey(), newKey()

	st, err := DecodeAccountState(solana.TokenProgramID, 2039280, tokenAccountData(mint, owner))
	require.NoError(t, err)
	assert.True(t, st.Exists)
	require.NotNil(t, st.Owner)
	assert.Equal(t, owner, *st.Owner)
	require.NotNil(t, st.Mint)
	assert.Equal(t, mint, *st.Mint)
	assert.Equal(t, uint64(2039280), st.Lamports)
	assert.Equal(t, solana.TokenProgramID, *st.OwnerProgram)

	// wallet account: exists, no token owner
	st, err = DecodeAccountState(solana.SystemProgramID, 1, nil)
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Nil(t, st.Owner)

	// mint account is too short to be a token account
	st, err = DecodeAccountState(solana.TokenProgramID, 1, make([]byte, 82))
	require.NoError(t, err)
	assert.Nil(t, st.Owner)
}
