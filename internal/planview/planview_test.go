package planview

import (
	"encoding/base64"
	"testing"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPlan(t *testing.T) {
	owner, account := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	kp, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	p := &tokenaccount.Plan{
		ID:           "id-1",
		Owner:        owner,
		Address:      kp.PublicKey(),
		Mint:         solana.SolMint,
		TokenProgram: solana.TokenProgramID,
		Strategy:     tokenaccount.WrapEphemeralKeypair,
		Created:      true,
		Instructions: []solana.Instruction{
			tokenaccount.NewTokenSyncNativeIx(account, solana.TokenProgramID),
		},
		CleanupInstructions: []solana.Instruction{
			tokenaccount.NewTokenCloseAccountIx(account, owner, owner, solana.TokenProgramID),
		},
		Signers: []solana.PrivateKey{kp},
	}

	v, err := FromPlan(p)
	require.NoError(t, err)

	assert.Equal(t, "ephemeral-keypair", v.Strategy)
	assert.False(t, v.Usable)
	require.Len(t, v.Instructions, 1)
	assert.Equal(t, solana.TokenProgramID.String(), v.Instructions[0].ProgramID)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{17}), v.Instructions[0].Data)
	assert.Equal(t, account.String(), v.Instructions[0].Accounts[0].Pubkey)
	assert.True(t, v.Instructions[0].Accounts[0].IsWritable)

	require.Len(t, v.CleanupInstructions, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{9}), v.CleanupInstructions[0].Data)
	assert.True(t, v.CleanupInstructions[0].Accounts[2].IsSigner)

	require.Len(t, v.Signers, 1)
	assert.Equal(t, v.Address, v.Signers[0].PublicKey)
	back, err := solana.PrivateKeyFromBase58(v.Signers[0].SecretKey)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), back.PublicKey())
}

func TestFromPlans_EmptyInstructionsAreArrays(t *testing.T) {
	out, err := FromPlans([]*tokenaccount.Plan{{Owner: solana.NewWallet().PublicKey()}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Usable)
	assert.NotNil(t, out[0].Instructions)
	assert.NotNil(t, out[0].Signers)
}
