package wallet

import (
	"context"
	"encoding/json"
	"testing"

	projectrpc "github.com/aman-zulfiqar/solana-token-accounts/internal/rpc"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTxClient struct {
	simErr  interface{}
	lastTx  string
	bhCalls int
}

func (c *fakeTxClient) GetLatestBlockhash(context.Context) (*projectrpc.BlockhashValue, error) {
	c.bhCalls++
	return &projectrpc.BlockhashValue{Blockhash: "11111111111111111111111111111111", LastValidBlockHeight: 10}, nil
}

func (c *fakeTxClient) SimulateTransaction(_ context.Context, txBase64 string) (*projectrpc.SimulationValue, error) {
	c.lastTx = txBase64
	return &projectrpc.SimulationValue{Err: c.simErr, Logs: []string{"ok"}, UnitsConsumed: 1200}, nil
}

func newTestWallet(t *testing.T, client TxClient) *Wallet {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return New(priv, client, nil)
}

func TestParsePrivateKey(t *testing.T) {
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	got, err := ParsePrivateKey(base58.Encode(priv))
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey(), got.PublicKey())

	ints := make([]int, len(priv))
	for i, b := range priv {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)
	got, err = ParsePrivateKey(" " + string(raw) + "\n")
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey(), got.PublicKey())

	_, err = ParsePrivateKey("[1,2,3]")
	assert.Error(t, err)
	_, err = ParsePrivateKey("not-base58-0OIl")
	assert.Error(t, err)
}

func TestComposeInstructions_Order(t *testing.T) {
	a, b := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	setupA := tokenaccount.NewTokenSyncNativeIx(a, solana.TokenProgramID)
	setupB := tokenaccount.NewTokenSyncNativeIx(b, solana.TokenProgramID)
	closeA := tokenaccount.NewTokenCloseAccountIx(a, a, a, solana.TokenProgramID)
	closeB := tokenaccount.NewTokenCloseAccountIx(b, b, b, solana.TokenProgramID)
	primary := tokenaccount.NewSystemTransferIx(a, b, 1)

	signer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	plans := []*tokenaccount.Plan{
		{Instructions: []solana.Instruction{setupA}, CleanupInstructions: []solana.Instruction{closeA}},
		nil,
		{Instructions: []solana.Instruction{setupB}, CleanupInstructions: []solana.Instruction{closeB}, Signers: []solana.PrivateKey{signer}},
	}

	ixs, signers := ComposeInstructions(plans, primary)
	assert.Equal(t, []solana.Instruction{setupA, setupB, primary, closeB, closeA}, ixs)
	assert.Equal(t, []solana.PrivateKey{signer}, signers)
}

type missingFetcher struct{}

func (missingFetcher) FetchStates(_ context.Context, addrs []solana.PublicKey) ([]tokenaccount.AccountState, error) {
	return make([]tokenaccount.AccountState, len(addrs)), nil
}

func TestBuildPlanTransaction_SignsWithEphemeralKeys(t *testing.T) {
	client := &fakeTxClient{}
	w := newTestWallet(t, client)

	r := tokenaccount.NewResolver(missingFetcher{}, tokenaccount.Config{}, nil)
	plan, err := r.Resolve(context.Background(), tokenaccount.Request{
		Owner:         w.PublicKey(),
		Mint:          solana.SolMint,
		FundingAmount: 1_000_000,
		Strategy:      tokenaccount.WrapEphemeralKeypair,
		FundingAmountProvider: func(context.Context) (uint64, error) {
			return 2039280, nil
		},
	})
	require.NoError(t, err)
	require.Len(t, plan.Signers, 1)

	tx, err := w.BuildPlanTransaction(context.Background(), []*tokenaccount.Plan{plan})
	require.NoError(t, err)
	assert.Equal(t, 1, client.bhCalls)

	// wallet (payer, owner) plus the ephemeral account
	require.Len(t, tx.Signatures, 2)
	assert.Equal(t, w.PublicKey(), tx.Message.AccountKeys[0])
	assert.NoError(t, tx.VerifySignatures())
	assert.Len(t, tx.Message.Instructions, 5)
}

func TestSignTx_MissingSigner(t *testing.T) {
	w := newTestWallet(t, &fakeTxClient{})
	other := solana.NewWallet().PublicKey()

	// the close authority is not the wallet, so signing must fail
	ix := tokenaccount.NewTokenCloseAccountIx(solana.NewWallet().PublicKey(), w.PublicKey(), other, solana.TokenProgramID)
	tx, err := w.BuildTransaction(context.Background(), []solana.Instruction{ix})
	require.NoError(t, err)
	assert.Error(t, w.SignTx(tx))
}

func TestBuildTransaction_Empty(t *testing.T) {
	w := newTestWallet(t, &fakeTxClient{})
	_, err := w.BuildTransaction(context.Background(), nil)
	assert.Error(t, err)
}

func TestSimulateTransaction(t *testing.T) {
	client := &fakeTxClient{}
	w := newTestWallet(t, client)

	tx, err := w.BuildTransaction(context.Background(), []solana.Instruction{
		tokenaccount.NewSystemTransferIx(w.PublicKey(), solana.NewWallet().PublicKey(), 1),
	})
	require.NoError(t, err)
	require.NoError(t, w.SignTx(tx))

	res, err := w.SimulateTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, uint64(1200), res.UnitsConsumed)
	assert.NotEmpty(t, client.lastTx)

	client.simErr = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
	res, err = w.SimulateTransaction(context.Background(), tx)
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}
