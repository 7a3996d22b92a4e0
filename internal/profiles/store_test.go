package profiles

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return client
}

func TestNewStore_NilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestValidateName(t *testing.T) {
	for _, n := range []string{"default", "jupiter.swaps", "pda-owners_2", "a"} {
		assert.NoError(t, ValidateName(n), n)
	}
	for _, n := range []string{"", " ", "with space", "with:colon", "tab\tname"} {
		assert.Error(t, ValidateName(n), n)
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Get(ctx, "swaps")
	assert.Equal(t, ErrNotFound, err)

	p, err := store.Upsert(ctx, "swaps", tokenaccount.Config{
		Idempotent:      true,
		DefaultStrategy: "ata",
	})
	require.NoError(t, err)
	assert.Equal(t, tokenaccount.WrapAssociated, p.Config.DefaultStrategy)
	assert.NotZero(t, p.UpdatedAt)

	got, err := store.Get(ctx, "swaps")
	require.NoError(t, err)
	assert.Equal(t, p.Config, got.Config)
	assert.True(t, got.UpdatedAt.Equal(p.UpdatedAt))

	time.Sleep(time.Millisecond)
	p2, err := store.Upsert(ctx, "swaps", tokenaccount.Config{AllowOffCurveOwner: true})
	require.NoError(t, err)
	assert.True(t, p2.UpdatedAt.After(p.UpdatedAt))

	got, err = store.Get(ctx, "swaps")
	require.NoError(t, err)
	assert.False(t, got.Config.Idempotent)
	assert.True(t, got.Config.AllowOffCurveOwner)
}

func TestStore_UpsertRejectsUnknownStrategy(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)

	_, err = store.Upsert(context.Background(), "bad", tokenaccount.Config{DefaultStrategy: "magic"})
	assert.Error(t, err)
}

func TestStore_ListAndDelete(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for i := 0; i < 3; i++ {
		_, err := store.Upsert(ctx, fmt.Sprintf("p%d", i), tokenaccount.Config{Idempotent: i%2 == 0})
		require.NoError(t, err)
	}

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	require.NoError(t, store.Delete(ctx, "p1"))
	assert.Equal(t, ErrNotFound, store.Delete(ctx, "p1"))

	_, err = store.Get(ctx, "p1")
	assert.Equal(t, ErrNotFound, err)

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
