package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

type countingSource struct {
	calls int
	value uint64
	err   error
}

func (s *countingSource) get(context.Context) (uint64, error) {
	s.calls++
	return s.value, s.err
}

func TestNewRentCache_Validation(t *testing.T) {
	src := &countingSource{}
	_, err := NewRentCache(nil, src.get, RentCacheConfig{})
	assert.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	_, err = NewRentCache(client, nil, RentCacheConfig{})
	assert.Error(t, err)
}

func TestRentCache_HitAfterMiss(t *testing.T) {
	client := setupTestRedis(t)
	src := &countingSource{value: 2039280}

	c, err := NewRentCache(client, src.get, RentCacheConfig{TTL: time.Minute, Namespace: "test", Logger: quietLogger()})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := c.RentExemption(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2039280), v)
	}
	assert.Equal(t, 1, src.calls)

	require.NoError(t, c.Invalidate(ctx))
	_, err = c.RentExemption(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRentCache_SourceErrorNotCached(t *testing.T) {
	client := setupTestRedis(t)
	errDown := errors.New("rpc down")
	src := &countingSource{err: errDown}

	c, err := NewRentCache(client, src.get, RentCacheConfig{Logger: quietLogger()})
	require.NoError(t, err)

	_, err = c.RentExemption(context.Background())
	assert.Equal(t, errDown, err)

	src.err = nil
	src.value = 10
	v, err := c.RentExemption(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), v)
}

func TestRentCache_FallsThroughWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	src := &countingSource{value: 7}
	c, err := NewRentCache(client, src.get, RentCacheConfig{Logger: quietLogger()})
	require.NoError(t, err)

	v, err := c.RentExemption(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)
	assert.Equal(t, 1, src.calls)
}
