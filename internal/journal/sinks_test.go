package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_RoundTrip(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	pub, err := NewPublisher(client, quietLogger())
	require.NoError(t, err)

	entry := FromPlan(testPlan(t), "test", time.Now())
	got := make(chan Entry, 1)

	subCtx, stop := context.WithCancel(ctx)
	defer stop()
	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = pub.Subscribe(subCtx, entry.Owner, func(e Entry) { got <- e })
	}()
	<-ready

	// publish until the subscriber is attached
	deadline := time.After(3 * time.Second)
	for {
		require.NoError(t, pub.Write(ctx, []Entry{entry}))
		select {
		case e := <-got:
			assert.Equal(t, entry.PlanID, e.PlanID)
			assert.Equal(t, entry.Owner, e.Owner)
			return
		case <-deadline:
			t.Fatal("no plan event received")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestClickHouseSink_Write(t *testing.T) {
	addr := os.Getenv("CLICKHOUSE_TEST_ADDR")
	if addr == "" {
		t.Skip("CLICKHOUSE_TEST_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sink, err := NewClickHouseSink(ctx, ClickHouseConfig{
		Addr:     addr,
		Database: "default",
		Username: "default",
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	defer sink.Close()

	entry := FromPlan(testPlan(t), "test", time.Now())
	require.NoError(t, sink.Write(ctx, []Entry{entry}))

	n, err := sink.CountByOwner(ctx, entry.Owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}
