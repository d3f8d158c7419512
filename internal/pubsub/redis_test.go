package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAdapter(t *testing.T) (*RedisAdapter, context.Context) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	adapter, err := NewRedisAdapter(ctx, RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, ctx
}

func TestRedisPublishSubscribe(t *testing.T) {
	adapter, ctx := startAdapter(t)

	type msg struct {
		channel string
		payload string
	}
	var mu sync.Mutex
	var got []msg

	require.NoError(t, adapter.Subscribe(ctx, "collab:*", func(channel string, payload []byte) {
		mu.Lock()
		got = append(got, msg{channel, string(payload)})
		mu.Unlock()
	}))

	require.NoError(t, adapter.Publish(ctx, "collab:session:s1", []byte(`{"a":1}`)))
	require.NoError(t, adapter.Publish(ctx, "collab:thread:t1", []byte(`{"b":2}`)))
	// Outside the pattern; must not be delivered.
	require.NoError(t, adapter.Publish(ctx, "other:channel", []byte(`{}`)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "collab:session:s1", got[0].channel)
	assert.Equal(t, `{"a":1}`, got[0].payload)
	assert.Equal(t, "collab:thread:t1", got[1].channel)
}

func TestRedisUnreachableIsExplicit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := NewRedisAdapter(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
