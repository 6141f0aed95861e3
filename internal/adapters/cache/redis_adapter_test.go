package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisclient "github.com/snapmap/storefinder/backend/internal/infrastructure/clients/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (*miniredis.Miniredis, *RedisAdapter) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := redisclient.NewClientWithAddr(srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return srv, &RedisAdapter{client: client}
}

func TestRedisAdapter_SetGet(t *testing.T) {
	_, adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1"), 60))

	got, err := adapter.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	exists, err := adapter.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisAdapter_MissingKey(t *testing.T) {
	_, adapter := newTestAdapter(t)

	_, err := adapter.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestRedisAdapter_Expiry(t *testing.T) {
	srv, adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1"), 1))
	srv.FastForward(2 * time.Second)

	_, err := adapter.Get(ctx, "k1")
	assert.Error(t, err)
}

func TestRedisAdapter_Delete(t *testing.T) {
	_, adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k1", []byte("v1"), 60))
	require.NoError(t, adapter.Delete(ctx, "k1"))

	exists, err := adapter.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryAdapter_PerKeyTTL(t *testing.T) {
	adapter, err := NewMemoryAdapter(16)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "short", []byte("a"), 0))
	require.NoError(t, adapter.Set(ctx, "long", []byte("b"), 3600))

	got, err := adapter.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)

	got, err = adapter.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)
}
