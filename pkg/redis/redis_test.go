package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := NewRedisAdapter(t.Name(), "test:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, mr
}

func TestAdapter_PrefixedKeys(t *testing.T) {
	r, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "session:a", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:session:a"))

	v, err := r.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))

	n, err := r.Exist(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, r.Del(ctx, "session:a"))
	_, err = r.Get(ctx, "session:a")
	assert.ErrorIs(t, err, NilError)
}

func TestAdapter_SetNX(t *testing.T) {
	r, mr := newTestAdapter(t)
	ctx := context.Background()

	ok, err := r.SetNX(ctx, "lock", []byte("1"), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.SetNX(ctx, "lock", []byte("2"), time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Second)
	ok, err = r.SetNX(ctx, "lock", []byte("3"), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdapter_DelIfEquals(t *testing.T) {
	r, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "lock", []byte("owner-a"), time.Minute))

	deleted, err := r.DelIfEquals(ctx, "lock", []byte("owner-b"))
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = r.DelIfEquals(ctx, "lock", []byte("owner-a"))
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestNewRedisAdapter_ReusesConnection(t *testing.T) {
	mr := miniredis.RunT(t)
	a, err := NewRedisAdapter("reuse", "x:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	b, err := NewRedisAdapter("reuse", "x:", &Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, a, GetRedis("reuse"))
}
