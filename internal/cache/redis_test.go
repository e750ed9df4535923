package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client, "", time.Minute)
}

func TestRedisStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)

	s.Put(ctx, "k1", []byte(`{"results":[]}`))

	got, ok := s.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, `{"results":[]}`, string(got))
	assert.True(t, mr.Exists(DefaultRedisPrefix+"k1"))
	assert.Equal(t, time.Minute, mr.TTL(DefaultRedisPrefix+"k1"))
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)

	s.Put(ctx, "k1", []byte("v"))
	mr.FastForward(2 * time.Minute)

	_, ok := s.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestRedisStore_Miss(t *testing.T) {
	_, s := newTestRedis(t)
	_, ok := s.Get(context.Background(), "absent")
	assert.False(t, ok)
}

func TestRedisStore_ClearOnlyPrefix(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)

	for _, k := range []string{"a", "b", "c"} {
		s.Put(ctx, k, []byte(k))
	}
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, s.Clear(ctx))

	for _, k := range []string{"a", "b", "c"} {
		_, ok := s.Get(ctx, k)
		assert.False(t, ok, "key %s should be gone", k)
	}
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisStore_ServerDownIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedis(t)
	mr.Close()

	s.Put(ctx, "k", []byte("v"))
	_, ok := s.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, s.Clear(ctx))
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	addr := mr.Addr()
	client, err := DialRedis(context.Background(), addr, "", 0)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = DialRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
