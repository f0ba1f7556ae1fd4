package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedValue) func() error {
		return func() error {
			calls++
			*dest = cachedValue{Name: "post", Count: 3}
			return nil
		}
	}

	var first cachedValue
	require.NoError(t, Aside(ctx, PostKey("abc"), &first, PostTTL, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("post:abc"))

	var second cachedValue
	require.NoError(t, Aside(ctx, PostKey("abc"), &second, PostTTL, fetch(&second)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	InvalidatePost(ctx, "abc")
	assert.False(t, mr.Exists("post:abc"))

	var third cachedValue
	require.NoError(t, Aside(ctx, PostKey("abc"), &third, PostTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAsideExpires(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	var v cachedValue
	require.NoError(t, Aside(ctx, "k", &v, time.Minute, func() error {
		v = cachedValue{Name: "x"}
		return nil
	}))
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("k"))
}

func TestAsidePropagatesFetchError(t *testing.T) {
	setupRedis(t)

	var v cachedValue
	err := Aside(context.Background(), "missing", &v, time.Minute, func() error {
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestAsideFallsBackWhenRedisDown(t *testing.T) {
	mr := setupRedis(t)
	mr.Close()

	var v cachedValue
	err := Aside(context.Background(), "k", &v, time.Minute, func() error {
		v = cachedValue{Name: "db"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "db", v.Name)
}

func TestAsideWithoutClient(t *testing.T) {
	SetClient(nil)

	calls := 0
	var v cachedValue
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), "k", &v, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
	Invalidate(context.Background(), "k")
}

func TestInitRedisUnreachable(t *testing.T) {
	InitRedis("redis://127.0.0.1:1/0")
	assert.Nil(t, GetClient())

	InitRedis("")
	assert.Nil(t, GetClient())
}
