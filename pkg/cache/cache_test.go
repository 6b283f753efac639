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

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

type item struct {
	ID   uint   `json:"id"`
	Name string `json:"nombre"`
}

func TestSetGetRoundTrip(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "catalog:products", []item{{ID: 1, Name: "Guitarra"}}, time.Minute))

	var got []item
	assert.True(t, s.Get(ctx, "catalog:products", &got))
	assert.Equal(t, []item{{ID: 1, Name: "Guitarra"}}, got)

	mr.FastForward(2 * time.Minute)
	assert.False(t, s.Get(ctx, "catalog:products", &got))
}

func TestFlushPrefix(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	for _, k := range []string{"catalog:a", "catalog:b", "other:c"} {
		require.NoError(t, s.Set(ctx, k, 1, 0))
	}

	require.NoError(t, s.Flush(ctx, "catalog:"))

	assert.False(t, mr.Exists("catalog:a"))
	assert.False(t, mr.Exists("catalog:b"))
	assert.True(t, mr.Exists("other:c"))
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()

	assert.False(t, s.Enabled())
	assert.NoError(t, s.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.False(t, s.Get(ctx, "k", &v))
	assert.NoError(t, s.Flush(ctx, "k"))
	assert.NoError(t, New(nil).Del(ctx, "k"))
}
