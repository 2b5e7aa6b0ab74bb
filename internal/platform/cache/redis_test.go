package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Levels []string `json:"levels"`
}

func TestJSONCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c, err := NewJSON(client, "")
	require.NoError(t, err)
	ctx := context.Background()

	var got payload
	hit, err := c.Get(ctx, "facets", &got)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.Set(ctx, "facets", payload{Levels: []string{"tk", "sd"}}, time.Minute))
	require.True(t, mr.Exists(defaultPrefix+"facets"))

	hit, err = c.Get(ctx, "facets", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []string{"tk", "sd"}, got.Levels)

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, "facets", &got)
	require.NoError(t, err)
	require.False(t, hit, "entry expires after ttl")

	require.NoError(t, c.Set(ctx, "facets", payload{}, 0))
	require.NoError(t, c.Delete(ctx, "facets"))
	require.False(t, mr.Exists(defaultPrefix+"facets"))
}

func TestJSONCacheDecodeError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c, err := NewJSON(client, "p:")
	require.NoError(t, err)
	require.NoError(t, mr.Set("p:bad", "{"))

	var got payload
	_, err = c.Get(context.Background(), "bad", &got)
	require.Error(t, err)
}
