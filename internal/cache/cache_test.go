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

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewWithClient(client)
}

type statusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func TestCache_SetGet(t *testing.T) {
	_, c := setupTestCache(t)
	ctx := context.Background()

	want := statusEntry{Status: "processed", Timestamp: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, c.Set(ctx, "event:evt-001:status", want, time.Minute))

	var got statusEntry
	found, err := c.Get(ctx, "event:evt-001:status", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestCache_GetMissing(t *testing.T) {
	_, c := setupTestCache(t)

	var got statusEntry
	found, err := c.Get(context.Background(), "event:nope:status", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Expiry(t *testing.T) {
	mr, c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", time.Minute))

	mr.FastForward(2 * time.Minute)

	var got string
	found, err := c.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_DefaultTTL(t *testing.T) {
	mr, c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 0))
	assert.Greater(t, mr.TTL("key"), time.Duration(0))
}

func TestCache_Delete(t *testing.T) {
	_, c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, c.Delete(ctx, "key"))

	var got string
	found, err := c.Get(ctx, "key", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Increment(t *testing.T) {
	_, c := setupTestCache(t)
	ctx := context.Background()

	n, err := c.Increment(ctx, "counter", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Increment(ctx, "counter", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not-a-url")
	assert.Error(t, err)
}
