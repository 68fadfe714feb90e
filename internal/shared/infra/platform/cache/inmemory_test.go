package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache_SetGetDelete(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Minute)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []string{"a", "b"}, 0))

	var got []string
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	hit, _ = c.Get(ctx, "k", &got)
	assert.False(t, hit)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	c := NewInMemoryCache(10*time.Millisecond, 5*time.Millisecond)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, 0))
	time.Sleep(30 * time.Millisecond)

	var v int
	hit, err := c.Get(ctx, "k", &v)
	assert.NoError(t, err)
	assert.False(t, hit)
}
