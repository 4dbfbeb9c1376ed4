package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Amount string `json:"amount"`
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("6f1c2a7e-0d7b-4a4e-9b1f-3a7c1f0b9e11")

	assert.Equal(t, "lending:capital", CapitalKey())
	assert.Equal(t, "lending:loan:6f1c2a7e-0d7b-4a4e-9b1f-3a7c1f0b9e11", LoanKey(id))
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	var got snapshot
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)

	require.NoError(t, c.Set(ctx, "k", snapshot{Amount: "10.00"}))
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "10.00", got.Amount)

	require.NoError(t, c.Delete(ctx, "k", "missing"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", snapshot{Amount: "1.00"}))

	now = now.Add(2 * time.Minute)
	var got snapshot
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
	assert.Equal(t, 0, c.Len())
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()

	c := NewRedisCache(client, time.Minute, nil)
	ctx := context.Background()

	var got snapshot
	err := c.Get(ctx, CapitalKey(), &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)

	assert.Error(t, c.Set(ctx, CapitalKey(), snapshot{Amount: "1.00"}))
	assert.Error(t, c.Delete(ctx, CapitalKey()))
	assert.NoError(t, c.Delete(ctx))
	assert.Error(t, c.Ping(ctx))
}
