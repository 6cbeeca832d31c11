package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "estate_reviews/internal/adapters/redis"
	"estate_reviews/internal/domain"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redisad.Cache, *redisad.SubmissionLog) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return mr, redisad.New(c), redisad.NewSubmissionLog(c, 2*time.Hour)
}

func TestCache_SetGetDel(t *testing.T) {
	mr, cache, _ := newClient(t)
	ctx := context.Background()

	var miss []domain.PublicReview
	ok, err := cache.Get(ctx, "reviews:k", &miss)
	require.NoError(t, err)
	assert.False(t, ok)

	in := []domain.PublicReview{{ID: "a", Rating: 4, Body: "Quiet cul-de-sac"}}
	require.NoError(t, cache.Set(ctx, "reviews:k", in, 60))
	assert.True(t, mr.Exists("reviews:k"))

	var out []domain.PublicReview
	ok, err = cache.Get(ctx, "reviews:k", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	mr.FastForward(61 * time.Second)
	ok, _ = cache.Get(ctx, "reviews:k", &out)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "reviews:k", in, 60))
	require.NoError(t, cache.Del(ctx, "reviews:k"))
	assert.False(t, mr.Exists("reviews:k"))
}

func TestSubmissionLog_TrailingWindow(t *testing.T) {
	_, _, sl := newClient(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, ago := range []time.Duration{90 * time.Minute, 50 * time.Minute, 10 * time.Minute, time.Minute} {
		require.NoError(t, sl.Append(ctx, domain.SubmissionLogEntry{IPHash: "h1", InsertedAt: now.Add(-ago)}))
	}
	require.NoError(t, sl.Append(ctx, domain.SubmissionLogEntry{IPHash: "h2", InsertedAt: now}))

	n, err := sl.CountSince(ctx, "h1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = sl.CountSince(ctx, "unknown", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
