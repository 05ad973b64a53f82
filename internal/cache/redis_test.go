package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/elite-matchmaking/internal/cache"
	"github.com/oggyb/elite-matchmaking/internal/testutil"
)

func TestLikeCount_MissSetHitInvalidate(t *testing.T) {
	ctx := context.Background()
	rc, mr := testutil.NewRedis(t)

	_, ok, err := rc.GetLikeCount(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.SetLikeCount(ctx, "a1", 7))
	n, ok, err := rc.GetLikeCount(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, cache.LikeCountTTL, mr.TTL(rc.KeyForLikeCount("a1")))

	require.NoError(t, rc.InvalidateLikeCount(ctx, "a1"))
	_, ok, err = rc.GetLikeCount(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikeCount_GarbageIsMiss(t *testing.T) {
	ctx := context.Background()
	rc, mr := testutil.NewRedis(t)
	require.NoError(t, mr.Set(rc.KeyForLikeCount("a1"), "nope"))

	_, ok, err := rc.GetLikeCount(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_FixedWindow(t *testing.T) {
	ctx := context.Background()
	rc, mr := testutil.NewRedis(t)

	for i := 0; i < 3; i++ {
		ok, err := rc.Allow(ctx, "link:a@b.c", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "call %d", i)
	}
	ok, err := rc.Allow(ctx, "link:a@b.c", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)
	ok, err = rc.Allow(ctx, "link:a@b.c", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevokeSession(t *testing.T) {
	ctx := context.Background()
	rc, _ := testutil.NewRedis(t)

	revoked, err := rc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rc.RevokeSession(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = rc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// already expired sessions are not stored
	require.NoError(t, rc.RevokeSession(ctx, "jti-2", time.Now().Add(-time.Minute)))
	revoked, err = rc.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	rc, _ := testutil.NewRedis(t)

	sub, err := rc.Subscribe(ctx, "a1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, rc.Publish(ctx, "a1", []byte(`{"type":"match"}`)))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, cache.ChannelForAccount("a1"), msg.Channel)
		assert.JSONEq(t, `{"type":"match"}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
