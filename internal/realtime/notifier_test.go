package realtime_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/testutil"
)

func newNotifier(t *testing.T) *realtime.Notifier {
	rc, _ := testutil.NewRedis(t)
	return realtime.NewNotifier(rc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func next(t *testing.T, s *realtime.Subscription) realtime.Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return realtime.Event{}
}

func TestNotifier_DeliversOnlyToAddressee(t *testing.T) {
	ctx := context.Background()
	n := newNotifier(t)

	subA, err := n.Subscribe(ctx, "a")
	require.NoError(t, err)
	defer subA.Close()

	require.NoError(t, n.Publish(ctx, "b", realtime.Event{Type: realtime.TypeMatch}))
	require.NoError(t, n.Publish(ctx, "a", realtime.Event{
		Type:    realtime.TypeMessage,
		Message: &db.Message{ID: 7, SenderID: "b", ReceiverID: "a", Content: "hi"},
	}))

	ev := next(t, subA)
	assert.Equal(t, realtime.TypeMessage, ev.Type)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "hi", ev.Message.Content)
}

func TestNotifier_CloseEndsStream(t *testing.T) {
	ctx := context.Background()
	n := newNotifier(t)

	sub, err := n.Subscribe(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestNotifier_ContextCancelEndsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := newNotifier(t)

	sub, err := n.Subscribe(ctx, "a")
	require.NoError(t, err)
	defer sub.Close()
	cancel()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}
