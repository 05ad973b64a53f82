// Package realtime fans out per-account events (new messages, matches, session
// changes) over Redis pub/sub so any server instance can deliver them.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/elite-matchmaking/internal/cache"
	"github.com/oggyb/elite-matchmaking/internal/db"
)

// Event types.
const (
	TypeMessage      = "message"
	TypeMatch        = "match"
	TypeSessionEnded = "session_ended"
)

// Event is the payload pushed to listening clients.
type Event struct {
	Type string `json:"type"`

	// message
	Message *db.Message `json:"message,omitempty"`

	// match
	Match *db.Profile `json:"match,omitempty"`

	// session_ended
	SessionID string `json:"session_id,omitempty"`
}

// Notifier publishes and subscribes to account event streams.
type Notifier struct {
	rc  *cache.RedisCache
	log *slog.Logger
}

func NewNotifier(rc *cache.RedisCache, log *slog.Logger) *Notifier {
	return &Notifier{rc: rc, log: log}
}

// Publish delivers ev to every listener of accountID. Delivery is best effort;
// nobody listening is not an error.
func (n *Notifier) Publish(ctx context.Context, accountID string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := n.rc.Publish(ctx, accountID, b); err != nil {
		n.log.Error("publish failed", "account", accountID, "type", ev.Type, "err", err)
		return err
	}
	return nil
}

// Subscription is one listener on an account stream.
type Subscription struct {
	sub    *redis.PubSub
	events chan Event
	done   chan struct{}
}

// Subscribe starts listening on accountID. Events arrive on Events() until
// Close is called or ctx ends.
func (n *Notifier) Subscribe(ctx context.Context, accountID string) (*Subscription, error) {
	sub, err := n.rc.Subscribe(ctx, accountID)
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		sub:    sub,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go s.pump(ctx, n.log.With("account", accountID))
	return s, nil
}

func (s *Subscription) pump(ctx context.Context, log *slog.Logger) {
	defer close(s.events)
	ch := s.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("dropping malformed event", "err", err)
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}

// Events yields decoded events. Closed when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close stops the subscription. Safe to call once.
func (s *Subscription) Close() error {
	close(s.done)
	return s.sub.Close()
}
