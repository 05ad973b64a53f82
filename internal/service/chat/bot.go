package chat

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/repository"
)

// BotReplies returns the canned replies of a scripted profile.
func BotReplies(country string) []string {
	return []string{
		"That's so interesting! Tell me more 😊",
		"I was just thinking about that!",
		"Haha you are funny 😂",
		"Send me a photo? I want to see you.",
		"I'm from " + country + ", have you been there?",
	}
}

// BotReplier answers messages sent to scripted profiles after a fixed delay.
// Pending replies are abandoned on Close.
type BotReplier struct {
	messages *repository.MessageRepository
	notifier *realtime.Notifier
	log      *slog.Logger
	delay    time.Duration
	pick     func(n int) int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBotReplier(messages *repository.MessageRepository, notifier *realtime.Notifier, log *slog.Logger, delay time.Duration) *BotReplier {
	ctx, cancel := context.WithCancel(context.Background())
	return &BotReplier{
		messages: messages,
		notifier: notifier,
		log:      log,
		delay:    delay,
		pick:     rand.IntN,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Schedule queues one reply from bot to the account that messaged it.
func (b *BotReplier) Schedule(bot db.Profile, to string) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		timer := time.NewTimer(b.delay)
		defer timer.Stop()
		select {
		case <-b.ctx.Done():
			return
		case <-timer.C:
		}

		replies := BotReplies(bot.Country)
		msg := &db.Message{
			SenderID:   bot.ID,
			ReceiverID: to,
			Content:    replies[b.pick(len(replies))],
		}
		if err := b.messages.Create(b.ctx, msg); err != nil {
			b.log.Error("bot reply failed", "bot", bot.ID, "to", to, "err", err)
			return
		}
		_ = b.notifier.Publish(b.ctx, to, realtime.Event{Type: realtime.TypeMessage, Message: msg})
	}()
}

// Close cancels pending replies and waits for in-flight ones.
func (b *BotReplier) Close() {
	b.cancel()
	b.wg.Wait()
}
