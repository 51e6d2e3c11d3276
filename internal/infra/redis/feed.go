package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const feedBuffer = 8

// Feed carries quiz events over Redis pub/sub so subscribers connected to
// any instance receive completions sealed on another.
type Feed struct {
	client *redis.Client
	log    *slog.Logger
}

func NewFeed(client *redis.Client, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{client: client, log: logger}
}

func (f *Feed) Publish(ctx context.Context, event domain.QuizEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := f.client.Publish(ctx, channel(event.QuizID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published after it returns are delivered.
func (f *Feed) Subscribe(ctx context.Context, quizID uuid.UUID) (<-chan domain.QuizEvent, func(), error) {
	pubsub := f.client.Subscribe(ctx, channel(quizID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", quizID, err)
	}

	out := make(chan domain.QuizEvent, feedBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		for msg := range pubsub.Channel() {
			var event domain.QuizEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				f.log.Warn("drop malformed feed message", "channel", msg.Channel, "err", err)
				continue
			}
			deliver(out, event)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = pubsub.Close()
			<-done
		})
	}
	return out, cancel, nil
}

// deliver never blocks: a full subscriber loses its oldest event.
func deliver(ch chan domain.QuizEvent, event domain.QuizEvent) {
	select {
	case ch <- event:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- event
	}
}

func channel(quizID uuid.UUID) string {
	return "quiz:" + quizID.String() + ":events"
}
