package memory

import (
	"context"
	"sync"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

const feedBuffer = 8

// Feed is an in-process implementation of app.Feed. Each quiz has its own
// topic, created on first subscribe and dropped when the last subscriber
// leaves.
type Feed struct {
	mu     sync.Mutex
	topics map[uuid.UUID]*topic
}

func NewFeed() *Feed {
	return &Feed{topics: make(map[uuid.UUID]*topic)}
}

type topic struct {
	subscribers map[chan domain.QuizEvent]struct{}
}

func (f *Feed) Publish(_ context.Context, event domain.QuizEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.topics[event.QuizID]
	if !ok {
		return nil
	}
	t.broadcastLocked(event)
	return nil
}

func (f *Feed) Subscribe(_ context.Context, quizID uuid.UUID) (<-chan domain.QuizEvent, func(), error) {
	ch := make(chan domain.QuizEvent, feedBuffer)

	f.mu.Lock()
	t, ok := f.topics[quizID]
	if !ok {
		t = &topic{subscribers: make(map[chan domain.QuizEvent]struct{})}
		f.topics[quizID] = t
	}
	t.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := t.subscribers[ch]; !ok {
			return
		}
		delete(t.subscribers, ch)
		close(ch)
		if len(t.subscribers) == 0 && f.topics[quizID] == t {
			delete(f.topics, quizID)
		}
	}
	return ch, cancel, nil
}

// Subscribers reports how many live subscribers quizID has.
func (f *Feed) Subscribers(quizID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.topics[quizID]; ok {
		return len(t.subscribers)
	}
	return 0
}

// broadcastLocked never blocks: a full subscriber loses its oldest event.
func (t *topic) broadcastLocked(event domain.QuizEvent) {
	for ch := range t.subscribers {
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
}
