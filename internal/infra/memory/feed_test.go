package memory

import (
	"context"
	"testing"
	"time"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func TestFeedDeliversToQuizSubscribers(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed()
	quizID := uuid.New()

	ch, cancel, err := feed.Subscribe(ctx, quizID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := feed.Publish(ctx, domain.QuizEvent{QuizID: uuid.New(), Score: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := feed.Publish(ctx, domain.QuizEvent{QuizID: quizID, Score: 75}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Score != 75 {
			t.Fatalf("got event for another quiz: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestFeedDropsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed()
	quizID := uuid.New()

	ch, cancel, _ := feed.Subscribe(ctx, quizID)
	defer cancel()

	for i := 0; i < feedBuffer+3; i++ {
		_ = feed.Publish(ctx, domain.QuizEvent{QuizID: quizID, Score: float64(i)})
	}
	first := <-ch
	if first.Score != 3 {
		t.Fatalf("expected oldest events dropped, first score = %v", first.Score)
	}
}

func TestFeedCancelClosesAndForgetsTopic(t *testing.T) {
	feed := NewFeed()
	quizID := uuid.New()

	ch, cancel, _ := feed.Subscribe(context.Background(), quizID)
	if feed.Subscribers(quizID) != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if feed.Subscribers(quizID) != 0 {
		t.Fatalf("expected topic dropped after last cancel")
	}
}

func TestTokenBlacklistExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	bl := NewTokenBlacklist()
	bl.now = func() time.Time { return now }

	if err := bl.Revoke(ctx, "jti-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := bl.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("expected revoked token")
	}
	now = now.Add(2 * time.Minute)
	if revoked, _ := bl.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("expected entry to expire with the token")
	}
}
