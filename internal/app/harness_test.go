package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"classquiz-service/internal/infra/memory"
	"github.com/google/uuid"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	t          *testing.T
	ctx        context.Context
	clock      *clock
	store      *memory.Store
	feed       *memory.Feed
	accounts   *app.AccountService
	classes    *app.ClassService
	quizzes    *app.QuizService
	attempts   *app.AttemptService
	dashboards *app.DashboardService
}

func newHarness(t *testing.T, opts ...app.Option) *harness {
	t.Helper()
	c := &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	feed := memory.NewFeed()
	opts = append([]app.Option{app.WithClock(c.Now)}, opts...)
	issuer := auth.NewTokenIssuer("access", "refresh", time.Hour, 24*time.Hour)

	return &harness{
		t:          t,
		ctx:        context.Background(),
		clock:      c,
		store:      store,
		feed:       feed,
		accounts:   app.NewAccountService(store, issuer, memory.NewTokenBlacklist(), opts...),
		classes:    app.NewClassService(store, opts...),
		quizzes:    app.NewQuizService(store, opts...),
		attempts:   app.NewAttemptService(store, store, feed, opts...),
		dashboards: app.NewDashboardService(store, opts...),
	}
}

// user stores a user directly, skipping password hashing.
func (h *harness) user(role domain.Role) auth.Principal {
	h.t.Helper()
	u := domain.User{
		Username: string(role) + "-" + uuid.NewString()[:8],
		Role:     role,
		IsActive: true,
	}
	u.Email = u.Username + "@example.com"
	if err := h.store.CreateUser(h.ctx, &u); err != nil {
		h.t.Fatalf("create user: %v", err)
	}
	return auth.PrincipalFor(u)
}

func (h *harness) class(teacher auth.Principal, students ...auth.Principal) domain.Class {
	h.t.Helper()
	c, err := h.classes.Create(h.ctx, teacher, app.ClassInput{Name: "Class " + uuid.NewString()[:4], Subject: "Math"})
	if err != nil {
		h.t.Fatalf("create class: %v", err)
	}
	for _, s := range students {
		if _, err := h.classes.JoinByCode(h.ctx, s, c.Code); err != nil {
			h.t.Fatalf("join class: %v", err)
		}
	}
	return c
}

// quiz creates a published quiz with one session per entry of questionsPerSession.
// Each question has a correct option first and a wrong option second.
func (h *harness) quiz(teacher auth.Principal, classID uuid.UUID, questionsPerSession ...int) app.QuizDetail {
	h.t.Helper()
	in := app.QuizInput{Title: "Quiz", ClassIDs: []uuid.UUID{classID}, ShowResult: true}
	for i, n := range questionsPerSession {
		sess := app.SessionInput{Name: "Session " + string(rune('A'+i)), Duration: 10}
		for j := 0; j < n; j++ {
			sess.Questions = append(sess.Questions, app.QuestionInput{
				Text: "Question",
				Options: []app.OptionInput{
					{Text: "right", IsCorrect: true},
					{Text: "wrong"},
				},
			})
		}
		in.Sessions = append(in.Sessions, sess)
	}
	detail, err := h.quizzes.Create(h.ctx, teacher, in)
	if err != nil {
		h.t.Fatalf("create quiz: %v", err)
	}
	if _, err := h.quizzes.Publish(h.ctx, teacher, detail.ID, app.PublishInput{}); err != nil {
		h.t.Fatalf("publish quiz: %v", err)
	}
	return detail
}

func (h *harness) answer(student auth.Principal, attemptID uuid.UUID, q domain.Question, correct bool) domain.Answer {
	h.t.Helper()
	opt := q.Options[1]
	if correct {
		opt = q.Options[0]
	}
	a, err := h.attempts.SubmitAnswer(h.ctx, student, attemptID, app.AnswerInput{QuestionID: q.ID, OptionID: opt.ID})
	if err != nil {
		h.t.Fatalf("submit answer: %v", err)
	}
	return a
}

func (h *harness) start(student auth.Principal, quizID uuid.UUID) domain.QuizAttempt {
	h.t.Helper()
	a, _, err := h.attempts.Start(h.ctx, student, quizID)
	if err != nil {
		h.t.Fatalf("start attempt: %v", err)
	}
	return a
}
