package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"classquiz-service/internal/app"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of app.Store and app.ReportReader,
// used by tests and when no Postgres URL is configured.
//
// Transactions are serialized: RunInTx holds the store lock while fn runs
// against a private copy of the data and swaps it in on success. fn must
// only use the tx it is handed.
type Store struct {
	mu   sync.RWMutex
	data *state
	inTx bool
}

var (
	_ app.Store        = (*Store)(nil)
	_ app.ReportReader = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{data: newState()}
}

type membership map[uuid.UUID]time.Time

type state struct {
	users           map[uuid.UUID]domain.User
	emails          map[string]uuid.UUID
	classes         map[uuid.UUID]domain.Class
	codes           map[string]uuid.UUID
	members         map[uuid.UUID]membership
	quizzes         map[uuid.UUID]domain.Quiz
	sessions        map[uuid.UUID]domain.QuizSession
	questions       map[uuid.UUID]domain.Question
	options         map[uuid.UUID]domain.Option
	attempts        map[uuid.UUID]domain.QuizAttempt
	sessionAttempts map[uuid.UUID]domain.SessionAttempt
	answers         map[uuid.UUID]domain.Answer
}

func newState() *state {
	return &state{
		users:           make(map[uuid.UUID]domain.User),
		emails:          make(map[string]uuid.UUID),
		classes:         make(map[uuid.UUID]domain.Class),
		codes:           make(map[string]uuid.UUID),
		members:         make(map[uuid.UUID]membership),
		quizzes:         make(map[uuid.UUID]domain.Quiz),
		sessions:        make(map[uuid.UUID]domain.QuizSession),
		questions:       make(map[uuid.UUID]domain.Question),
		options:         make(map[uuid.UUID]domain.Option),
		attempts:        make(map[uuid.UUID]domain.QuizAttempt),
		sessionAttempts: make(map[uuid.UUID]domain.SessionAttempt),
		answers:         make(map[uuid.UUID]domain.Answer),
	}
}

// clone copies every table. Pointer fields inside records are never mutated
// in place, so copying the records themselves is enough.
func (st *state) clone() *state {
	c := newState()
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.emails {
		c.emails[k] = v
	}
	for k, v := range st.classes {
		c.classes[k] = v
	}
	for k, v := range st.codes {
		c.codes[k] = v
	}
	for k, v := range st.members {
		m := make(membership, len(v))
		for student, joined := range v {
			m[student] = joined
		}
		c.members[k] = m
	}
	for k, v := range st.quizzes {
		v.ClassIDs = append([]uuid.UUID(nil), v.ClassIDs...)
		c.quizzes[k] = v
	}
	for k, v := range st.sessions {
		c.sessions[k] = v
	}
	for k, v := range st.questions {
		c.questions[k] = v
	}
	for k, v := range st.options {
		c.options[k] = v
	}
	for k, v := range st.attempts {
		c.attempts[k] = v
	}
	for k, v := range st.sessionAttempts {
		c.sessionAttempts[k] = v
	}
	for k, v := range st.answers {
		c.answers[k] = v
	}
	return c
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{data: s.data.clone(), inTx: true}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func nowIfZero(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(f float64) *float64 { return &f }

// byOrder sorts by an explicit order index, then by id for stability.
func byOrder[T any](items []T, order func(T) int, id func(T) uuid.UUID) {
	sort.Slice(items, func(i, j int) bool {
		oi, oj := order(items[i]), order(items[j])
		if oi != oj {
			return oi < oj
		}
		return id(items[i]).String() < id(items[j]).String()
	})
}
