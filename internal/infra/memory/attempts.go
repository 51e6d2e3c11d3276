package memory

import (
	"context"
	"sort"
	"time"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateAttempt(_ context.Context, a *domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.quizzes[a.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	for _, cur := range s.data.attempts {
		if cur.QuizID == a.QuizID && cur.StudentID == a.StudentID && !cur.Sealed() {
			return domain.ErrAttemptInProgress
		}
	}
	ensureID(&a.ID)
	nowIfZero(&a.StartedAt)
	s.data.attempts[a.ID] = *a
	return nil
}

func (s *Store) GetAttempt(_ context.Context, id uuid.UUID) (domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data.attempts[id]
	if !ok {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	return a, nil
}

// LockAttempt is GetAttempt here: transactions already run one at a time.
func (s *Store) LockAttempt(ctx context.Context, id uuid.UUID) (domain.QuizAttempt, error) {
	return s.GetAttempt(ctx, id)
}

func (s *Store) FindOpenAttempt(_ context.Context, quizID, studentID uuid.UUID) (domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.data.attempts {
		if a.QuizID == quizID && a.StudentID == studentID && !a.Sealed() {
			return a, nil
		}
	}
	return domain.QuizAttempt{}, domain.ErrAttemptNotFound
}

func (s *Store) HasCompletedAttempt(_ context.Context, quizID, studentID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.data.attempts {
		if a.QuizID == quizID && a.StudentID == studentID && a.Sealed() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SealAttempt(_ context.Context, id uuid.UUID, score float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.data.attempts[id]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if a.Sealed() {
		return domain.ErrAttemptSealed
	}
	a.CompletedAt = timePtr(at)
	a.Score = floatPtr(score)
	s.data.attempts[id] = a
	return nil
}

func (s *Store) ListAttemptsByStudent(_ context.Context, studentID uuid.UUID) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.QuizAttempt
	for _, a := range s.data.attempts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sortAttempts(out)
	return out, nil
}

func (s *Store) ListAttemptsByCreator(_ context.Context, creatorID uuid.UUID) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.QuizAttempt
	for _, a := range s.data.attempts {
		if q, ok := s.data.quizzes[a.QuizID]; ok && q.CreatorID == creatorID {
			out = append(out, a)
		}
	}
	sortAttempts(out)
	return out, nil
}

func (s *Store) GetOrCreateSessionAttempt(_ context.Context, attemptID, sessionID uuid.UUID, now time.Time) (domain.SessionAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sa := range s.data.sessionAttempts {
		if sa.AttemptID == attemptID && sa.SessionID == sessionID {
			return sa, nil
		}
	}
	if _, ok := s.data.attempts[attemptID]; !ok {
		return domain.SessionAttempt{}, domain.ErrAttemptNotFound
	}
	if _, ok := s.data.sessions[sessionID]; !ok {
		return domain.SessionAttempt{}, domain.ErrSessionNotFound
	}
	sa := domain.SessionAttempt{
		ID:        uuid.New(),
		AttemptID: attemptID,
		SessionID: sessionID,
		StartedAt: now,
	}
	s.data.sessionAttempts[sa.ID] = sa
	return sa, nil
}

func (s *Store) FindSessionAttempt(_ context.Context, attemptID, sessionID uuid.UUID) (domain.SessionAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sa := range s.data.sessionAttempts {
		if sa.AttemptID == attemptID && sa.SessionID == sessionID {
			return sa, nil
		}
	}
	return domain.SessionAttempt{}, domain.ErrSessionAttemptNotFound
}

func (s *Store) ListSessionAttempts(_ context.Context, attemptID uuid.UUID) ([]domain.SessionAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SessionAttempt
	for _, sa := range s.data.sessionAttempts {
		if sa.AttemptID == attemptID {
			out = append(out, sa)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := s.data.sessions[out[i].SessionID].Order, s.data.sessions[out[j].SessionID].Order
		if oi != oj {
			return oi < oj
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) CompleteSessionAttempt(_ context.Context, id uuid.UUID, score float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sa, ok := s.data.sessionAttempts[id]
	if !ok {
		return domain.ErrSessionAttemptNotFound
	}
	if sa.Completed() {
		return domain.ErrSessionAlreadyCompleted
	}
	sa.CompletedAt = timePtr(at)
	sa.Score = floatPtr(score)
	s.data.sessionAttempts[id] = sa
	return nil
}

// UpsertAnswer replaces any earlier answer to the same question in the same
// session attempt, keeping its id.
func (s *Store) UpsertAnswer(_ context.Context, a *domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.sessionAttempts[a.SessionAttemptID]; !ok {
		return domain.ErrSessionAttemptNotFound
	}
	for id, cur := range s.data.answers {
		if cur.SessionAttemptID == a.SessionAttemptID && cur.QuestionID == a.QuestionID {
			a.ID = id
			break
		}
	}
	ensureID(&a.ID)
	nowIfZero(&a.AnsweredAt)
	s.data.answers[a.ID] = *a
	return nil
}

func (s *Store) ListAnswers(_ context.Context, sessionAttemptID uuid.UUID) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Answer
	for _, a := range s.data.answers {
		if a.SessionAttemptID == sessionAttemptID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := s.data.questions[out[i].QuestionID].Order, s.data.questions[out[j].QuestionID].Order
		if oi != oj {
			return oi < oj
		}
		return out[i].QuestionID.String() < out[j].QuestionID.String()
	})
	return out, nil
}

func (s *Store) deleteAttemptLocked(id uuid.UUID) {
	delete(s.data.attempts, id)
	for said, sa := range s.data.sessionAttempts {
		if sa.AttemptID == id {
			s.deleteSessionAttemptLocked(said)
		}
	}
}

func (s *Store) deleteSessionAttemptLocked(id uuid.UUID) {
	delete(s.data.sessionAttempts, id)
	for aid, a := range s.data.answers {
		if a.SessionAttemptID == id {
			delete(s.data.answers, aid)
		}
	}
}

func sortAttempts(as []domain.QuizAttempt) {
	sort.Slice(as, func(i, j int) bool {
		if !as[i].StartedAt.Equal(as[j].StartedAt) {
			return as[i].StartedAt.After(as[j].StartedAt)
		}
		return as[i].ID.String() < as[j].ID.String()
	})
}
