package memory

import (
	"context"
	"sort"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateQuiz(_ context.Context, q *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cid := range q.ClassIDs {
		if _, ok := s.data.classes[cid]; !ok {
			return domain.ErrClassNotFound
		}
	}
	ensureID(&q.ID)
	nowIfZero(&q.CreatedAt)
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = q.CreatedAt
	}
	stored := *q
	stored.ClassIDs = uniqueIDs(q.ClassIDs)
	s.data.quizzes[q.ID] = stored
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id uuid.UUID) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.data.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	q.ClassIDs = append([]uuid.UUID(nil), q.ClassIDs...)
	return q, nil
}

// UpdateQuiz overwrites every mutable field, including the class set.
func (s *Store) UpdateQuiz(_ context.Context, q domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data.quizzes[q.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	for _, cid := range q.ClassIDs {
		if _, ok := s.data.classes[cid]; !ok {
			return domain.ErrClassNotFound
		}
	}
	q.CreatorID = cur.CreatorID
	q.CreatedAt = cur.CreatedAt
	q.ClassIDs = uniqueIDs(q.ClassIDs)
	s.data.quizzes[q.ID] = q
	return nil
}

// DeleteQuiz removes the quiz with its content tree and every attempt.
func (s *Store) DeleteQuiz(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.data.quizzes, id)
	for sid, sess := range s.data.sessions {
		if sess.QuizID == id {
			s.deleteSessionLocked(sid)
		}
	}
	for aid, a := range s.data.attempts {
		if a.QuizID == id {
			s.deleteAttemptLocked(aid)
		}
	}
	return nil
}

func (s *Store) ListQuizzesByCreator(_ context.Context, creatorID uuid.UUID) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterQuizzesLocked(func(q domain.Quiz) bool { return q.CreatorID == creatorID }), nil
}

func (s *Store) ListQuizzesByClass(_ context.Context, classID uuid.UUID) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterQuizzesLocked(func(q domain.Quiz) bool { return q.HasClass(classID) }), nil
}

// ListQuizzesForStudent returns quizzes assigned to any class the student
// belongs to, published or not.
func (s *Store) ListQuizzesForStudent(_ context.Context, studentID uuid.UUID) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterQuizzesLocked(func(q domain.Quiz) bool { return s.assignedLocked(q, studentID) }), nil
}

func (s *Store) IsAssigned(_ context.Context, quizID, studentID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.data.quizzes[quizID]
	if !ok {
		return false, domain.ErrQuizNotFound
	}
	return s.assignedLocked(q, studentID), nil
}

func (s *Store) assignedLocked(q domain.Quiz, studentID uuid.UUID) bool {
	for _, cid := range q.ClassIDs {
		if _, ok := s.data.members[cid][studentID]; ok {
			return true
		}
	}
	return false
}

func (s *Store) filterQuizzesLocked(keep func(domain.Quiz) bool) []domain.Quiz {
	var out []domain.Quiz
	for _, q := range s.data.quizzes {
		if keep(q) {
			q.ClassIDs = append([]uuid.UUID(nil), q.ClassIDs...)
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
