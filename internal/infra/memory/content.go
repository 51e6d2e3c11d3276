package memory

import (
	"context"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateSession(_ context.Context, sess *domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.quizzes[sess.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	ensureID(&sess.ID)
	s.data.sessions[sess.ID] = *sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id uuid.UUID) (domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data.sessions[id]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) UpdateSession(_ context.Context, sess domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data.sessions[sess.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.QuizID = cur.QuizID
	s.data.sessions[sess.ID] = sess
	return nil
}

func (s *Store) DeleteSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	s.deleteSessionLocked(id)
	return nil
}

func (s *Store) ListSessions(_ context.Context, quizID uuid.UUID) ([]domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.QuizSession
	for _, sess := range s.data.sessions {
		if sess.QuizID == quizID {
			out = append(out, sess)
		}
	}
	byOrder(out, func(v domain.QuizSession) int { return v.Order }, func(v domain.QuizSession) uuid.UUID { return v.ID })
	return out, nil
}

func (s *Store) CountSessions(_ context.Context, quizID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.data.sessions {
		if sess.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateQuestion(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.sessions[q.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	ensureID(&q.ID)
	stored := *q
	stored.Options = nil
	s.data.questions[q.ID] = stored
	return nil
}

func (s *Store) GetQuestion(_ context.Context, id uuid.UUID) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.data.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	q.Options = s.optionsLocked(id)
	return q, nil
}

func (s *Store) UpdateQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data.questions[q.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	cur.Text = q.Text
	cur.Order = q.Order
	s.data.questions[q.ID] = cur
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.deleteQuestionLocked(id)
	return nil
}

func (s *Store) ListQuestions(_ context.Context, sessionID uuid.UUID) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Question
	for _, q := range s.data.questions {
		if q.SessionID == sessionID {
			q.Options = s.optionsLocked(q.ID)
			out = append(out, q)
		}
	}
	byOrder(out, func(v domain.Question) int { return v.Order }, func(v domain.Question) uuid.UUID { return v.ID })
	return out, nil
}

func (s *Store) CreateOption(_ context.Context, o *domain.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.questions[o.QuestionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	ensureID(&o.ID)
	s.data.options[o.ID] = *o
	return nil
}

func (s *Store) GetOption(_ context.Context, id uuid.UUID) (domain.Option, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.data.options[id]
	if !ok {
		return domain.Option{}, domain.ErrOptionNotFound
	}
	return o, nil
}

func (s *Store) UpdateOption(_ context.Context, o domain.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data.options[o.ID]
	if !ok {
		return domain.ErrOptionNotFound
	}
	o.QuestionID = cur.QuestionID
	s.data.options[o.ID] = o
	return nil
}

func (s *Store) DeleteOption(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.options[id]; !ok {
		return domain.ErrOptionNotFound
	}
	s.deleteOptionLocked(id)
	return nil
}

func (s *Store) optionsLocked(questionID uuid.UUID) []domain.Option {
	var out []domain.Option
	for _, o := range s.data.options {
		if o.QuestionID == questionID {
			out = append(out, o)
		}
	}
	byOrder(out, func(v domain.Option) int { return v.Order }, func(v domain.Option) uuid.UUID { return v.ID })
	return out
}

func (s *Store) deleteSessionLocked(id uuid.UUID) {
	delete(s.data.sessions, id)
	for qid, q := range s.data.questions {
		if q.SessionID == id {
			s.deleteQuestionLocked(qid)
		}
	}
	for said, sa := range s.data.sessionAttempts {
		if sa.SessionID == id {
			s.deleteSessionAttemptLocked(said)
		}
	}
}

func (s *Store) deleteQuestionLocked(id uuid.UUID) {
	delete(s.data.questions, id)
	for oid, o := range s.data.options {
		if o.QuestionID == id {
			delete(s.data.options, oid)
		}
	}
	for aid, a := range s.data.answers {
		if a.QuestionID == id {
			delete(s.data.answers, aid)
		}
	}
}

func (s *Store) deleteOptionLocked(id uuid.UUID) {
	delete(s.data.options, id)
	for aid, a := range s.data.answers {
		if a.SelectedOptionID != nil && *a.SelectedOptionID == id {
			a.SelectedOptionID = nil
			s.data.answers[aid] = a
		}
	}
}
