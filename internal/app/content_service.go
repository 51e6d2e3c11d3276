package app

import (
	"context"
	"strings"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

// Session and question management. All of it is creator-only.

func (s *QuizService) CreateSession(ctx context.Context, p auth.Principal, quizID uuid.UUID, in SessionInput) (domain.SessionContent, error) {
	if err := in.validate(0); err != nil {
		return domain.SessionContent{}, err
	}
	var created domain.QuizSession
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := ownedQuiz(ctx, tx, p, quizID); err != nil {
			return err
		}
		n, err := tx.CountSessions(ctx, quizID)
		if err != nil {
			return err
		}
		created, err = createSession(ctx, tx, quizID, in, n)
		return err
	})
	if err != nil {
		return domain.SessionContent{}, err
	}
	return loadSession(ctx, s.store, created)
}

// ListSessions lists sessions of one quiz, or of every quiz the caller created.
func (s *QuizService) ListSessions(ctx context.Context, p auth.Principal, quizID *uuid.UUID) ([]domain.SessionContent, error) {
	if err := requireTeacher(p); err != nil {
		return nil, err
	}
	var quizzes []domain.Quiz
	if quizID != nil {
		q, err := ownedQuiz(ctx, s.store, p, *quizID)
		if err != nil {
			return nil, err
		}
		quizzes = []domain.Quiz{q}
	} else {
		var err error
		if quizzes, err = s.store.ListQuizzesByCreator(ctx, p.UserID); err != nil {
			return nil, err
		}
	}
	var out []domain.SessionContent
	for _, q := range quizzes {
		content, err := loadContent(ctx, s.store, q)
		if err != nil {
			return nil, err
		}
		out = append(out, content.Sessions...)
	}
	return out, nil
}

func (s *QuizService) GetSession(ctx context.Context, p auth.Principal, id uuid.UUID) (domain.SessionContent, error) {
	sess, err := ownedSession(ctx, s.store, p, id)
	if err != nil {
		return domain.SessionContent{}, err
	}
	return loadSession(ctx, s.store, sess)
}

// UpdateSession changes name, duration and order. Questions are managed
// through their own operations.
func (s *QuizService) UpdateSession(ctx context.Context, p auth.Principal, id uuid.UUID, in SessionInput) (domain.SessionContent, error) {
	sess, err := ownedSession(ctx, s.store, p, id)
	if err != nil {
		return domain.SessionContent{}, err
	}
	return s.saveSession(ctx, sess, in)
}

// SessionPatch changes only the fields that are set.
type SessionPatch struct {
	Name     *string
	Duration *int
	Order    *int
}

func (s *QuizService) PatchSession(ctx context.Context, p auth.Principal, id uuid.UUID, pt SessionPatch) (domain.SessionContent, error) {
	sess, err := ownedSession(ctx, s.store, p, id)
	if err != nil {
		return domain.SessionContent{}, err
	}
	in := SessionInput{Name: sess.Name, Duration: sess.Duration, Order: pt.Order}
	if pt.Name != nil {
		in.Name = *pt.Name
	}
	if pt.Duration != nil {
		in.Duration = *pt.Duration
	}
	return s.saveSession(ctx, sess, in)
}

func (s *QuizService) saveSession(ctx context.Context, sess domain.QuizSession, in SessionInput) (domain.SessionContent, error) {
	in.Questions = nil
	if err := in.validate(0); err != nil {
		return domain.SessionContent{}, err
	}
	sess.Name = strings.TrimSpace(in.Name)
	sess.Duration = in.Duration
	sess.Order = orderOr(in.Order, sess.Order)
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return domain.SessionContent{}, err
	}
	return loadSession(ctx, s.store, sess)
}

func (s *QuizService) DeleteSession(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if _, err := ownedSession(ctx, s.store, p, id); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, id)
}

func (s *QuizService) CreateQuestion(ctx context.Context, p auth.Principal, sessionID uuid.UUID, in QuestionInput) (domain.Question, error) {
	if err := in.validate(0); err != nil {
		return domain.Question{}, err
	}
	var created domain.Question
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := ownedSession(ctx, tx, p, sessionID); err != nil {
			return err
		}
		existing, err := tx.ListQuestions(ctx, sessionID)
		if err != nil {
			return err
		}
		created, err = createQuestion(ctx, tx, sessionID, in, len(existing))
		return err
	})
	if err != nil {
		return domain.Question{}, err
	}
	return s.store.GetQuestion(ctx, created.ID)
}

// ListQuestions lists questions of one session, or of every session the caller owns.
func (s *QuizService) ListQuestions(ctx context.Context, p auth.Principal, sessionID *uuid.UUID) ([]domain.Question, error) {
	if sessionID != nil {
		if _, err := ownedSession(ctx, s.store, p, *sessionID); err != nil {
			return nil, err
		}
		return s.store.ListQuestions(ctx, *sessionID)
	}
	sessions, err := s.ListSessions(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.Question
	for _, sess := range sessions {
		out = append(out, sess.Questions...)
	}
	return out, nil
}

func (s *QuizService) GetQuestion(ctx context.Context, p auth.Principal, id uuid.UUID) (domain.Question, error) {
	return ownedQuestion(ctx, s.store, p, id)
}

// UpdateQuestion rewrites the question. When Options is non-nil they are
// reconciled by id: listed ids are updated, entries without an id are
// created and options no longer listed are deleted. A nil Options leaves
// them alone.
func (s *QuizService) UpdateQuestion(ctx context.Context, p auth.Principal, id uuid.UUID, in QuestionInput) (domain.Question, error) {
	if err := in.validate(0); err != nil {
		return domain.Question{}, err
	}
	return s.updateQuestion(ctx, p, id, func(domain.Question) QuestionInput { return in })
}

// QuestionPatch changes only the fields that are set. Options follow the
// UpdateQuestion rule.
type QuestionPatch struct {
	Text    *string
	Order   *int
	Options []OptionInput
}

func (s *QuizService) PatchQuestion(ctx context.Context, p auth.Principal, id uuid.UUID, pt QuestionPatch) (domain.Question, error) {
	return s.updateQuestion(ctx, p, id, func(q domain.Question) QuestionInput {
		in := QuestionInput{Text: q.Text, Order: pt.Order, Options: pt.Options}
		if pt.Text != nil {
			in.Text = *pt.Text
		}
		return in
	})
}

func (s *QuizService) updateQuestion(ctx context.Context, p auth.Principal, id uuid.UUID, merge func(domain.Question) QuestionInput) (domain.Question, error) {
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		q, err := ownedQuestion(ctx, tx, p, id)
		if err != nil {
			return err
		}
		in := merge(q)
		if err := in.validate(0); err != nil {
			return err
		}
		q.Text = strings.TrimSpace(in.Text)
		q.Order = orderOr(in.Order, q.Order)
		if err := tx.UpdateQuestion(ctx, q); err != nil {
			return err
		}
		if in.Options == nil {
			return nil
		}
		return reconcileOptions(ctx, tx, q, in.Options)
	})
	if err != nil {
		return domain.Question{}, err
	}
	return s.store.GetQuestion(ctx, id)
}

func (s *QuizService) DeleteQuestion(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if _, err := ownedQuestion(ctx, s.store, p, id); err != nil {
		return err
	}
	return s.store.DeleteQuestion(ctx, id)
}

func createSession(ctx context.Context, tx Store, quizID uuid.UUID, in SessionInput, pos int) (domain.QuizSession, error) {
	sess := domain.QuizSession{
		QuizID:   quizID,
		Name:     strings.TrimSpace(in.Name),
		Duration: in.Duration,
		Order:    orderOr(in.Order, pos),
	}
	if err := tx.CreateSession(ctx, &sess); err != nil {
		return domain.QuizSession{}, err
	}
	for i, q := range in.Questions {
		if _, err := createQuestion(ctx, tx, sess.ID, q, i); err != nil {
			return domain.QuizSession{}, err
		}
	}
	return sess, nil
}

func createQuestion(ctx context.Context, tx Store, sessionID uuid.UUID, in QuestionInput, pos int) (domain.Question, error) {
	q := domain.Question{
		SessionID: sessionID,
		Text:      strings.TrimSpace(in.Text),
		Order:     orderOr(in.Order, pos),
	}
	if err := tx.CreateQuestion(ctx, &q); err != nil {
		return domain.Question{}, err
	}
	for i, o := range in.Options {
		opt := domain.Option{
			QuestionID: q.ID,
			Text:       strings.TrimSpace(o.Text),
			IsCorrect:  o.IsCorrect,
			Order:      orderOr(o.Order, i),
		}
		if err := tx.CreateOption(ctx, &opt); err != nil {
			return domain.Question{}, err
		}
		q.Options = append(q.Options, opt)
	}
	return q, nil
}

func reconcileOptions(ctx context.Context, tx Store, q domain.Question, inputs []OptionInput) error {
	current := make(map[uuid.UUID]domain.Option, len(q.Options))
	for _, o := range q.Options {
		current[o.ID] = o
	}
	keep := make(map[uuid.UUID]struct{}, len(inputs))
	for i, in := range inputs {
		opt := domain.Option{
			QuestionID: q.ID,
			Text:       strings.TrimSpace(in.Text),
			IsCorrect:  in.IsCorrect,
			Order:      orderOr(in.Order, i),
		}
		if in.ID == nil {
			if err := tx.CreateOption(ctx, &opt); err != nil {
				return err
			}
			keep[opt.ID] = struct{}{}
			continue
		}
		if _, ok := current[*in.ID]; !ok {
			return domain.ErrOptionNotFound
		}
		opt.ID = *in.ID
		if err := tx.UpdateOption(ctx, opt); err != nil {
			return err
		}
		keep[opt.ID] = struct{}{}
	}
	for id := range current {
		if _, ok := keep[id]; ok {
			continue
		}
		if err := tx.DeleteOption(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
