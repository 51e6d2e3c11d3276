package app

import (
	"context"
	"errors"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

// AttemptDetails is a per-session breakdown of one attempt.
//
// ShowScores is false when a student looks at a quiz that hides results; the
// score fields are then cleared. CorrectOptionID is only set when
// RevealAnswers is true.
type AttemptDetails struct {
	Attempt       domain.QuizAttempt
	Quiz          domain.Quiz
	Student       domain.User
	Sessions      []SessionDetails
	ShowScores    bool
	RevealAnswers bool
}

type SessionDetails struct {
	Session domain.QuizSession
	Attempt *domain.SessionAttempt // nil until the first answer
	Answers []AnswerDetails
}

type AnswerDetails struct {
	Question         domain.Question
	SelectedOptionID *uuid.UUID
	IsCorrect        *bool
	CorrectOptionID  *uuid.UUID
}

// Details returns the attempt broken down by session. The quiz creator sees
// everything; the student sees scores unless the quiz hides results, and the
// correct options once the attempt is sealed if the quiz shows answers.
func (s *AttemptService) Details(ctx context.Context, p auth.Principal, id uuid.UUID) (AttemptDetails, error) {
	attempt, quiz, err := viewableAttempt(ctx, s.store, p, id)
	if err != nil {
		return AttemptDetails{}, err
	}
	student, err := s.store.GetUser(ctx, attempt.StudentID)
	if err != nil {
		return AttemptDetails{}, err
	}

	creator := p.IsTeacher()
	out := AttemptDetails{
		Attempt:       attempt,
		Quiz:          quiz,
		Student:       student,
		ShowScores:    creator || quiz.ShowResult,
		RevealAnswers: creator || (attempt.Sealed() && quiz.ShowAnswers),
	}
	if !out.ShowScores {
		out.Attempt.Score = nil
	}

	sessions, err := s.store.ListSessions(ctx, quiz.ID)
	if err != nil {
		return AttemptDetails{}, err
	}
	for _, sess := range sessions {
		sd, err := s.sessionDetails(ctx, attempt.ID, sess, out.ShowScores, out.RevealAnswers)
		if err != nil {
			return AttemptDetails{}, err
		}
		out.Sessions = append(out.Sessions, sd)
	}
	return out, nil
}

func (s *AttemptService) sessionDetails(ctx context.Context, attemptID uuid.UUID, sess domain.QuizSession, showScores, reveal bool) (SessionDetails, error) {
	sd := SessionDetails{Session: sess}
	questions, err := s.store.ListQuestions(ctx, sess.ID)
	if err != nil {
		return SessionDetails{}, err
	}

	byQuestion := map[uuid.UUID]domain.Answer{}
	sa, err := s.store.FindSessionAttempt(ctx, attemptID, sess.ID)
	switch {
	case err == nil:
		if !showScores {
			sa.Score = nil
		}
		sd.Attempt = &sa
		answers, err := s.store.ListAnswers(ctx, sa.ID)
		if err != nil {
			return SessionDetails{}, err
		}
		for _, a := range answers {
			byQuestion[a.QuestionID] = a
		}
	case !errors.Is(err, domain.ErrSessionAttemptNotFound):
		return SessionDetails{}, err
	}

	for _, q := range questions {
		ad := AnswerDetails{Question: q}
		if a, ok := byQuestion[q.ID]; ok {
			ad.SelectedOptionID = a.SelectedOptionID
			if showScores {
				correct := a.IsCorrect
				ad.IsCorrect = &correct
			}
		}
		if reveal {
			for _, o := range q.Options {
				if o.IsCorrect {
					id := o.ID
					ad.CorrectOptionID = &id
					break
				}
			}
		}
		sd.Answers = append(sd.Answers, ad)
	}
	return sd, nil
}
