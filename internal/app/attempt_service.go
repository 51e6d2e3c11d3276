package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// AnswerInput submits one answer. SessionID is optional; when present it must
// match the question's session.
type AnswerInput struct {
	QuestionID uuid.UUID
	OptionID   uuid.UUID
	SessionID  *uuid.UUID
}

// SessionResult is the outcome of completing a session. Attempt carries the
// final score when the completion sealed it.
type SessionResult struct {
	SessionAttempt domain.SessionAttempt
	Attempt        domain.QuizAttempt
	Sealed         bool
}

// AttemptService drives the attempt state machine:
// not started -> in progress -> completed.
type AttemptService struct {
	store   Store
	reports ReportReader
	feed    Feed
	now     func() time.Time
	log     *slog.Logger
	stats   singleflight.Group
}

func NewAttemptService(store Store, reports ReportReader, feed Feed, opts ...Option) *AttemptService {
	o := buildOptions(opts)
	return &AttemptService{
		store:   store,
		reports: reports,
		feed:    feed,
		now:     o.now,
		log:     o.logger,
	}
}

// Start opens an attempt for the calling student, or returns the one already
// in progress. created reports whether a new attempt was stored.
func (s *AttemptService) Start(ctx context.Context, p auth.Principal, quizID uuid.UUID) (attempt domain.QuizAttempt, created bool, err error) {
	quiz, err := assignedQuiz(ctx, s.store, p, quizID)
	if err != nil {
		return domain.QuizAttempt{}, false, err
	}
	student, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return domain.QuizAttempt{}, false, err
	}
	if !student.IsActive {
		return domain.QuizAttempt{}, false, domain.ErrInactiveUser
	}
	now := s.now()
	if quiz.StartDate != nil && now.Before(*quiz.StartDate) {
		return domain.QuizAttempt{}, false, domain.ErrQuizNotStarted
	}
	if quiz.EndDate != nil && now.After(*quiz.EndDate) {
		return domain.QuizAttempt{}, false, domain.ErrQuizEnded
	}

	open, err := s.store.FindOpenAttempt(ctx, quizID, p.UserID)
	if err == nil {
		return open, false, nil
	}
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		return domain.QuizAttempt{}, false, err
	}
	done, err := s.store.HasCompletedAttempt(ctx, quizID, p.UserID)
	if err != nil {
		return domain.QuizAttempt{}, false, err
	}
	if done {
		return domain.QuizAttempt{}, false, domain.ErrQuizAlreadyCompleted
	}

	attempt = domain.QuizAttempt{QuizID: quizID, StudentID: p.UserID, StartedAt: now}
	err = s.store.CreateAttempt(ctx, &attempt)
	if errors.Is(err, domain.ErrAttemptInProgress) {
		// Lost a concurrent start; the winner's attempt is the one.
		open, err := s.store.FindOpenAttempt(ctx, quizID, p.UserID)
		return open, false, err
	}
	if err != nil {
		return domain.QuizAttempt{}, false, err
	}
	s.log.Info("attempt started", "attempt", attempt.ID, "quiz", quizID, "student", p.UserID)
	return attempt, true, nil
}

// SubmitAnswer records or replaces the answer to a question. Correctness is
// read from the option as it is now.
func (s *AttemptService) SubmitAnswer(ctx context.Context, p auth.Principal, attemptID uuid.UUID, in AnswerInput) (domain.Answer, error) {
	if err := requireStudent(p); err != nil {
		return domain.Answer{}, err
	}
	if in.QuestionID == uuid.Nil {
		return domain.Answer{}, domain.Invalid("question_id is required")
	}
	if in.OptionID == uuid.Nil {
		return domain.Answer{}, domain.Invalid("option_id is required")
	}

	var answer domain.Answer
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		attempt, err := lockOwnAttempt(ctx, tx, p, attemptID)
		if err != nil {
			return err
		}
		question, err := tx.GetQuestion(ctx, in.QuestionID)
		if err != nil {
			return err
		}
		session, err := tx.GetSession(ctx, question.SessionID)
		if err != nil {
			return err
		}
		if session.QuizID != attempt.QuizID {
			return domain.ErrQuestionNotFound
		}
		if in.SessionID != nil && *in.SessionID != session.ID {
			return domain.Invalid("question does not belong to session %s", *in.SessionID)
		}
		option, err := tx.GetOption(ctx, in.OptionID)
		if err != nil {
			return err
		}
		if option.QuestionID != question.ID {
			return domain.ErrOptionNotFound
		}

		now := s.now()
		sa, err := tx.GetOrCreateSessionAttempt(ctx, attempt.ID, session.ID, now)
		if err != nil {
			return err
		}
		if sa.Completed() {
			return domain.ErrSessionAlreadyCompleted
		}
		selected := option.ID
		answer = domain.Answer{
			SessionAttemptID: sa.ID,
			QuestionID:       question.ID,
			SelectedOptionID: &selected,
			IsCorrect:        option.IsCorrect,
			AnsweredAt:       now,
		}
		return tx.UpsertAnswer(ctx, &answer)
	})
	if err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

// CompleteSession scores the session from its answers and, once every
// session of the quiz is complete, seals the attempt with the mean score.
func (s *AttemptService) CompleteSession(ctx context.Context, p auth.Principal, attemptID, sessionID uuid.UUID) (SessionResult, error) {
	if err := requireStudent(p); err != nil {
		return SessionResult{}, err
	}
	if sessionID == uuid.Nil {
		return SessionResult{}, domain.Invalid("session_id is required")
	}

	var (
		res        SessionResult
		showResult bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		attempt, err := lockOwnAttempt(ctx, tx, p, attemptID)
		if err != nil {
			return err
		}
		quiz, err := tx.GetQuiz(ctx, attempt.QuizID)
		if err != nil {
			return err
		}
		showResult = quiz.ShowResult
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.QuizID != attempt.QuizID {
			return domain.ErrSessionNotFound
		}
		sa, err := tx.FindSessionAttempt(ctx, attempt.ID, session.ID)
		if err != nil {
			return err
		}
		if sa.Completed() {
			return domain.ErrSessionAlreadyCompleted
		}

		answers, err := tx.ListAnswers(ctx, sa.ID)
		if err != nil {
			return err
		}
		now := s.now()
		score := domain.SessionScore(answers)
		if err := tx.CompleteSessionAttempt(ctx, sa.ID, score, now); err != nil {
			return err
		}
		sa.CompletedAt, sa.Score = &now, &score
		res.SessionAttempt = sa

		total, err := tx.CountSessions(ctx, attempt.QuizID)
		if err != nil {
			return err
		}
		all, err := tx.ListSessionAttempts(ctx, attempt.ID)
		if err != nil {
			return err
		}
		var scores []float64
		for _, done := range all {
			if done.Completed() && done.Score != nil {
				scores = append(scores, *done.Score)
			}
		}
		if total == 0 || len(scores) < total {
			res.Attempt = attempt
			return nil
		}
		final := domain.FinalScore(scores)
		if err := tx.SealAttempt(ctx, attempt.ID, final, now); err != nil {
			return err
		}
		attempt.CompletedAt, attempt.Score = &now, &final
		res.Attempt = attempt
		res.Sealed = true
		return nil
	})
	if err != nil {
		return SessionResult{}, err
	}
	if res.Sealed {
		s.log.Info("attempt sealed", "attempt", res.Attempt.ID, "quiz", res.Attempt.QuizID, "score", *res.Attempt.Score)
		s.announce(ctx, res.Attempt)
	}
	if !showResult {
		res.SessionAttempt.Score = nil
		res.Attempt.Score = nil
	}
	return res, nil
}

// Submissions lists completed attempts. The quiz creator sees everyone; a
// student sees only their own.
func (s *AttemptService) Submissions(ctx context.Context, p auth.Principal, quizID uuid.UUID) ([]domain.Submission, error) {
	scope, err := s.reportScope(ctx, p, quizID)
	if err != nil {
		return nil, err
	}
	return s.reports.CompletedSubmissions(ctx, quizID, scope)
}

// Statistics summarizes completed scores with the same scoping as
// Submissions. Concurrent identical requests share one query.
func (s *AttemptService) Statistics(ctx context.Context, p auth.Principal, quizID uuid.UUID) (domain.Statistics, error) {
	scope, err := s.reportScope(ctx, p, quizID)
	if err != nil {
		return domain.Statistics{}, err
	}
	return s.statistics(ctx, quizID, scope)
}

func (s *AttemptService) statistics(ctx context.Context, quizID uuid.UUID, scope *uuid.UUID) (domain.Statistics, error) {
	key := quizID.String() + "|all"
	if scope != nil {
		key = quizID.String() + "|" + scope.String()
	}
	// Waiters share the first caller's query, which must outlive its request.
	v, err, _ := s.stats.Do(key, func() (interface{}, error) {
		return s.reports.ScoreSummary(context.WithoutCancel(ctx), quizID, scope)
	})
	if err != nil {
		return domain.Statistics{}, err
	}
	return v.(domain.Statistics), nil
}

// List returns attempts on the caller's quizzes for teachers and the
// caller's own attempts for students.
func (s *AttemptService) List(ctx context.Context, p auth.Principal) ([]domain.QuizAttempt, error) {
	switch {
	case p.IsTeacher():
		return s.store.ListAttemptsByCreator(ctx, p.UserID)
	case p.IsStudent():
		return s.store.ListAttemptsByStudent(ctx, p.UserID)
	}
	return nil, domain.ErrForbidden
}

func (s *AttemptService) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (domain.QuizAttempt, error) {
	a, q, err := viewableAttempt(ctx, s.store, p, id)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if p.IsStudent() && !q.ShowResult {
		a.Score = nil
	}
	return a, nil
}

// reportScope narrows reports to the caller: the creator sees every
// student, a student only themselves, and only when the quiz shows results.
func (s *AttemptService) reportScope(ctx context.Context, p auth.Principal, quizID uuid.UUID) (*uuid.UUID, error) {
	switch {
	case p.IsTeacher():
		if _, err := ownedQuiz(ctx, s.store, p, quizID); err != nil {
			return nil, err
		}
		return nil, nil
	case p.IsStudent():
		q, err := s.store.GetQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if !q.ShowResult {
			return nil, domain.ErrResultsHidden
		}
		id := p.UserID
		return &id, nil
	}
	return nil, domain.ErrForbidden
}

// announce publishes the sealed attempt with refreshed statistics. Feed
// failures are logged, never returned: the attempt is already committed.
func (s *AttemptService) announce(ctx context.Context, a domain.QuizAttempt) {
	if s.feed == nil {
		return
	}
	stats, err := s.reports.ScoreSummary(ctx, a.QuizID, nil)
	if err != nil {
		s.log.Error("load statistics for live feed", "quiz", a.QuizID, "err", err)
		return
	}
	event := domain.QuizEvent{
		Type:       domain.EventAttemptCompleted,
		QuizID:     a.QuizID,
		AttemptID:  a.ID,
		StudentID:  a.StudentID,
		Score:      *a.Score,
		Statistics: stats,
		At:         *a.CompletedAt,
	}
	if err := s.feed.Publish(ctx, event); err != nil {
		s.log.Error("publish live event", "quiz", a.QuizID, "attempt", a.ID, "err", err)
	}
}

// lockOwnAttempt locks an attempt the caller owns that is still in progress.
func lockOwnAttempt(ctx context.Context, tx Store, p auth.Principal, id uuid.UUID) (domain.QuizAttempt, error) {
	attempt, err := tx.LockAttempt(ctx, id)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if attempt.StudentID != p.UserID {
		return domain.QuizAttempt{}, domain.ErrNotAttemptOwner
	}
	if attempt.Sealed() {
		return domain.QuizAttempt{}, domain.ErrAttemptSealed
	}
	return attempt, nil
}
