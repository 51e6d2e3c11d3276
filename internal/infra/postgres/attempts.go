package postgres

import (
	"context"
	"fmt"
	"time"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateAttempt(ctx context.Context, a *domain.QuizAttempt) error {
	ensureID(&a.ID)
	nowIfZero(&a.StartedAt)
	row := attemptRow{ID: a.ID, QuizID: a.QuizID, StudentID: a.StudentID, StartedAt: a.StartedAt}
	if _, err := s.idb.NewInsert().Model(&row).Exec(ctx); err != nil {
		code, constraint := pgCode(err)
		switch {
		case code == codeUniqueViolation && constraint == "quiz_attempts_one_open":
			return domain.ErrAttemptInProgress
		case code == codeForeignKeyViolation && constraint == "quiz_attempts_student_id_fkey":
			return domain.ErrUserNotFound
		case code == codeForeignKeyViolation:
			return domain.ErrQuizNotFound
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *Store) GetAttempt(ctx context.Context, id uuid.UUID) (domain.QuizAttempt, error) {
	var row attemptRow
	if err := s.idb.NewSelect().Model(&row).Where("a.id = ?", id).Scan(ctx); err != nil {
		return domain.QuizAttempt{}, notFound(err, domain.ErrAttemptNotFound, "select attempt")
	}
	return row.domain(), nil
}

// LockAttempt takes a row lock held until the surrounding transaction ends.
// Outside a transaction it degrades to GetAttempt.
func (s *Store) LockAttempt(ctx context.Context, id uuid.UUID) (domain.QuizAttempt, error) {
	var row attemptRow
	if err := s.idb.NewSelect().Model(&row).Where("a.id = ?", id).For("UPDATE").Scan(ctx); err != nil {
		return domain.QuizAttempt{}, notFound(err, domain.ErrAttemptNotFound, "lock attempt")
	}
	return row.domain(), nil
}

func (s *Store) FindOpenAttempt(ctx context.Context, quizID, studentID uuid.UUID) (domain.QuizAttempt, error) {
	var row attemptRow
	err := s.idb.NewSelect().
		Model(&row).
		Where("a.quiz_id = ?", quizID).
		Where("a.student_id = ?", studentID).
		Where("a.completed_at IS NULL").
		Scan(ctx)
	if err != nil {
		return domain.QuizAttempt{}, notFound(err, domain.ErrAttemptNotFound, "select open attempt")
	}
	return row.domain(), nil
}

func (s *Store) HasCompletedAttempt(ctx context.Context, quizID, studentID uuid.UUID) (bool, error) {
	ok, err := s.idb.NewSelect().
		Model((*attemptRow)(nil)).
		Where("a.quiz_id = ?", quizID).
		Where("a.student_id = ?", studentID).
		Where("a.completed_at IS NOT NULL").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check completed attempt: %w", err)
	}
	return ok, nil
}

func (s *Store) SealAttempt(ctx context.Context, id uuid.UUID, score float64, at time.Time) error {
	res, err := s.idb.NewUpdate().
		Model((*attemptRow)(nil)).
		Set("completed_at = ?", at).
		Set("score = ?", score).
		Where("id = ?", id).
		Where("completed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seal attempt: %w", err)
	}
	if affected(res) > 0 {
		return nil
	}
	if _, err := s.GetAttempt(ctx, id); err != nil {
		return err
	}
	return domain.ErrAttemptSealed
}

func (s *Store) ListAttemptsByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.QuizAttempt, error) {
	var rows []attemptRow
	err := s.idb.NewSelect().
		Model(&rows).
		Where("a.student_id = ?", studentID).
		OrderExpr("a.started_at DESC, a.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts by student: %w", err)
	}
	return attempts(rows), nil
}

func (s *Store) ListAttemptsByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.QuizAttempt, error) {
	var rows []attemptRow
	err := s.idb.NewSelect().
		Model(&rows).
		Join("JOIN quizzes AS q ON q.id = a.quiz_id").
		Where("q.creator_id = ?", creatorID).
		OrderExpr("a.started_at DESC, a.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts by creator: %w", err)
	}
	return attempts(rows), nil
}

func (s *Store) GetOrCreateSessionAttempt(ctx context.Context, attemptID, sessionID uuid.UUID, now time.Time) (domain.SessionAttempt, error) {
	row := sessionAttemptRow{ID: uuid.New(), AttemptID: attemptID, SessionID: sessionID, StartedAt: now}
	_, err := s.idb.NewInsert().
		Model(&row).
		On("CONFLICT (attempt_id, session_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		code, constraint := pgCode(err)
		switch {
		case code == codeForeignKeyViolation && constraint == "session_attempts_session_id_fkey":
			return domain.SessionAttempt{}, domain.ErrSessionNotFound
		case code == codeForeignKeyViolation:
			return domain.SessionAttempt{}, domain.ErrAttemptNotFound
		}
		return domain.SessionAttempt{}, fmt.Errorf("insert session attempt: %w", err)
	}
	return s.FindSessionAttempt(ctx, attemptID, sessionID)
}

func (s *Store) FindSessionAttempt(ctx context.Context, attemptID, sessionID uuid.UUID) (domain.SessionAttempt, error) {
	var row sessionAttemptRow
	err := s.idb.NewSelect().
		Model(&row).
		Where("sa.attempt_id = ?", attemptID).
		Where("sa.session_id = ?", sessionID).
		Scan(ctx)
	if err != nil {
		return domain.SessionAttempt{}, notFound(err, domain.ErrSessionAttemptNotFound, "select session attempt")
	}
	return row.domain(), nil
}

func (s *Store) ListSessionAttempts(ctx context.Context, attemptID uuid.UUID) ([]domain.SessionAttempt, error) {
	var rows []sessionAttemptRow
	err := s.idb.NewSelect().
		Model(&rows).
		Join("JOIN quiz_sessions AS qs ON qs.id = sa.session_id").
		Where("sa.attempt_id = ?", attemptID).
		OrderExpr("qs.position, sa.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list session attempts: %w", err)
	}
	out := make([]domain.SessionAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) CompleteSessionAttempt(ctx context.Context, id uuid.UUID, score float64, at time.Time) error {
	res, err := s.idb.NewUpdate().
		Model((*sessionAttemptRow)(nil)).
		Set("completed_at = ?", at).
		Set("score = ?", score).
		Where("id = ?", id).
		Where("completed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("complete session attempt: %w", err)
	}
	if affected(res) > 0 {
		return nil
	}
	exists, err := s.idb.NewSelect().Model((*sessionAttemptRow)(nil)).Where("sa.id = ?", id).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check session attempt: %w", err)
	}
	if !exists {
		return domain.ErrSessionAttemptNotFound
	}
	return domain.ErrSessionAlreadyCompleted
}

// UpsertAnswer replaces any earlier answer to the same question in the same
// session attempt, keeping its id.
func (s *Store) UpsertAnswer(ctx context.Context, a *domain.Answer) error {
	ensureID(&a.ID)
	nowIfZero(&a.AnsweredAt)
	row := answerRow{
		ID:               a.ID,
		SessionAttemptID: a.SessionAttemptID,
		QuestionID:       a.QuestionID,
		SelectedOptionID: a.SelectedOptionID,
		IsCorrect:        a.IsCorrect,
		AnsweredAt:       a.AnsweredAt,
	}
	_, err := s.idb.NewInsert().
		Model(&row).
		On("CONFLICT (session_attempt_id, question_id) DO UPDATE").
		Set("selected_option_id = EXCLUDED.selected_option_id").
		Set("is_correct = EXCLUDED.is_correct").
		Set("answered_at = EXCLUDED.answered_at").
		Returning("id").
		Exec(ctx)
	if err != nil {
		code, constraint := pgCode(err)
		switch {
		case code == codeForeignKeyViolation && constraint == "answers_question_id_fkey":
			return domain.ErrQuestionNotFound
		case code == codeForeignKeyViolation && constraint == "answers_selected_option_id_fkey":
			return domain.ErrOptionNotFound
		case code == codeForeignKeyViolation:
			return domain.ErrSessionAttemptNotFound
		}
		return fmt.Errorf("upsert answer: %w", err)
	}
	a.ID = row.ID
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, sessionAttemptID uuid.UUID) ([]domain.Answer, error) {
	var rows []answerRow
	err := s.idb.NewSelect().
		Model(&rows).
		Join("JOIN questions AS qn ON qn.id = an.question_id").
		Where("an.session_attempt_id = ?", sessionAttemptID).
		OrderExpr("qn.position, an.question_id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out := make([]domain.Answer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func attempts(rows []attemptRow) []domain.QuizAttempt {
	out := make([]domain.QuizAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out
}
