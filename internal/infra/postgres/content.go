package postgres

import (
	"context"
	"fmt"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (s *Store) CreateSession(ctx context.Context, sess *domain.QuizSession) error {
	ensureID(&sess.ID)
	row := toSessionRow(*sess)
	if _, err := s.idb.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isForeignKey(err) {
			return domain.ErrQuizNotFound
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (domain.QuizSession, error) {
	var row sessionRow
	if err := s.idb.NewSelect().Model(&row).Where("qs.id = ?", id).Scan(ctx); err != nil {
		return domain.QuizSession{}, notFound(err, domain.ErrSessionNotFound, "select session")
	}
	return row.domain(), nil
}

func (s *Store) UpdateSession(ctx context.Context, sess domain.QuizSession) error {
	row := toSessionRow(sess)
	res, err := s.idb.NewUpdate().
		Model(&row).
		Column("name", "duration", "position").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := s.idb.NewDelete().Model((*sessionRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, quizID uuid.UUID) ([]domain.QuizSession, error) {
	var rows []sessionRow
	err := s.idb.NewSelect().
		Model(&rows).
		Where("qs.quiz_id = ?", quizID).
		OrderExpr("qs.position, qs.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]domain.QuizSession, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) CountSessions(ctx context.Context, quizID uuid.UUID) (int, error) {
	n, err := s.idb.NewSelect().Model((*sessionRow)(nil)).Where("qs.quiz_id = ?", quizID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q *domain.Question) error {
	ensureID(&q.ID)
	row := questionRow{ID: q.ID, SessionID: q.SessionID, Text: q.Text, Position: q.Order}
	if _, err := s.idb.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isForeignKey(err) {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id uuid.UUID) (domain.Question, error) {
	var row questionRow
	if err := s.idb.NewSelect().Model(&row).Where("qn.id = ?", id).Scan(ctx); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound, "select question")
	}
	out, err := s.withOptions(ctx, []questionRow{row})
	if err != nil {
		return domain.Question{}, err
	}
	return out[0], nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q domain.Question) error {
	row := questionRow{ID: q.ID, Text: q.Text, Position: q.Order}
	res, err := s.idb.NewUpdate().
		Model(&row).
		Column("text", "position").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	res, err := s.idb.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]domain.Question, error) {
	var rows []questionRow
	err := s.idb.NewSelect().
		Model(&rows).
		Where("qn.session_id = ?", sessionID).
		OrderExpr("qn.position, qn.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return s.withOptions(ctx, rows)
}

func (s *Store) CreateOption(ctx context.Context, o *domain.Option) error {
	ensureID(&o.ID)
	row := toOptionRow(*o)
	if _, err := s.idb.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isForeignKey(err) {
			return domain.ErrQuestionNotFound
		}
		return fmt.Errorf("insert option: %w", err)
	}
	return nil
}

func (s *Store) GetOption(ctx context.Context, id uuid.UUID) (domain.Option, error) {
	var row optionRow
	if err := s.idb.NewSelect().Model(&row).Where("o.id = ?", id).Scan(ctx); err != nil {
		return domain.Option{}, notFound(err, domain.ErrOptionNotFound, "select option")
	}
	return row.domain(), nil
}

func (s *Store) UpdateOption(ctx context.Context, o domain.Option) error {
	row := toOptionRow(o)
	res, err := s.idb.NewUpdate().
		Model(&row).
		Column("text", "is_correct", "position").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update option: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrOptionNotFound
	}
	return nil
}

// DeleteOption relies on ON DELETE SET NULL for answers that chose it.
func (s *Store) DeleteOption(ctx context.Context, id uuid.UUID) error {
	res, err := s.idb.NewDelete().Model((*optionRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete option: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrOptionNotFound
	}
	return nil
}

func (s *Store) withOptions(ctx context.Context, rows []questionRow) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var opts []optionRow
	err := s.idb.NewSelect().
		Model(&opts).
		Where("o.question_id IN (?)", bun.In(ids)).
		OrderExpr("o.position, o.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select options: %w", err)
	}
	byQuestion := make(map[uuid.UUID][]domain.Option, len(rows))
	for _, o := range opts {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o.domain())
	}
	for _, r := range rows {
		out = append(out, r.domain(byQuestion[r.ID]))
	}
	return out, nil
}
