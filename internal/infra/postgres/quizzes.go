package postgres

import (
	"context"
	"fmt"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (s *Store) CreateQuiz(ctx context.Context, q *domain.Quiz) error {
	ensureID(&q.ID)
	nowIfZero(&q.CreatedAt)
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = q.CreatedAt
	}
	row := toQuizRow(*q)
	return s.atomic(ctx, func(ctx context.Context, idb bun.IDB) error {
		if _, err := idb.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		return linkClasses(ctx, idb, q.ID, q.ClassIDs)
	})
}

func (s *Store) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	var row quizRow
	if err := s.idb.NewSelect().Model(&row).Where("q.id = ?", id).Scan(ctx); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "select quiz")
	}
	out, err := s.withClasses(ctx, []quizRow{row})
	if err != nil {
		return domain.Quiz{}, err
	}
	return out[0], nil
}

// UpdateQuiz overwrites every mutable field, including the class set.
func (s *Store) UpdateQuiz(ctx context.Context, q domain.Quiz) error {
	row := toQuizRow(q)
	return s.atomic(ctx, func(ctx context.Context, idb bun.IDB) error {
		res, err := idb.NewUpdate().
			Model(&row).
			Column("title", "description", "is_published", "randomize_questions",
				"show_result", "show_answers", "start_date", "end_date", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update quiz: %w", err)
		}
		if affected(res) == 0 {
			return domain.ErrQuizNotFound
		}
		if _, err := idb.NewDelete().Model((*quizClassRow)(nil)).Where("quiz_id = ?", q.ID).Exec(ctx); err != nil {
			return fmt.Errorf("clear quiz classes: %w", err)
		}
		return linkClasses(ctx, idb, q.ID, q.ClassIDs)
	})
}

// DeleteQuiz relies on ON DELETE CASCADE for content and attempts.
func (s *Store) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	res, err := s.idb.NewDelete().Model((*quizRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) ListQuizzesByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Quiz, error) {
	return s.listQuizzes(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("q.creator_id = ?", creatorID)
	})
}

func (s *Store) ListQuizzesByClass(ctx context.Context, classID uuid.UUID) ([]domain.Quiz, error) {
	return s.listQuizzes(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("EXISTS (SELECT 1 FROM quiz_classes AS qc WHERE qc.quiz_id = q.id AND qc.class_id = ?)", classID)
	})
}

// ListQuizzesForStudent returns quizzes assigned to any class the student
// belongs to, published or not.
func (s *Store) ListQuizzesForStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Quiz, error) {
	return s.listQuizzes(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(assignedExpr, studentID)
	})
}

func (s *Store) IsAssigned(ctx context.Context, quizID, studentID uuid.UUID) (bool, error) {
	var assigned bool
	err := s.idb.NewSelect().
		Model((*quizRow)(nil)).
		ColumnExpr(assignedExpr, studentID).
		Where("q.id = ?", quizID).
		Scan(ctx, &assigned)
	if err != nil {
		return false, notFound(err, domain.ErrQuizNotFound, "check assignment")
	}
	return assigned, nil
}

const assignedExpr = `EXISTS (
	SELECT 1 FROM quiz_classes AS qc
	JOIN class_students AS cs ON cs.class_id = qc.class_id
	WHERE qc.quiz_id = q.id AND cs.student_id = ?)`

func (s *Store) listQuizzes(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Quiz, error) {
	var rows []quizRow
	q := filter(s.idb.NewSelect().Model(&rows)).OrderExpr("q.created_at DESC, q.id")
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return s.withClasses(ctx, rows)
}

// withClasses loads the class links of every row in one query.
func (s *Store) withClasses(ctx context.Context, rows []quizRow) ([]domain.Quiz, error) {
	out := make([]domain.Quiz, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var links []quizClassRow
	err := s.idb.NewSelect().
		Model(&links).
		Where("qc.quiz_id IN (?)", bun.In(ids)).
		OrderExpr("qc.class_id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select quiz classes: %w", err)
	}
	byQuiz := make(map[uuid.UUID][]uuid.UUID, len(rows))
	for _, l := range links {
		byQuiz[l.QuizID] = append(byQuiz[l.QuizID], l.ClassID)
	}
	for _, r := range rows {
		out = append(out, r.domain(byQuiz[r.ID]))
	}
	return out, nil
}

func linkClasses(ctx context.Context, idb bun.IDB, quizID uuid.UUID, classIDs []uuid.UUID) error {
	if len(classIDs) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(classIDs))
	links := make([]quizClassRow, 0, len(classIDs))
	for _, cid := range classIDs {
		if _, ok := seen[cid]; ok {
			continue
		}
		seen[cid] = struct{}{}
		links = append(links, quizClassRow{QuizID: quizID, ClassID: cid})
	}
	if _, err := idb.NewInsert().Model(&links).Exec(ctx); err != nil {
		if isForeignKey(err) {
			return domain.ErrClassNotFound
		}
		return fmt.Errorf("insert quiz classes: %w", err)
	}
	return nil
}
