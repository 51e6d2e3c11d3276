package postgres

import (
	"context"
	"fmt"
	"time"

	"classquiz-service/internal/app"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ReportReader runs the reporting queries over a raw pgx pool, outside the
// bun model layer.
type ReportReader struct {
	pool *pgxpool.Pool
}

var _ app.ReportReader = (*ReportReader)(nil)

func NewReportReader(pool *pgxpool.Pool) *ReportReader {
	return &ReportReader{pool: pool}
}

const submissionsSQL = `
SELECT a.id::text, a.started_at, a.completed_at, a.score,
       u.id::text, u.username, u.email, u.first_name, u.last_name, u.role, u.is_active, u.created_at,
       COALESCE(array_agg(cs.class_id::text ORDER BY cs.class_id) FILTER (WHERE cs.class_id IS NOT NULL), '{}')
FROM quiz_attempts a
JOIN users u ON u.id = a.student_id
LEFT JOIN quiz_classes qc ON qc.quiz_id = a.quiz_id
LEFT JOIN class_students cs ON cs.class_id = qc.class_id AND cs.student_id = a.student_id
WHERE a.quiz_id = $1
  AND a.completed_at IS NOT NULL
  AND a.score IS NOT NULL
  AND ($2::uuid IS NULL OR a.student_id = $2::uuid)
GROUP BY a.id, u.id
ORDER BY a.completed_at DESC, a.id`

// CompletedSubmissions lists sealed attempts, newest completion first. A
// student removed from every class of the quiz still appears, with no ClassIDs.
func (r *ReportReader) CompletedSubmissions(ctx context.Context, quizID uuid.UUID, studentID *uuid.UUID) ([]domain.Submission, error) {
	if err := r.quizExists(ctx, quizID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, submissionsSQL, quizID.String(), studentArg(studentID))
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var (
			attemptID, userID string
			role              string
			classIDs          []string
			sub               domain.Submission
			completedAt       time.Time
		)
		err := rows.Scan(
			&attemptID, &sub.StartedAt, &completedAt, &sub.Score,
			&userID, &sub.Student.Username, &sub.Student.Email, &sub.Student.FirstName,
			&sub.Student.LastName, &role, &sub.Student.IsActive, &sub.Student.CreatedAt,
			&classIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if sub.AttemptID, err = uuid.Parse(attemptID); err != nil {
			return nil, fmt.Errorf("parse attempt id: %w", err)
		}
		if sub.Student.ID, err = uuid.Parse(userID); err != nil {
			return nil, fmt.Errorf("parse student id: %w", err)
		}
		for _, raw := range classIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("parse class id: %w", err)
			}
			sub.ClassIDs = append(sub.ClassIDs, id)
		}
		sub.QuizID = quizID
		sub.CompletedAt = completedAt
		sub.Student.Role = domain.Role(role)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

const summarySQL = `
SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(MAX(score), 0), COALESCE(MIN(score), 0)
FROM quiz_attempts
WHERE quiz_id = $1
  AND completed_at IS NOT NULL
  AND score IS NOT NULL
  AND ($2::uuid IS NULL OR student_id = $2::uuid)`

func (r *ReportReader) ScoreSummary(ctx context.Context, quizID uuid.UUID, studentID *uuid.UUID) (domain.Statistics, error) {
	if err := r.quizExists(ctx, quizID); err != nil {
		return domain.Statistics{}, err
	}
	stats := domain.Statistics{QuizID: quizID}
	err := r.pool.QueryRow(ctx, summarySQL, quizID.String(), studentArg(studentID)).
		Scan(&stats.Count, &stats.Average, &stats.Max, &stats.Min)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("query score summary: %w", err)
	}
	return stats, nil
}

func (r *ReportReader) quizExists(ctx context.Context, quizID uuid.UUID) error {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE id = $1)`, quizID.String()).Scan(&ok)
	if err != nil {
		return fmt.Errorf("check quiz: %w", err)
	}
	if !ok {
		return domain.ErrQuizNotFound
	}
	return nil
}

func studentArg(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
