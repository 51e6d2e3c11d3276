package postgres

import (
	"context"
	"fmt"
	"time"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateClass(ctx context.Context, c *domain.Class) error {
	ensureID(&c.ID)
	nowIfZero(&c.CreatedAt)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	row := toClassRow(*c)
	if _, err := s.idb.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUnique(err) {
			return domain.ErrClassCodeTaken
		}
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

func (s *Store) GetClass(ctx context.Context, id uuid.UUID) (domain.Class, error) {
	var row classRow
	if err := s.idb.NewSelect().Model(&row).Where("c.id = ?", id).Scan(ctx); err != nil {
		return domain.Class{}, notFound(err, domain.ErrClassNotFound, "select class")
	}
	return row.domain(), nil
}

func (s *Store) GetClassByCode(ctx context.Context, code string) (domain.Class, error) {
	var row classRow
	if err := s.idb.NewSelect().Model(&row).Where("c.code = ?", code).Scan(ctx); err != nil {
		return domain.Class{}, notFound(err, domain.ErrClassNotFound, "select class by code")
	}
	return row.domain(), nil
}

// UpdateClass overwrites name and subject. Code and owner never change.
func (s *Store) UpdateClass(ctx context.Context, c domain.Class) error {
	row := toClassRow(c)
	res, err := s.idb.NewUpdate().
		Model(&row).
		Column("name", "subject", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

// DeleteClass relies on ON DELETE CASCADE for memberships and quiz links.
func (s *Store) DeleteClass(ctx context.Context, id uuid.UUID) error {
	res, err := s.idb.NewDelete().Model((*classRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

func (s *Store) ListClassesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]domain.Class, error) {
	var rows []classRow
	err := s.idb.NewSelect().
		Model(&rows).
		Where("c.teacher_id = ?", teacherID).
		OrderExpr("c.created_at DESC, c.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes by teacher: %w", err)
	}
	return classes(rows), nil
}

func (s *Store) ListClassesByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Class, error) {
	var rows []classRow
	err := s.idb.NewSelect().
		Model(&rows).
		Join("JOIN class_students AS cs ON cs.class_id = c.id").
		Where("cs.student_id = ?", studentID).
		OrderExpr("c.created_at DESC, c.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes by student: %w", err)
	}
	return classes(rows), nil
}

func (s *Store) AddStudent(ctx context.Context, classID, studentID uuid.UUID) error {
	row := membershipRow{ClassID: classID, StudentID: studentID, JoinedAt: time.Now().UTC()}
	if _, err := s.idb.NewInsert().Model(&row).Exec(ctx); err != nil {
		code, constraint := pgCode(err)
		switch {
		case code == codeUniqueViolation:
			return domain.ErrAlreadyMember
		case code == codeForeignKeyViolation && constraint == "class_students_student_id_fkey":
			return domain.ErrUserNotFound
		case code == codeForeignKeyViolation:
			return domain.ErrClassNotFound
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (s *Store) RemoveStudent(ctx context.Context, classID, studentID uuid.UUID) error {
	res, err := s.idb.NewDelete().
		Model((*membershipRow)(nil)).
		Where("class_id = ?", classID).
		Where("student_id = ?", studentID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if affected(res) > 0 {
		return nil
	}
	if _, err := s.GetClass(ctx, classID); err != nil {
		return err
	}
	return domain.ErrNotMember
}

func (s *Store) IsEnrolled(ctx context.Context, classID, studentID uuid.UUID) (bool, error) {
	ok, err := s.idb.NewSelect().
		Model((*membershipRow)(nil)).
		Where("cs.class_id = ?", classID).
		Where("cs.student_id = ?", studentID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return ok, nil
}

// ListStudents returns members in join order.
func (s *Store) ListStudents(ctx context.Context, classID uuid.UUID) ([]domain.User, error) {
	var rows []userRow
	err := s.idb.NewSelect().
		Model(&rows).
		Join("JOIN class_students AS cs ON cs.student_id = u.id").
		Where("cs.class_id = ?", classID).
		OrderExpr("cs.joined_at, u.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func classes(rows []classRow) []domain.Class {
	out := make([]domain.Class, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out
}
