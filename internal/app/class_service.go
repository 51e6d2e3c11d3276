package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

type ClassInput struct {
	Name    string
	Subject string
}

// ClassDetail is a class with its teacher and enrolled students.
type ClassDetail struct {
	domain.Class
	Teacher  domain.User
	Students []domain.User
}

// ClassService owns class lifecycle and membership.
type ClassService struct {
	store        Store
	now          func() time.Time
	log          *slog.Logger
	codeGen      func() (string, error)
	codeAttempts int
}

func NewClassService(store Store, opts ...Option) *ClassService {
	o := buildOptions(opts)
	return &ClassService{
		store:        store,
		now:          o.now,
		log:          o.logger,
		codeGen:      o.codeGen,
		codeAttempts: o.codeAttempts,
	}
}

// Create stores a new class with a fresh join code, regenerating the code
// when it collides with an existing one.
func (s *ClassService) Create(ctx context.Context, p auth.Principal, in ClassInput) (domain.Class, error) {
	if err := requireTeacher(p); err != nil {
		return domain.Class{}, err
	}
	if err := in.validate(); err != nil {
		return domain.Class{}, err
	}
	now := s.now()
	for i := 0; i < s.codeAttempts; i++ {
		code, err := s.codeGen()
		if err != nil {
			return domain.Class{}, fmt.Errorf("generate class code: %w", err)
		}
		c := domain.Class{
			Name:      strings.TrimSpace(in.Name),
			Subject:   strings.TrimSpace(in.Subject),
			Code:      code,
			TeacherID: p.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = s.store.CreateClass(ctx, &c)
		if errors.Is(err, domain.ErrClassCodeTaken) {
			s.log.Warn("class code collision", "code", code, "attempt", i+1)
			continue
		}
		if err != nil {
			return domain.Class{}, err
		}
		s.log.Info("class created", "class", c.ID, "teacher", p.UserID)
		return c, nil
	}
	return domain.Class{}, fmt.Errorf("no free class code after %d attempts", s.codeAttempts)
}

// List returns owned classes for teachers and enrolled classes for students.
func (s *ClassService) List(ctx context.Context, p auth.Principal) ([]domain.Class, error) {
	switch {
	case p.IsTeacher():
		return s.store.ListClassesByTeacher(ctx, p.UserID)
	case p.IsStudent():
		return s.store.ListClassesByStudent(ctx, p.UserID)
	}
	return nil, domain.ErrForbidden
}

func (s *ClassService) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (ClassDetail, error) {
	c, err := visibleClass(ctx, s.store, p, id)
	if err != nil {
		return ClassDetail{}, err
	}
	teacher, err := s.store.GetUser(ctx, c.TeacherID)
	if err != nil {
		return ClassDetail{}, err
	}
	students, err := s.store.ListStudents(ctx, c.ID)
	if err != nil {
		return ClassDetail{}, err
	}
	return ClassDetail{Class: c, Teacher: teacher, Students: students}, nil
}

func (s *ClassService) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in ClassInput) (domain.Class, error) {
	c, err := ownedClass(ctx, s.store, p, id)
	if err != nil {
		return domain.Class{}, err
	}
	return s.save(ctx, c, in)
}

// ClassPatch changes only the fields that are set.
type ClassPatch struct {
	Name    *string
	Subject *string
}

func (s *ClassService) Patch(ctx context.Context, p auth.Principal, id uuid.UUID, pt ClassPatch) (domain.Class, error) {
	c, err := ownedClass(ctx, s.store, p, id)
	if err != nil {
		return domain.Class{}, err
	}
	in := ClassInput{Name: c.Name, Subject: c.Subject}
	if pt.Name != nil {
		in.Name = *pt.Name
	}
	if pt.Subject != nil {
		in.Subject = *pt.Subject
	}
	return s.save(ctx, c, in)
}

func (s *ClassService) save(ctx context.Context, c domain.Class, in ClassInput) (domain.Class, error) {
	if err := in.validate(); err != nil {
		return domain.Class{}, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Subject = strings.TrimSpace(in.Subject)
	c.UpdatedAt = s.now()
	if err := s.store.UpdateClass(ctx, c); err != nil {
		return domain.Class{}, err
	}
	return c, nil
}

// Delete removes the class, its memberships and its quiz links. Quizzes and
// attempts survive.
func (s *ClassService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if _, err := ownedClass(ctx, s.store, p, id); err != nil {
		return err
	}
	if err := s.store.DeleteClass(ctx, id); err != nil {
		return err
	}
	s.log.Info("class deleted", "class", id, "teacher", p.UserID)
	return nil
}

// JoinByCode enrolls the calling student in the class with code.
func (s *ClassService) JoinByCode(ctx context.Context, p auth.Principal, code string) (domain.Class, error) {
	if err := requireStudent(p); err != nil {
		return domain.Class{}, err
	}
	code = normalizeCode(code)
	if code == "" {
		return domain.Class{}, domain.Invalid("class code is required")
	}
	c, err := s.store.GetClassByCode(ctx, code)
	if err != nil {
		return domain.Class{}, err
	}
	if err := s.store.AddStudent(ctx, c.ID, p.UserID); err != nil {
		return domain.Class{}, err
	}
	s.log.Info("student joined class", "class", c.ID, "student", p.UserID)
	return c, nil
}

// Join enrolls the calling student in class id; code must match its join code.
func (s *ClassService) Join(ctx context.Context, p auth.Principal, id uuid.UUID, code string) (domain.Class, error) {
	if err := requireStudent(p); err != nil {
		return domain.Class{}, err
	}
	c, err := s.store.GetClass(ctx, id)
	if err != nil {
		return domain.Class{}, err
	}
	if normalizeCode(code) != c.Code {
		return domain.Class{}, domain.ErrInvalidJoinCode
	}
	if err := s.store.AddStudent(ctx, c.ID, p.UserID); err != nil {
		return domain.Class{}, err
	}
	s.log.Info("student joined class", "class", c.ID, "student", p.UserID)
	return c, nil
}

// RemoveStudent drops a student from a class the caller teaches. Their
// attempts are kept.
func (s *ClassService) RemoveStudent(ctx context.Context, p auth.Principal, id, studentID uuid.UUID) error {
	if _, err := ownedClass(ctx, s.store, p, id); err != nil {
		return err
	}
	if studentID == uuid.Nil {
		return domain.Invalid("student_id is required")
	}
	if _, err := s.store.GetUser(ctx, studentID); err != nil {
		return err
	}
	if err := s.store.RemoveStudent(ctx, id, studentID); err != nil {
		return err
	}
	s.log.Info("student removed from class", "class", id, "student", studentID)
	return nil
}

func (s *ClassService) Leave(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if err := requireStudent(p); err != nil {
		return err
	}
	if _, err := s.store.GetClass(ctx, id); err != nil {
		return err
	}
	return s.store.RemoveStudent(ctx, id, p.UserID)
}

// Quizzes lists the quizzes assigned to a class. Students see published ones only.
func (s *ClassService) Quizzes(ctx context.Context, p auth.Principal, id uuid.UUID) ([]domain.Quiz, error) {
	if _, err := visibleClass(ctx, s.store, p, id); err != nil {
		return nil, err
	}
	quizzes, err := s.store.ListQuizzesByClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsTeacher() {
		return quizzes, nil
	}
	return publishedOnly(quizzes), nil
}

func (in ClassInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name is required")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func publishedOnly(quizzes []domain.Quiz) []domain.Quiz {
	out := quizzes[:0]
	for _, q := range quizzes {
		if q.IsPublished {
			out = append(out, q)
		}
	}
	return out
}
