package app

import (
	"context"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

// Authorization gates. Each runs before any write so a denied call never
// partially applies.

func requireTeacher(p auth.Principal) error {
	if !p.IsTeacher() {
		return domain.ErrTeacherOnly
	}
	return nil
}

func requireStudent(p auth.Principal) error {
	if !p.IsStudent() {
		return domain.ErrStudentOnly
	}
	return nil
}

// ownedClass loads a class the caller teaches.
func ownedClass(ctx context.Context, classes ClassRepository, p auth.Principal, id uuid.UUID) (domain.Class, error) {
	if err := requireTeacher(p); err != nil {
		return domain.Class{}, err
	}
	c, err := classes.GetClass(ctx, id)
	if err != nil {
		return domain.Class{}, err
	}
	if c.TeacherID != p.UserID {
		return domain.Class{}, domain.ErrNotClassOwner
	}
	return c, nil
}

// visibleClass loads a class the caller either teaches or is enrolled in.
func visibleClass(ctx context.Context, classes ClassRepository, p auth.Principal, id uuid.UUID) (domain.Class, error) {
	c, err := classes.GetClass(ctx, id)
	if err != nil {
		return domain.Class{}, err
	}
	switch {
	case p.IsTeacher():
		if c.TeacherID != p.UserID {
			return domain.Class{}, domain.ErrNotClassOwner
		}
	case p.IsStudent():
		ok, err := classes.IsEnrolled(ctx, id, p.UserID)
		if err != nil {
			return domain.Class{}, err
		}
		if !ok {
			return domain.Class{}, domain.ErrNotClassMember
		}
	default:
		return domain.Class{}, domain.ErrForbidden
	}
	return c, nil
}

// ownedClasses checks that every listed class belongs to the caller.
func ownedClasses(ctx context.Context, classes ClassRepository, p auth.Principal, ids []uuid.UUID) error {
	for _, id := range ids {
		c, err := classes.GetClass(ctx, id)
		if err != nil {
			return err
		}
		if c.TeacherID != p.UserID {
			return domain.ErrNotClassOwner
		}
	}
	return nil
}

func ownedQuiz(ctx context.Context, quizzes QuizRepository, p auth.Principal, id uuid.UUID) (domain.Quiz, error) {
	if err := requireTeacher(p); err != nil {
		return domain.Quiz{}, err
	}
	q, err := quizzes.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if q.CreatorID != p.UserID {
		return domain.Quiz{}, domain.ErrNotQuizCreator
	}
	return q, nil
}

func ownedSession(ctx context.Context, store Store, p auth.Principal, id uuid.UUID) (domain.QuizSession, error) {
	if err := requireTeacher(p); err != nil {
		return domain.QuizSession{}, err
	}
	sess, err := store.GetSession(ctx, id)
	if err != nil {
		return domain.QuizSession{}, err
	}
	if _, err := ownedQuiz(ctx, store, p, sess.QuizID); err != nil {
		return domain.QuizSession{}, err
	}
	return sess, nil
}

func ownedQuestion(ctx context.Context, store Store, p auth.Principal, id uuid.UUID) (domain.Question, error) {
	if err := requireTeacher(p); err != nil {
		return domain.Question{}, err
	}
	q, err := store.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if _, err := ownedSession(ctx, store, p, q.SessionID); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// assignedQuiz loads a quiz a student may see: published and assigned to one
// of the student's classes. The window is checked by the caller.
func assignedQuiz(ctx context.Context, quizzes QuizRepository, p auth.Principal, id uuid.UUID) (domain.Quiz, error) {
	if err := requireStudent(p); err != nil {
		return domain.Quiz{}, err
	}
	q, err := quizzes.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !q.IsPublished {
		return domain.Quiz{}, domain.ErrQuizNotPublished
	}
	ok, err := quizzes.IsAssigned(ctx, id, p.UserID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !ok {
		return domain.Quiz{}, domain.ErrNotAssigned
	}
	return q, nil
}

// viewableAttempt loads an attempt the caller either took or whose quiz
// the caller created.
func viewableAttempt(ctx context.Context, store Store, p auth.Principal, id uuid.UUID) (domain.QuizAttempt, domain.Quiz, error) {
	a, err := store.GetAttempt(ctx, id)
	if err != nil {
		return domain.QuizAttempt{}, domain.Quiz{}, err
	}
	q, err := store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return domain.QuizAttempt{}, domain.Quiz{}, err
	}
	switch {
	case p.IsStudent() && a.StudentID == p.UserID:
	case p.IsTeacher() && q.CreatorID == p.UserID:
	default:
		return domain.QuizAttempt{}, domain.Quiz{}, domain.ErrNotAttemptOwner
	}
	return a, q, nil
}
