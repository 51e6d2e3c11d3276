package app

import (
	"context"
	"time"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

// UserRepository stores identities. Emails are unique.
type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
}

// ClassRepository stores classes and their student memberships.
// CreateClass returns domain.ErrClassCodeTaken when the code collides, and
// AddStudent returns domain.ErrAlreadyMember for a duplicate membership.
type ClassRepository interface {
	CreateClass(ctx context.Context, c *domain.Class) error
	GetClass(ctx context.Context, id uuid.UUID) (domain.Class, error)
	GetClassByCode(ctx context.Context, code string) (domain.Class, error)
	UpdateClass(ctx context.Context, c domain.Class) error
	DeleteClass(ctx context.Context, id uuid.UUID) error
	ListClassesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]domain.Class, error)
	ListClassesByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Class, error)
	AddStudent(ctx context.Context, classID, studentID uuid.UUID) error
	RemoveStudent(ctx context.Context, classID, studentID uuid.UUID) error
	IsEnrolled(ctx context.Context, classID, studentID uuid.UUID) (bool, error)
	ListStudents(ctx context.Context, classID uuid.UUID) ([]domain.User, error)
}

// QuizRepository stores quizzes and their class assignments (Quiz.ClassIDs).
type QuizRepository interface {
	CreateQuiz(ctx context.Context, q *domain.Quiz) error
	GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, q domain.Quiz) error
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
	ListQuizzesByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Quiz, error)
	ListQuizzesByClass(ctx context.Context, classID uuid.UUID) ([]domain.Quiz, error)
	ListQuizzesForStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Quiz, error)
	IsAssigned(ctx context.Context, quizID, studentID uuid.UUID) (bool, error)
}

// ContentRepository stores the session/question/option tree of a quiz.
// Lists are returned in Order.
type ContentRepository interface {
	CreateSession(ctx context.Context, s *domain.QuizSession) error
	GetSession(ctx context.Context, id uuid.UUID) (domain.QuizSession, error)
	UpdateSession(ctx context.Context, s domain.QuizSession) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ListSessions(ctx context.Context, quizID uuid.UUID) ([]domain.QuizSession, error)
	CountSessions(ctx context.Context, quizID uuid.UUID) (int, error)

	// CreateQuestion ignores q.Options; options are created separately.
	CreateQuestion(ctx context.Context, q *domain.Question) error
	// GetQuestion and ListQuestions load options.
	GetQuestion(ctx context.Context, id uuid.UUID) (domain.Question, error)
	UpdateQuestion(ctx context.Context, q domain.Question) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	ListQuestions(ctx context.Context, sessionID uuid.UUID) ([]domain.Question, error)

	CreateOption(ctx context.Context, o *domain.Option) error
	GetOption(ctx context.Context, id uuid.UUID) (domain.Option, error)
	UpdateOption(ctx context.Context, o domain.Option) error
	// DeleteOption clears SelectedOptionID on answers that chose it.
	DeleteOption(ctx context.Context, id uuid.UUID) error
}

// AttemptRepository stores attempts, session attempts and answers.
//
// Invariants the implementation must hold at the storage level:
//   - at most one attempt with nil CompletedAt per (quiz, student); CreateAttempt
//     returns domain.ErrAttemptInProgress otherwise.
//   - one session attempt per (attempt, session).
//   - one answer per (session attempt, question); UpsertAnswer overwrites.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, a *domain.QuizAttempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (domain.QuizAttempt, error)
	// LockAttempt reads the attempt and holds a row lock until the transaction ends.
	LockAttempt(ctx context.Context, id uuid.UUID) (domain.QuizAttempt, error)
	FindOpenAttempt(ctx context.Context, quizID, studentID uuid.UUID) (domain.QuizAttempt, error)
	HasCompletedAttempt(ctx context.Context, quizID, studentID uuid.UUID) (bool, error)
	// SealAttempt returns domain.ErrAttemptSealed if the attempt is already sealed.
	SealAttempt(ctx context.Context, id uuid.UUID, score float64, at time.Time) error
	ListAttemptsByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.QuizAttempt, error)
	ListAttemptsByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.QuizAttempt, error)

	GetOrCreateSessionAttempt(ctx context.Context, attemptID, sessionID uuid.UUID, now time.Time) (domain.SessionAttempt, error)
	FindSessionAttempt(ctx context.Context, attemptID, sessionID uuid.UUID) (domain.SessionAttempt, error)
	ListSessionAttempts(ctx context.Context, attemptID uuid.UUID) ([]domain.SessionAttempt, error)
	CompleteSessionAttempt(ctx context.Context, id uuid.UUID, score float64, at time.Time) error

	UpsertAnswer(ctx context.Context, a *domain.Answer) error
	ListAnswers(ctx context.Context, sessionAttemptID uuid.UUID) ([]domain.Answer, error)
}

// Store is the relational store. RunInTx runs fn against a transactional
// view; returning an error rolls every write back.
type Store interface {
	UserRepository
	ClassRepository
	QuizRepository
	ContentRepository
	AttemptRepository

	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ReportReader answers read-only reporting queries over completed attempts.
// A nil studentID means every student.
type ReportReader interface {
	CompletedSubmissions(ctx context.Context, quizID uuid.UUID, studentID *uuid.UUID) ([]domain.Submission, error)
	ScoreSummary(ctx context.Context, quizID uuid.UUID, studentID *uuid.UUID) (domain.Statistics, error)
}

// TokenBlacklist remembers revoked refresh tokens until they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Feed fans quiz events out to live subscribers.
// The caller must invoke the returned cancel function to avoid leaks.
type Feed interface {
	Publish(ctx context.Context, event domain.QuizEvent) error
	Subscribe(ctx context.Context, quizID uuid.UUID) (<-chan domain.QuizEvent, func(), error)
}
