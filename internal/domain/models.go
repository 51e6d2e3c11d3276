package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the fixed role a user registers with.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User is identified by a unique email.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Role         Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Class groups students under one teacher and is joined with Code.
type Class struct {
	ID        uuid.UUID
	Name      string
	Subject   string
	Code      string
	TeacherID uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Quiz belongs to its creator and is assigned to one or more classes.
type Quiz struct {
	ID                 uuid.UUID
	Title              string
	Description        string
	CreatorID          uuid.UUID
	ClassIDs           []uuid.UUID
	IsPublished        bool
	RandomizeQuestions bool
	ShowResult         bool
	ShowAnswers        bool
	StartDate          *time.Time
	EndDate            *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Window returns the availability window of the quiz.
func (q Quiz) Window() Window {
	return Window{Start: q.StartDate, End: q.EndDate}
}

// OpenAt reports whether students may see and start the quiz at now.
func (q Quiz) OpenAt(now time.Time) bool {
	return q.IsPublished && q.Window().Contains(now)
}

// HasClass reports whether the quiz is assigned to classID.
func (q Quiz) HasClass(classID uuid.UUID) bool {
	for _, id := range q.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// Window is an availability interval; a nil bound is unbounded on that side.
type Window struct {
	Start *time.Time
	End   *time.Time
}

func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// QuizSession is a timed, ordered block of questions.
type QuizSession struct {
	ID       uuid.UUID
	QuizID   uuid.UUID
	Name     string
	Duration int // minutes
	Order    int
}

type Question struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Text      string
	Order     int
	Options   []Option
}

type Option struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Text       string
	IsCorrect  bool
	Order      int
}

// SessionContent is a session together with its ordered questions.
type SessionContent struct {
	QuizSession
	Questions []Question
}

// QuizContent is the full quiz tree.
type QuizContent struct {
	Quiz
	Sessions []SessionContent
}

func (c QuizContent) TotalQuestions() int {
	total := 0
	for _, s := range c.Sessions {
		total += len(s.Questions)
	}
	return total
}

func (c QuizContent) TotalDuration() int {
	total := 0
	for _, s := range c.Sessions {
		total += s.Duration
	}
	return total
}

// AttemptState is derived from the attempt record.
type AttemptState string

const (
	AttemptNotStarted AttemptState = "not_started"
	AttemptInProgress AttemptState = "in_progress"
	AttemptCompleted  AttemptState = "completed"
)

// QuizAttempt is a student's single run through a quiz. It is sealed once
// CompletedAt and Score are set.
type QuizAttempt struct {
	ID          uuid.UUID
	QuizID      uuid.UUID
	StudentID   uuid.UUID
	StartedAt   time.Time
	CompletedAt *time.Time
	Score       *float64
}

func (a QuizAttempt) Sealed() bool {
	return a.CompletedAt != nil
}

func (a QuizAttempt) State() AttemptState {
	if a.ID == uuid.Nil {
		return AttemptNotStarted
	}
	if a.Sealed() {
		return AttemptCompleted
	}
	return AttemptInProgress
}

// SessionAttempt is created lazily on the first answer for a session.
type SessionAttempt struct {
	ID          uuid.UUID
	AttemptID   uuid.UUID
	SessionID   uuid.UUID
	StartedAt   time.Time
	CompletedAt *time.Time
	Score       *float64
}

func (s SessionAttempt) Completed() bool {
	return s.CompletedAt != nil
}

// Answer is unique per (SessionAttemptID, QuestionID). IsCorrect is captured
// from the selected option when the answer is submitted.
type Answer struct {
	ID               uuid.UUID
	SessionAttemptID uuid.UUID
	QuestionID       uuid.UUID
	SelectedOptionID *uuid.UUID
	IsCorrect        bool
	AnsweredAt       time.Time
}

// Submission is a completed attempt as seen by reporting.
type Submission struct {
	AttemptID   uuid.UUID
	QuizID      uuid.UUID
	Student     User
	ClassIDs    []uuid.UUID
	Score       float64
	StartedAt   time.Time
	CompletedAt time.Time
}

// Statistics aggregates final scores over completed attempts.
type Statistics struct {
	QuizID  uuid.UUID `json:"quiz_id"`
	Count   int       `json:"count"`
	Average float64   `json:"average"`
	Max     float64   `json:"max"`
	Min     float64   `json:"min"`
}

// QuizEvent is published to a quiz's live feed.
type QuizEvent struct {
	Type       string     `json:"type"`
	QuizID     uuid.UUID  `json:"quiz_id"`
	AttemptID  uuid.UUID  `json:"attempt_id"`
	StudentID  uuid.UUID  `json:"student_id"`
	Score      float64    `json:"score"`
	Statistics Statistics `json:"statistics"`
	At         time.Time  `json:"at"`
}

const EventAttemptCompleted = "attempt_completed"
