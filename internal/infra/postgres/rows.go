package postgres

import (
	"time"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	FirstName    string    `bun:"first_name,notnull"`
	LastName     string    `bun:"last_name,notnull"`
	Role         string    `bun:"role,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func toUserRow(u domain.User) userRow {
	return userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

func (r userRow) domain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         domain.Role(r.Role),
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
	}
}

type classRow struct {
	bun.BaseModel `bun:"table:classes,alias:c"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Subject   string    `bun:"subject,notnull"`
	Code      string    `bun:"code,notnull"`
	TeacherID uuid.UUID `bun:"teacher_id,type:uuid"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func toClassRow(c domain.Class) classRow {
	return classRow{
		ID:        c.ID,
		Name:      c.Name,
		Subject:   c.Subject,
		Code:      c.Code,
		TeacherID: c.TeacherID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (r classRow) domain() domain.Class {
	return domain.Class{
		ID:        r.ID,
		Name:      r.Name,
		Subject:   r.Subject,
		Code:      r.Code,
		TeacherID: r.TeacherID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type membershipRow struct {
	bun.BaseModel `bun:"table:class_students,alias:cs"`

	ClassID   uuid.UUID `bun:"class_id,pk,type:uuid"`
	StudentID uuid.UUID `bun:"student_id,pk,type:uuid"`
	JoinedAt  time.Time `bun:"joined_at,notnull"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID                 uuid.UUID  `bun:"id,pk,type:uuid"`
	Title              string     `bun:"title,notnull"`
	Description        string     `bun:"description,notnull"`
	CreatorID          uuid.UUID  `bun:"creator_id,type:uuid"`
	IsPublished        bool       `bun:"is_published,notnull"`
	RandomizeQuestions bool       `bun:"randomize_questions,notnull"`
	ShowResult         bool       `bun:"show_result,notnull"`
	ShowAnswers        bool       `bun:"show_answers,notnull"`
	StartDate          *time.Time `bun:"start_date"`
	EndDate            *time.Time `bun:"end_date"`
	CreatedAt          time.Time  `bun:"created_at,notnull"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull"`
}

func toQuizRow(q domain.Quiz) quizRow {
	return quizRow{
		ID:                 q.ID,
		Title:              q.Title,
		Description:        q.Description,
		CreatorID:          q.CreatorID,
		IsPublished:        q.IsPublished,
		RandomizeQuestions: q.RandomizeQuestions,
		ShowResult:         q.ShowResult,
		ShowAnswers:        q.ShowAnswers,
		StartDate:          q.StartDate,
		EndDate:            q.EndDate,
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
	}
}

func (r quizRow) domain(classIDs []uuid.UUID) domain.Quiz {
	return domain.Quiz{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		CreatorID:          r.CreatorID,
		ClassIDs:           classIDs,
		IsPublished:        r.IsPublished,
		RandomizeQuestions: r.RandomizeQuestions,
		ShowResult:         r.ShowResult,
		ShowAnswers:        r.ShowAnswers,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type quizClassRow struct {
	bun.BaseModel `bun:"table:quiz_classes,alias:qc"`

	QuizID  uuid.UUID `bun:"quiz_id,pk,type:uuid"`
	ClassID uuid.UUID `bun:"class_id,pk,type:uuid"`
}

type sessionRow struct {
	bun.BaseModel `bun:"table:quiz_sessions,alias:qs"`

	ID       uuid.UUID `bun:"id,pk,type:uuid"`
	QuizID   uuid.UUID `bun:"quiz_id,type:uuid"`
	Name     string    `bun:"name,notnull"`
	Duration int       `bun:"duration,notnull"`
	Position int       `bun:"position,notnull"`
}

func toSessionRow(s domain.QuizSession) sessionRow {
	return sessionRow{ID: s.ID, QuizID: s.QuizID, Name: s.Name, Duration: s.Duration, Position: s.Order}
}

func (r sessionRow) domain() domain.QuizSession {
	return domain.QuizSession{ID: r.ID, QuizID: r.QuizID, Name: r.Name, Duration: r.Duration, Order: r.Position}
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	SessionID uuid.UUID `bun:"session_id,type:uuid"`
	Text      string    `bun:"text,notnull"`
	Position  int       `bun:"position,notnull"`
}

func (r questionRow) domain(options []domain.Option) domain.Question {
	return domain.Question{ID: r.ID, SessionID: r.SessionID, Text: r.Text, Order: r.Position, Options: options}
}

type optionRow struct {
	bun.BaseModel `bun:"table:options,alias:o"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	QuestionID uuid.UUID `bun:"question_id,type:uuid"`
	Text       string    `bun:"text,notnull"`
	IsCorrect  bool      `bun:"is_correct,notnull"`
	Position   int       `bun:"position,notnull"`
}

func toOptionRow(o domain.Option) optionRow {
	return optionRow{ID: o.ID, QuestionID: o.QuestionID, Text: o.Text, IsCorrect: o.IsCorrect, Position: o.Order}
}

func (r optionRow) domain() domain.Option {
	return domain.Option{ID: r.ID, QuestionID: r.QuestionID, Text: r.Text, IsCorrect: r.IsCorrect, Order: r.Position}
}

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:a"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	QuizID      uuid.UUID  `bun:"quiz_id,type:uuid"`
	StudentID   uuid.UUID  `bun:"student_id,type:uuid"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
	Score       *float64   `bun:"score"`
}

func (r attemptRow) domain() domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:          r.ID,
		QuizID:      r.QuizID,
		StudentID:   r.StudentID,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Score:       r.Score,
	}
}

type sessionAttemptRow struct {
	bun.BaseModel `bun:"table:session_attempts,alias:sa"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	AttemptID   uuid.UUID  `bun:"attempt_id,type:uuid"`
	SessionID   uuid.UUID  `bun:"session_id,type:uuid"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
	Score       *float64   `bun:"score"`
}

func (r sessionAttemptRow) domain() domain.SessionAttempt {
	return domain.SessionAttempt{
		ID:          r.ID,
		AttemptID:   r.AttemptID,
		SessionID:   r.SessionID,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Score:       r.Score,
	}
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:an"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid"`
	SessionAttemptID uuid.UUID  `bun:"session_attempt_id,type:uuid"`
	QuestionID       uuid.UUID  `bun:"question_id,type:uuid"`
	SelectedOptionID *uuid.UUID `bun:"selected_option_id,type:uuid"`
	IsCorrect        bool       `bun:"is_correct,notnull"`
	AnsweredAt       time.Time  `bun:"answered_at,notnull"`
}

func (r answerRow) domain() domain.Answer {
	return domain.Answer{
		ID:               r.ID,
		SessionAttemptID: r.SessionAttemptID,
		QuestionID:       r.QuestionID,
		SelectedOptionID: r.SelectedOptionID,
		IsCorrect:        r.IsCorrect,
		AnsweredAt:       r.AnsweredAt,
	}
}
