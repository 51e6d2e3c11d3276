package http

import (
	"time"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

type registerRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Password1 string `json:"password1" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=teacher student"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type classRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Subject string `json:"subject" validate:"max=100"`
}

type joinRequest struct {
	Code string `json:"code" validate:"required"`
}

type leaveRequest struct {
	ClassID uuid.UUID `json:"class_id" validate:"required"`
}

type removeStudentRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
}

type quizRequest struct {
	Title              string           `json:"title" validate:"required,max=200"`
	Description        string           `json:"description"`
	Classes            []uuid.UUID      `json:"classes"`
	RandomizeQuestions bool             `json:"randomize_questions"`
	ShowResult         *bool            `json:"show_result"`
	ShowAnswers        bool             `json:"show_answers"`
	Sessions           []sessionRequest `json:"sessions" validate:"dive"`
}

func (r quizRequest) input() app.QuizInput {
	in := app.QuizInput{
		Title:              r.Title,
		Description:        r.Description,
		ClassIDs:           r.Classes,
		RandomizeQuestions: r.RandomizeQuestions,
		ShowResult:         r.ShowResult == nil || *r.ShowResult,
		ShowAnswers:        r.ShowAnswers,
	}
	for _, s := range r.Sessions {
		in.Sessions = append(in.Sessions, s.input())
	}
	return in
}

type sessionRequest struct {
	Quiz      *uuid.UUID        `json:"quiz"`
	Name      string            `json:"name" validate:"required,max=200"`
	Duration  int               `json:"duration" validate:"min=0"`
	Order     *int              `json:"order"`
	Questions []questionRequest `json:"questions" validate:"dive"`
}

func (r sessionRequest) input() app.SessionInput {
	in := app.SessionInput{Name: r.Name, Duration: r.Duration, Order: r.Order}
	for _, q := range r.Questions {
		in.Questions = append(in.Questions, q.input())
	}
	return in
}

type questionRequest struct {
	Session *uuid.UUID      `json:"session"`
	Text    string          `json:"text" validate:"required"`
	Order   *int            `json:"order"`
	Options []optionRequest `json:"options" validate:"dive"`
}

func (r questionRequest) input() app.QuestionInput {
	return app.QuestionInput{Text: r.Text, Order: r.Order, Options: optionInputs(r.Options)}
}

// optionInputs keeps nil for a missing "options" key so that options are
// only reconciled when the client sent them; [] still clears them.
func optionInputs(reqs []optionRequest) []app.OptionInput {
	if reqs == nil {
		return nil
	}
	out := make([]app.OptionInput, 0, len(reqs))
	for _, o := range reqs {
		out = append(out, app.OptionInput{ID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect, Order: o.Order})
	}
	return out
}

type optionRequest struct {
	ID        *uuid.UUID `json:"id"`
	Text      string     `json:"text" validate:"required"`
	IsCorrect bool       `json:"is_correct"`
	Order     *int       `json:"order"`
}

// Patch requests carry only the keys the client sent.

type classPatchRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Subject *string `json:"subject" validate:"omitempty,max=100"`
}

type quizPatchRequest struct {
	Title              *string      `json:"title" validate:"omitempty,max=200"`
	Description        *string      `json:"description"`
	Classes            *[]uuid.UUID `json:"classes"`
	RandomizeQuestions *bool        `json:"randomize_questions"`
	ShowResult         *bool        `json:"show_result"`
	ShowAnswers        *bool        `json:"show_answers"`
}

func (r quizPatchRequest) patch() app.QuizPatch {
	return app.QuizPatch{
		Title:              r.Title,
		Description:        r.Description,
		ClassIDs:           r.Classes,
		RandomizeQuestions: r.RandomizeQuestions,
		ShowResult:         r.ShowResult,
		ShowAnswers:        r.ShowAnswers,
	}
}

type sessionPatchRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Duration *int    `json:"duration" validate:"omitempty,min=0"`
	Order    *int    `json:"order"`
}

type questionPatchRequest struct {
	Text    *string         `json:"text"`
	Order   *int            `json:"order"`
	Options []optionRequest `json:"options" validate:"dive"`
}

type publishRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type answerRequest struct {
	QuestionID uuid.UUID  `json:"question_id" validate:"required"`
	OptionID   uuid.UUID  `json:"option_id" validate:"required"`
	SessionID  *uuid.UUID `json:"session_id"`
}

type completeSessionRequest struct {
	SessionID uuid.UUID `json:"session_id" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	FullName  string      `json:"full_name"`
	Role      domain.Role `json:"role"`
}

func toUser(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Role:      u.Role,
	}
}

func toUsers(us []domain.User) []userResponse {
	out := make([]userResponse, 0, len(us))
	for _, u := range us {
		out = append(out, toUser(u))
	}
	return out
}

type authResponse struct {
	User    userResponse `json:"user"`
	Role    domain.Role  `json:"role"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
}

func toAuth(u domain.User, pair auth.TokenPair) authResponse {
	return authResponse{User: toUser(u), Role: u.Role, Access: pair.Access, Refresh: pair.Refresh}
}

type accessResponse struct {
	Access    string    `json:"access"`
	ExpiresAt time.Time `json:"expires_at"`
}

type classResponse struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Subject       string         `json:"subject"`
	Code          string         `json:"code"`
	Teacher       uuid.UUID      `json:"teacher"`
	TeacherDetail *userResponse  `json:"teacher_detail,omitempty"`
	Students      []userResponse `json:"students,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toClass(c domain.Class) classResponse {
	return classResponse{
		ID:        c.ID,
		Name:      c.Name,
		Subject:   c.Subject,
		Code:      c.Code,
		Teacher:   c.TeacherID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toClasses(cs []domain.Class) []classResponse {
	out := make([]classResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toClass(c))
	}
	return out
}

func toClassDetail(d app.ClassDetail) classResponse {
	out := toClass(d.Class)
	teacher := toUser(d.Teacher)
	out.TeacherDetail = &teacher
	out.Students = toUsers(d.Students)
	return out
}

type optionResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect *bool     `json:"is_correct,omitempty"`
	Order     int       `json:"order"`
}

type questionResponse struct {
	ID      uuid.UUID        `json:"id"`
	Session uuid.UUID        `json:"session"`
	Text    string           `json:"text"`
	Order   int              `json:"order"`
	Options []optionResponse `json:"options"`
}

// toQuestion hides option correctness unless reveal is set.
func toQuestion(q domain.Question, reveal bool) questionResponse {
	out := questionResponse{
		ID:      q.ID,
		Session: q.SessionID,
		Text:    q.Text,
		Order:   q.Order,
		Options: make([]optionResponse, 0, len(q.Options)),
	}
	for _, o := range q.Options {
		opt := optionResponse{ID: o.ID, Text: o.Text, Order: o.Order}
		if reveal {
			correct := o.IsCorrect
			opt.IsCorrect = &correct
		}
		out.Options = append(out.Options, opt)
	}
	return out
}

type sessionResponse struct {
	ID        uuid.UUID          `json:"id"`
	Quiz      uuid.UUID          `json:"quiz"`
	Name      string             `json:"name"`
	Duration  int                `json:"duration"`
	Order     int                `json:"order"`
	Questions []questionResponse `json:"questions"`
}

func toSession(s domain.SessionContent, reveal bool) sessionResponse {
	out := sessionResponse{
		ID:        s.ID,
		Quiz:      s.QuizID,
		Name:      s.Name,
		Duration:  s.Duration,
		Order:     s.Order,
		Questions: make([]questionResponse, 0, len(s.Questions)),
	}
	for _, q := range s.Questions {
		out.Questions = append(out.Questions, toQuestion(q, reveal))
	}
	return out
}

type quizResponse struct {
	ID                 uuid.UUID         `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Creator            uuid.UUID         `json:"creator"`
	Classes            []uuid.UUID       `json:"classes"`
	IsPublished        bool              `json:"is_published"`
	RandomizeQuestions bool              `json:"randomize_questions"`
	ShowResult         bool              `json:"show_result"`
	ShowAnswers        bool              `json:"show_answers"`
	StartDate          *time.Time        `json:"start_date"`
	EndDate            *time.Time        `json:"end_date"`
	Sessions           []sessionResponse `json:"sessions"`
	TotalQuestions     int               `json:"total_questions"`
	TotalDuration      int               `json:"total_duration"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func toQuizHeader(q domain.Quiz) quizResponse {
	classes := q.ClassIDs
	if classes == nil {
		classes = []uuid.UUID{}
	}
	return quizResponse{
		ID:                 q.ID,
		Title:              q.Title,
		Description:        q.Description,
		Creator:            q.CreatorID,
		Classes:            classes,
		IsPublished:        q.IsPublished,
		RandomizeQuestions: q.RandomizeQuestions,
		ShowResult:         q.ShowResult,
		ShowAnswers:        q.ShowAnswers,
		StartDate:          q.StartDate,
		EndDate:            q.EndDate,
		Sessions:           []sessionResponse{},
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
	}
}

func toQuiz(c domain.QuizContent, reveal bool) quizResponse {
	out := toQuizHeader(c.Quiz)
	for _, s := range c.Sessions {
		out.Sessions = append(out.Sessions, toSession(s, reveal))
	}
	out.TotalQuestions = c.TotalQuestions()
	out.TotalDuration = c.TotalDuration()
	return out
}

func toQuizzes(cs []domain.QuizContent, p auth.Principal) []quizResponse {
	out := make([]quizResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toQuiz(c, p.IsTeacher() && c.CreatorID == p.UserID))
	}
	return out
}

func toQuizHeaders(qs []domain.Quiz) []quizResponse {
	out := make([]quizResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, toQuizHeader(q))
	}
	return out
}

type attemptResponse struct {
	ID          uuid.UUID           `json:"id"`
	Quiz        uuid.UUID           `json:"quiz"`
	Student     uuid.UUID           `json:"student"`
	State       domain.AttemptState `json:"state"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at"`
	Score       *float64            `json:"score"`
}

func toAttempt(a domain.QuizAttempt) attemptResponse {
	return attemptResponse{
		ID:          a.ID,
		Quiz:        a.QuizID,
		Student:     a.StudentID,
		State:       a.State(),
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
		Score:       a.Score,
	}
}

func toAttempts(as []domain.QuizAttempt) []attemptResponse {
	out := make([]attemptResponse, 0, len(as))
	for _, a := range as {
		out = append(out, toAttempt(a))
	}
	return out
}

type sessionAttemptResponse struct {
	ID          uuid.UUID  `json:"id"`
	Session     uuid.UUID  `json:"session"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Score       *float64   `json:"score"`
}

func toSessionAttempt(sa domain.SessionAttempt) sessionAttemptResponse {
	return sessionAttemptResponse{
		ID:          sa.ID,
		Session:     sa.SessionID,
		StartedAt:   sa.StartedAt,
		CompletedAt: sa.CompletedAt,
		Score:       sa.Score,
	}
}

type answerResponse struct {
	ID             uuid.UUID  `json:"id"`
	SessionAttempt uuid.UUID  `json:"session_attempt"`
	Question       uuid.UUID  `json:"question"`
	SelectedOption *uuid.UUID `json:"selected_option"`
	AnsweredAt     time.Time  `json:"answered_at"`
}

type completeSessionResponse struct {
	Message         string                 `json:"message"`
	SessionAttempt  sessionAttemptResponse `json:"session_attempt"`
	Attempt         attemptResponse        `json:"attempt"`
	IsQuizCompleted bool                   `json:"is_quiz_completed"`
}

type submissionResponse struct {
	AttemptID   uuid.UUID    `json:"attempt_id"`
	Student     userResponse `json:"student"`
	Classes     []uuid.UUID  `json:"classes"`
	Score       float64      `json:"score"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
}

func toSubmissions(subs []domain.Submission) []submissionResponse {
	out := make([]submissionResponse, 0, len(subs))
	for _, s := range subs {
		classes := s.ClassIDs
		if classes == nil {
			classes = []uuid.UUID{}
		}
		out = append(out, submissionResponse{
			AttemptID:   s.AttemptID,
			Student:     toUser(s.Student),
			Classes:     classes,
			Score:       s.Score,
			StartedAt:   s.StartedAt,
			CompletedAt: s.CompletedAt,
		})
	}
	return out
}

type answerDetailResponse struct {
	Question       uuid.UUID  `json:"question"`
	Text           string     `json:"text"`
	SelectedOption *uuid.UUID `json:"selected_option"`
	IsCorrect      *bool      `json:"is_correct,omitempty"`
	CorrectOption  *uuid.UUID `json:"correct_option,omitempty"`
}

type sessionDetailResponse struct {
	Session     uuid.UUID              `json:"session"`
	Name        string                 `json:"name"`
	Order       int                    `json:"order"`
	Score       *float64               `json:"score"`
	CompletedAt *time.Time             `json:"completed_at"`
	Answers     []answerDetailResponse `json:"answers"`
}

type attemptDetailsResponse struct {
	Attempt       attemptResponse         `json:"attempt"`
	QuizTitle     string                  `json:"quiz_title"`
	Student       userResponse            `json:"student"`
	ShowScores    bool                    `json:"show_scores"`
	RevealAnswers bool                    `json:"reveal_answers"`
	Sessions      []sessionDetailResponse `json:"sessions"`
}

func toAttemptDetails(d app.AttemptDetails) attemptDetailsResponse {
	out := attemptDetailsResponse{
		Attempt:       toAttempt(d.Attempt),
		QuizTitle:     d.Quiz.Title,
		Student:       toUser(d.Student),
		ShowScores:    d.ShowScores,
		RevealAnswers: d.RevealAnswers,
		Sessions:      make([]sessionDetailResponse, 0, len(d.Sessions)),
	}
	for _, s := range d.Sessions {
		sd := sessionDetailResponse{
			Session: s.Session.ID,
			Name:    s.Session.Name,
			Order:   s.Session.Order,
			Answers: make([]answerDetailResponse, 0, len(s.Answers)),
		}
		if s.Attempt != nil {
			sd.Score = s.Attempt.Score
			sd.CompletedAt = s.Attempt.CompletedAt
		}
		for _, a := range s.Answers {
			sd.Answers = append(sd.Answers, answerDetailResponse{
				Question:       a.Question.ID,
				Text:           a.Question.Text,
				SelectedOption: a.SelectedOptionID,
				IsCorrect:      a.IsCorrect,
				CorrectOption:  a.CorrectOptionID,
			})
		}
		out.Sessions = append(out.Sessions, sd)
	}
	return out
}

type teacherDashboardResponse struct {
	Teacher           userResponse `json:"teacher"`
	TotalClasses      int          `json:"total_classes"`
	TotalQuizzes      int          `json:"total_quizzes"`
	PublishedQuizzes  int          `json:"published_quizzes"`
	CompletedAttempts int          `json:"completed_attempts"`
}

type studentDashboardResponse struct {
	Student           userResponse `json:"student"`
	EnrolledClasses   int          `json:"enrolled_classes"`
	AvailableQuizzes  int          `json:"available_quizzes"`
	CompletedAttempts int          `json:"completed_attempts"`
	AverageScore      float64      `json:"average_score"`
}
