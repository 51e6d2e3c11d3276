package app

import (
	"context"
	"time"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
)

type TeacherDashboard struct {
	Teacher           domain.User
	Classes           int
	Quizzes           int
	PublishedQuizzes  int
	CompletedAttempts int
}

type StudentDashboard struct {
	Student           domain.User
	EnrolledClasses   int
	AvailableQuizzes  int
	CompletedAttempts int
	AverageScore      float64
}

// DashboardService builds the per-role landing summaries.
type DashboardService struct {
	store Store
	now   func() time.Time
}

func NewDashboardService(store Store, opts ...Option) *DashboardService {
	o := buildOptions(opts)
	return &DashboardService{store: store, now: o.now}
}

func (s *DashboardService) Teacher(ctx context.Context, p auth.Principal) (TeacherDashboard, error) {
	if err := requireTeacher(p); err != nil {
		return TeacherDashboard{}, err
	}
	u, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return TeacherDashboard{}, err
	}
	classes, err := s.store.ListClassesByTeacher(ctx, p.UserID)
	if err != nil {
		return TeacherDashboard{}, err
	}
	quizzes, err := s.store.ListQuizzesByCreator(ctx, p.UserID)
	if err != nil {
		return TeacherDashboard{}, err
	}
	attempts, err := s.store.ListAttemptsByCreator(ctx, p.UserID)
	if err != nil {
		return TeacherDashboard{}, err
	}

	d := TeacherDashboard{Teacher: u, Classes: len(classes), Quizzes: len(quizzes)}
	for _, q := range quizzes {
		if q.IsPublished {
			d.PublishedQuizzes++
		}
	}
	for _, a := range attempts {
		if a.Sealed() {
			d.CompletedAttempts++
		}
	}
	return d, nil
}

func (s *DashboardService) Student(ctx context.Context, p auth.Principal) (StudentDashboard, error) {
	if err := requireStudent(p); err != nil {
		return StudentDashboard{}, err
	}
	u, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return StudentDashboard{}, err
	}
	classes, err := s.store.ListClassesByStudent(ctx, p.UserID)
	if err != nil {
		return StudentDashboard{}, err
	}
	quizzes, err := s.store.ListQuizzesForStudent(ctx, p.UserID)
	if err != nil {
		return StudentDashboard{}, err
	}
	attempts, err := s.store.ListAttemptsByStudent(ctx, p.UserID)
	if err != nil {
		return StudentDashboard{}, err
	}

	d := StudentDashboard{Student: u, EnrolledClasses: len(classes)}
	now := s.now()
	for _, q := range quizzes {
		if q.OpenAt(now) {
			d.AvailableQuizzes++
		}
	}
	var scores []float64
	for _, a := range attempts {
		if a.Sealed() && a.Score != nil {
			scores = append(scores, *a.Score)
		}
	}
	d.CompletedAttempts = len(scores)
	d.AverageScore = domain.FinalScore(scores)
	return d, nil
}
