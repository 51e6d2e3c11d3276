package http

import (
	"net/http"

	"classquiz-service/internal/auth"
)

func (s *Server) teacherDashboard(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	d, err := s.svc.Dashboards.Teacher(r.Context(), p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, teacherDashboardResponse{
		Teacher:           toUser(d.Teacher),
		TotalClasses:      d.Classes,
		TotalQuizzes:      d.Quizzes,
		PublishedQuizzes:  d.PublishedQuizzes,
		CompletedAttempts: d.CompletedAttempts,
	})
	return nil
}

func (s *Server) studentDashboard(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	d, err := s.svc.Dashboards.Student(r.Context(), p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, studentDashboardResponse{
		Student:           toUser(d.Student),
		EnrolledClasses:   d.EnrolledClasses,
		AvailableQuizzes:  d.AvailableQuizzes,
		CompletedAttempts: d.CompletedAttempts,
		AverageScore:      d.AverageScore,
	})
	return nil
}
