package http

import (
	"net/http"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
)

func (s *Server) listQuizzes(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	quizzes, err := s.svc.Quizzes.List(r.Context(), p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuizzes(quizzes, p))
	return nil
}

func (s *Server) availableQuizzes(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	quizzes, err := s.svc.Quizzes.Available(r.Context(), p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuizzes(quizzes, p))
	return nil
}

func (s *Server) createQuiz(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	var req quizRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	detail, err := s.svc.Quizzes.Create(r.Context(), p, req.input())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, toQuiz(detail.QuizContent, detail.RevealAnswers))
	return nil
}

func (s *Server) getQuiz(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	detail, err := s.svc.Quizzes.Get(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuiz(detail.QuizContent, detail.RevealAnswers))
	return nil
}

func (s *Server) updateQuiz(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req quizRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	detail, err := s.svc.Quizzes.Update(r.Context(), p, id, req.input())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuiz(detail.QuizContent, detail.RevealAnswers))
	return nil
}

func (s *Server) patchQuiz(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req quizPatchRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	detail, err := s.svc.Quizzes.Patch(r.Context(), p, id, req.patch())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuiz(detail.QuizContent, detail.RevealAnswers))
	return nil
}

func (s *Server) deleteQuiz(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Quizzes.Delete(r.Context(), p, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) publishQuiz(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req publishRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	quiz, err := s.svc.Quizzes.Publish(r.Context(), p, id, app.PublishInput{StartDate: req.StartDate, EndDate: req.EndDate})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuizHeader(quiz))
	return nil
}

// startQuiz answers 201 for a new attempt and 200 when an attempt in
// progress is returned.
func (s *Server) startQuiz(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	attempt, created, err := s.svc.Attempts.Start(r.Context(), p, id)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toAttempt(attempt))
	return nil
}

func (s *Server) submissions(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	subs, err := s.svc.Attempts.Submissions(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toSubmissions(subs))
	return nil
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	stats, err := s.svc.Attempts.Statistics(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}
