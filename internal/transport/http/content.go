package http

import (
	"net/http"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
)

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	quizID, err := queryID(r, "quiz")
	if err != nil {
		return err
	}
	sessions, err := s.svc.Quizzes.ListSessions(r.Context(), p, quizID)
	if err != nil {
		return err
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSession(sess, true))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	var req sessionRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if req.Quiz == nil {
		return domain.Invalid("quiz is required")
	}
	sess, err := s.svc.Quizzes.CreateSession(r.Context(), p, *req.Quiz, req.input())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, toSession(sess, true))
	return nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	sess, err := s.svc.Quizzes.GetSession(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toSession(sess, true))
	return nil
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req sessionRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	sess, err := s.svc.Quizzes.UpdateSession(r.Context(), p, id, req.input())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toSession(sess, true))
	return nil
}

func (s *Server) patchSession(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req sessionPatchRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	sess, err := s.svc.Quizzes.PatchSession(r.Context(), p, id, app.SessionPatch{Name: req.Name, Duration: req.Duration, Order: req.Order})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toSession(sess, true))
	return nil
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Quizzes.DeleteSession(r.Context(), p, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	sessionID, err := queryID(r, "session")
	if err != nil {
		return err
	}
	questions, err := s.svc.Quizzes.ListQuestions(r.Context(), p, sessionID)
	if err != nil {
		return err
	}
	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, toQuestion(q, true))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	var req questionRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if req.Session == nil {
		return domain.Invalid("session is required")
	}
	q, err := s.svc.Quizzes.CreateQuestion(r.Context(), p, *req.Session, req.input())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, toQuestion(q, true))
	return nil
}

func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	q, err := s.svc.Quizzes.GetQuestion(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuestion(q, true))
	return nil
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req questionRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	q, err := s.svc.Quizzes.UpdateQuestion(r.Context(), p, id, req.input())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuestion(q, true))
	return nil
}

func (s *Server) patchQuestion(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req questionPatchRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	q, err := s.svc.Quizzes.PatchQuestion(r.Context(), p, id, app.QuestionPatch{
		Text:    req.Text,
		Order:   req.Order,
		Options: optionInputs(req.Options),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toQuestion(q, true))
	return nil
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Quizzes.DeleteQuestion(r.Context(), p, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
