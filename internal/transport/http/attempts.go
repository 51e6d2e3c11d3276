package http

import (
	"net/http"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
)

func (s *Server) listAttempts(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	attempts, err := s.svc.Attempts.List(r.Context(), p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toAttempts(attempts))
	return nil
}

func (s *Server) getAttempt(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	attempt, err := s.svc.Attempts.Get(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toAttempt(attempt))
	return nil
}

// submitAnswer does not echo correctness; students learn it from the
// attempt details once the quiz allows.
func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req answerRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	answer, err := s.svc.Attempts.SubmitAnswer(r.Context(), p, id, app.AnswerInput{
		QuestionID: req.QuestionID,
		OptionID:   req.OptionID,
		SessionID:  req.SessionID,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, answerResponse{
		ID:             answer.ID,
		SessionAttempt: answer.SessionAttemptID,
		Question:       answer.QuestionID,
		SelectedOption: answer.SelectedOptionID,
		AnsweredAt:     answer.AnsweredAt,
	})
	return nil
}

func (s *Server) completeSession(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req completeSessionRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	res, err := s.svc.Attempts.CompleteSession(r.Context(), p, id, req.SessionID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, completeSessionResponse{
		Message:         "Session completed successfully",
		SessionAttempt:  toSessionAttempt(res.SessionAttempt),
		Attempt:         toAttempt(res.Attempt),
		IsQuizCompleted: res.Sealed,
	})
	return nil
}

func (s *Server) attemptDetails(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	details, err := s.svc.Attempts.Details(r.Context(), p, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toAttemptDetails(details))
	return nil
}
