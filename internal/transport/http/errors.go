package http

import (
	"errors"
	"net/http"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

type errorResponse struct {
	Message string `json:"message"`
}

// statusFor maps an error kind to its HTTP status. Conflicts are reported as
// 400 like validation failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, p auth.Principal, err error) {
	status := statusFor(err)
	if status != http.StatusInternalServerError {
		writeJSON(w, status, errorResponse{Message: err.Error()})
		return
	}
	attrs := []any{"op", op, "method", r.Method, "path", r.URL.Path, "err", err}
	if p.UserID != uuid.Nil {
		attrs = append(attrs, "user", p.UserID)
	}
	if id := r.PathValue("id"); id != "" {
		attrs = append(attrs, "entity", id)
	}
	s.log.Error("request failed", attrs...)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}
