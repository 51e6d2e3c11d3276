package http

import (
	"net/http"

	"classquiz-service/internal/app"
	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request, _ auth.Principal) error {
	var req registerRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	u, pair, err := s.svc.Accounts.Register(r.Context(), app.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password1,
		PasswordConfirm: req.Password2,
		Role:            domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, toAuth(u, pair))
	return nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ auth.Principal) error {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	u, pair, err := s.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toAuth(u, pair))
	return nil
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request, _ auth.Principal) error {
	var req refreshRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	access, exp, err := s.svc.Accounts.Refresh(r.Context(), req.Refresh)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, accessResponse{Access: access, ExpiresAt: exp})
	return nil
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	var req refreshRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}
	if err := s.svc.Accounts.Logout(r.Context(), p, req.Refresh); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
	return nil
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	u, err := s.svc.Accounts.Me(r.Context(), p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toUser(u))
	return nil
}
