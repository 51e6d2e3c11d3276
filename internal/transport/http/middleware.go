package http

import (
	"fmt"
	"net/http"
	"strings"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
)

// handlerFunc is an action. A returned error is mapped to a status code by
// writeError.
type handlerFunc func(w http.ResponseWriter, r *http.Request, p auth.Principal) error

// public runs h without authentication.
func (s *Server) public(op string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.run(w, r, op, auth.Principal{}, h)
	}
}

// protected resolves the caller from the access token before running h.
func (s *Server) protected(op string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := accessToken(r)
		if token == "" {
			s.writeError(w, r, op, auth.Principal{}, domain.ErrInvalidToken)
			return
		}
		p, err := s.svc.Accounts.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, op, auth.Principal{}, err)
			return
		}
		s.run(w, r, op, p, h)
	}
}

// run is the action boundary: errors and panics both end up in writeError.
func (s *Server) run(w http.ResponseWriter, r *http.Request, op string, p auth.Principal, h handlerFunc) {
	defer func() {
		if v := recover(); v != nil {
			s.writeError(w, r, op, p, fmt.Errorf("panic: %v", v))
		}
	}()
	if err := h(w, r, p); err != nil {
		s.writeError(w, r, op, p, err)
	}
}

// accessToken reads a bearer token, falling back to the access_token query
// parameter for clients that cannot set headers (browsers opening a websocket).
func accessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func stripSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = strings.TrimRight(p, "/")
			r2.URL.RawPath = ""
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

func apiAlias(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/api" + r.URL.Path
		r2.URL.RawPath = ""
		mux.ServeHTTP(w, r2)
	})
}
