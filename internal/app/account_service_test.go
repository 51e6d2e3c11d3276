package app_test

import (
	"errors"
	"testing"

	"classquiz-service/internal/app"
	"classquiz-service/internal/domain"
)

func TestRegisterLoginRefreshLogout(t *testing.T) {
	h := newHarness(t)

	u, pair, err := h.accounts.Register(h.ctx, app.RegisterInput{
		Username:        "ada",
		Email:           "ada@example.com",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
		Role:            domain.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RoleTeacher || pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("unexpected registration result %+v", u)
	}

	if _, _, err := h.accounts.Login(h.ctx, "ada@example.com", "wrong-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected bad credentials, got %v", err)
	}
	if _, _, err := h.accounts.Login(h.ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email should look like bad credentials, got %v", err)
	}
	_, pair, err = h.accounts.Login(h.ctx, "ADA@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	p, err := h.accounts.Authenticate(h.ctx, pair.Access)
	if err != nil || p.UserID != u.ID || !p.IsTeacher() {
		t.Fatalf("authenticate: %+v (%v)", p, err)
	}
	if _, err := h.accounts.Authenticate(h.ctx, pair.Refresh); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}

	if _, _, err := h.accounts.Refresh(h.ctx, pair.Refresh); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := h.accounts.Logout(h.ctx, p, pair.Refresh); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := h.accounts.Refresh(h.ctx, pair.Refresh); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("blacklisted refresh token accepted: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	base := app.RegisterInput{Username: "u", Email: "u@example.com", Password: "longenough", PasswordConfirm: "longenough"}

	mismatch := base
	mismatch.PasswordConfirm = "different1"
	short := base
	short.Password, short.PasswordConfirm = "short", "short"
	badRole := base
	badRole.Role = "admin"

	for name, in := range map[string]app.RegisterInput{"mismatch": mismatch, "short": short, "role": badRole} {
		if _, _, err := h.accounts.Register(h.ctx, in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	u, _, err := h.accounts.Register(h.ctx, base)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RoleStudent {
		t.Fatalf("role should default to student, got %q", u.Role)
	}
	if _, _, err := h.accounts.Register(h.ctx, base); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected duplicate email conflict, got %v", err)
	}
}

func TestInactiveUserCannotAuthenticate(t *testing.T) {
	h := newHarness(t)
	in := app.RegisterInput{Username: "x", Email: "x@example.com", Password: "password1", PasswordConfirm: "password1"}
	u, pair, err := h.accounts.Register(h.ctx, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := h.store.SetUserActive(h.ctx, u.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := h.accounts.Authenticate(h.ctx, pair.Access); !errors.Is(err, domain.ErrInactiveUser) {
		t.Fatalf("expected inactive error, got %v", err)
	}
	if _, _, err := h.accounts.Login(h.ctx, in.Email, in.Password); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("inactive user logged in: %v", err)
	}
}
