package auth

import (
	"errors"
	"testing"
	"time"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	user := domain.User{ID: uuid.New(), Role: domain.RoleTeacher}

	pair, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.ParseAccess(pair.Access)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != user.ID {
		t.Fatalf("subject = %v (%v), want %v", id, err, user.ID)
	}
	if claims.Role != domain.RoleTeacher {
		t.Fatalf("role = %q, want teacher", claims.Role)
	}

	refresh, err := issuer.ParseRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if refresh.ID == "" || refresh.ID == claims.ID {
		t.Fatalf("expected distinct token ids, got access=%q refresh=%q", claims.ID, refresh.ID)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	issuer := NewTokenIssuer("same", "same", time.Hour, time.Hour)
	pair, err := issuer.Issue(domain.User{ID: uuid.New(), Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.ParseAccess(pair.Refresh); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
	if _, err := issuer.ParseRefresh(pair.Access); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("a", "r", time.Hour, time.Hour).WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	})
	pair, err := issuer.Issue(domain.User{ID: uuid.New(), Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.ParseAccess(pair.Access); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	pair, err := NewTokenIssuer("one", "r", time.Hour, time.Hour).Issue(domain.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenIssuer("two", "r", time.Hour, time.Hour).ParseAccess(pair.Access); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ok, err := CheckPassword(hash, "correct horse")
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = CheckPassword(hash, "wrong horse")
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}
