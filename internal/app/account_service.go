package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
)

const minPasswordLength = 8

// RegisterInput is a new account request. Role defaults to student.
type RegisterInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
	Role            domain.Role
}

// AccountService registers users and manages their tokens.
type AccountService struct {
	users     UserRepository
	tokens    *auth.TokenIssuer
	blacklist TokenBlacklist
	now       func() time.Time
	log       *slog.Logger
}

func NewAccountService(users UserRepository, tokens *auth.TokenIssuer, blacklist TokenBlacklist, opts ...Option) *AccountService {
	o := buildOptions(opts)
	return &AccountService{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		now:       o.now,
		log:       o.logger,
	}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.User, auth.TokenPair, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = domain.RoleStudent
	}
	switch {
	case in.Username == "":
		return domain.User{}, auth.TokenPair{}, domain.Invalid("username is required")
	case in.Email == "":
		return domain.User{}, auth.TokenPair{}, domain.Invalid("email is required")
	case !in.Role.Valid():
		return domain.User{}, auth.TokenPair{}, domain.Invalid("role must be teacher or student")
	case len(in.Password) < minPasswordLength:
		return domain.User{}, auth.TokenPair{}, domain.Invalid("password must be at least %d characters", minPasswordLength)
	case in.Password != in.PasswordConfirm:
		return domain.User{}, auth.TokenPair{}, domain.Invalid("password fields didn't match")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		return domain.User{}, auth.TokenPair{}, err
	}
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, err
	}
	s.log.Info("user registered", "user", u.ID, "role", u.Role)
	return u, pair, nil
}

// Login checks credentials and issues a fresh token pair.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.User, auth.TokenPair, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		auth.RejectPassword(password)
		return domain.User{}, auth.TokenPair{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, auth.TokenPair{}, err
	}
	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, fmt.Errorf("check password: %w", err)
	}
	if !ok || !u.IsActive {
		return domain.User{}, auth.TokenPair{}, domain.ErrInvalidCredentials
	}
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, err
	}
	return u, pair, nil
}

// Logout blacklists the caller's refresh token until it would have expired.
func (s *AccountService) Logout(ctx context.Context, p auth.Principal, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}
	id, err := claims.UserID()
	if err != nil {
		return err
	}
	if id != p.UserID {
		return domain.ErrInvalidToken
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.Expiry())
}

// Refresh exchanges a live refresh token for a new access token.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	if revoked {
		return "", time.Time{}, domain.ErrInvalidToken
	}
	u, err := s.activeUser(ctx, claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.IssueAccess(u.ID, u.Role)
}

// Authenticate resolves an access token to the principal of an active user.
func (s *AccountService) Authenticate(ctx context.Context, accessToken string) (auth.Principal, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return auth.Principal{}, err
	}
	u, err := s.activeUser(ctx, claims)
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.PrincipalFor(u), nil
}

func (s *AccountService) Me(ctx context.Context, p auth.Principal) (domain.User, error) {
	return s.users.GetUser(ctx, p.UserID)
}

func (s *AccountService) activeUser(ctx context.Context, claims *auth.Claims) (domain.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrInvalidToken
	}
	if err != nil {
		return domain.User{}, err
	}
	if !u.IsActive {
		return domain.User{}, domain.ErrInactiveUser
	}
	return u, nil
}
