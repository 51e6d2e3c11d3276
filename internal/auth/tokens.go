package auth

import (
	"fmt"
	"time"

	"classquiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried by both token types. ID (jti) identifies refresh tokens on the blacklist.
type Claims struct {
	Role      domain.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}

// Expiry returns the expiry, or the zero time when the claim is absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenIssuer signs HS256 access and refresh tokens with separate secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the issuing clock; used by tests.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// Issue signs a new access/refresh pair for u.
func (i *TokenIssuer) Issue(u domain.User) (TokenPair, error) {
	access, accessExp, err := i.IssueAccess(u.ID, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := i.sign(u.ID, u.Role, TokenTypeRefresh, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess signs an access token only.
func (i *TokenIssuer) IssueAccess(userID uuid.UUID, role domain.Role) (string, time.Time, error) {
	return i.sign(userID, role, TokenTypeAccess, i.accessTTL, i.accessSecret)
}

func (i *TokenIssuer) ParseAccess(raw string) (*Claims, error) {
	return parse(raw, i.accessSecret, TokenTypeAccess)
}

func (i *TokenIssuer) ParseRefresh(raw string) (*Claims, error) {
	return parse(raw, i.refreshSecret, TokenTypeRefresh)
}

func (i *TokenIssuer) sign(userID uuid.UUID, role domain.Role, typ string, ttl time.Duration, secret []byte) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(ttl)
	claims := Claims{
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

func parse(raw string, secret []byte, typ string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.TokenType != typ {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
