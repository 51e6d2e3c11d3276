package memory

import (
	"context"
	"strings"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := s.data.emails[key]; ok {
		return domain.ErrEmailTaken
	}
	ensureID(&u.ID)
	nowIfZero(&u.CreatedAt)
	s.data.users[u.ID] = *u
	s.data.emails[key] = u.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.data.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.data.emails[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.data.users[id], nil
}

func (s *Store) SetUserActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.data.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsActive = active
	s.data.users[id] = u
	return nil
}
