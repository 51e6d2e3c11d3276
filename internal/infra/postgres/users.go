package postgres

import (
	"context"
	"fmt"

	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	ensureID(&u.ID)
	nowIfZero(&u.CreatedAt)
	row := toUserRow(*u)
	if _, err := s.idb.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUnique(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var row userRow
	if err := s.idb.NewSelect().Model(&row).Where("u.id = ?", id).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "select user")
	}
	return row.domain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := s.idb.NewSelect().Model(&row).Where("lower(u.email) = lower(?)", email).Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "select user by email")
	}
	return row.domain(), nil
}

func (s *Store) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := s.idb.NewUpdate().
		Model((*userRow)(nil)).
		Set("is_active = ?", active).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
