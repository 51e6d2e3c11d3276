package auth

import (
	"classquiz-service/internal/domain"
	"github.com/google/uuid"
)

// Principal is the authenticated caller. It is passed explicitly into every
// app operation that needs an identity.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   domain.Role
}

// PrincipalFor builds the principal of a stored user.
func PrincipalFor(u domain.User) Principal {
	return Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (p Principal) IsTeacher() bool { return p.Role == domain.RoleTeacher }
func (p Principal) IsStudent() bool { return p.Role == domain.RoleStudent }
