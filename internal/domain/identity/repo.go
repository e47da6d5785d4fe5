package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/platform/auth"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	ListByRole(ctx context.Context, role auth.Role, limit, offset int) ([]*User, int, error)
}
