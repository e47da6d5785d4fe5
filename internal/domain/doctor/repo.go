package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDoctorNotFound is returned when no doctor matches the lookup.
var ErrDoctorNotFound = errors.New("doctor not found")

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
}
