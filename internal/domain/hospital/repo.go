package hospital

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrHospitalNotFound is returned when no hospital matches the lookup.
var ErrHospitalNotFound = errors.New("hospital not found")

// SearchQuery narrows the hospital listing. When Lat/Lng are set the
// results are restricted to RadiusKm and ordered nearest-first.
type SearchQuery struct {
	Lat      *float64
	Lng      *float64
	RadiusKm float64
	Name     string
	City     string
	Limit    int
}

type HospitalRepository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	GetByName(ctx context.Context, name string) (*Hospital, error)
	Search(ctx context.Context, q SearchQuery) ([]*NearbyHospital, error)
	Nearest(ctx context.Context, lat, lng float64) (*NearbyHospital, error)
}
