package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	// DefaultRadiusKm bounds geo searches that do not name a radius.
	DefaultRadiusKm = 50
	// MaxResults caps every hospital listing.
	MaxResults = 50
)

type Service struct {
	repo HospitalRepository
}

func NewService(repo HospitalRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateHospital(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	if h.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if err := validCoords(h.Latitude, h.Longitude); err != nil {
		return err
	}
	return s.repo.Create(ctx, h)
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

// Search lists hospitals. A lat/lng pair restricts and orders results by
// proximity; name and city narrow by substring match.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]*NearbyHospital, error) {
	if (q.Lat == nil) != (q.Lng == nil) {
		return nil, fmt.Errorf("lat and lng must be provided together")
	}
	if q.Lat != nil {
		if err := validCoords(*q.Lat, *q.Lng); err != nil {
			return nil, err
		}
		if q.RadiusKm <= 0 {
			q.RadiusKm = DefaultRadiusKm
		}
	}
	if q.Limit <= 0 || q.Limit > MaxResults {
		q.Limit = MaxResults
	}
	return s.repo.Search(ctx, q)
}

// Nearest returns the single closest hospital for the SOS flow.
func (s *Service) Nearest(ctx context.Context, lat, lng float64) (*NearbyHospital, error) {
	if err := validCoords(lat, lng); err != nil {
		return nil, err
	}
	return s.repo.Nearest(ctx, lat, lng)
}

func validCoords(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude out of range: %f", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude out of range: %f", lng)
	}
	return nil
}
