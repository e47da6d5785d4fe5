package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Hospital maps to the hospitals table. Coordinates are stored as plain
// latitude/longitude columns; proximity queries use the haversine
// formula in SQL rather than a geospatial extension.
type Hospital struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	AddressStreet *string   `db:"address_street" json:"addressStreet,omitempty"`
	AddressCity   *string   `db:"address_city" json:"addressCity,omitempty"`
	AddressState  *string   `db:"address_state" json:"addressState,omitempty"`
	AddressZip    *string   `db:"address_zip" json:"addressZip,omitempty"`
	Country       string    `db:"country" json:"country"`
	Latitude      float64   `db:"latitude" json:"latitude"`
	Longitude     float64   `db:"longitude" json:"longitude"`
	Phone         string    `db:"phone" json:"phone"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Website       *string   `db:"website" json:"website,omitempty"`
	Departments   []string  `db:"departments" json:"departments"`
	Amenities     []string  `db:"amenities" json:"amenities"`
	TotalBeds     *int      `db:"total_beds" json:"totalBeds,omitempty"`
	AvailableBeds *int      `db:"available_beds" json:"availableBeds,omitempty"`
	Image         *string   `db:"image" json:"image,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// NearbyHospital is a search hit annotated with the distance from the
// caller's position.
type NearbyHospital struct {
	Hospital
	DistanceKm float64 `json:"distanceKm"`
}
