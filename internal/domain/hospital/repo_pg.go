package hospital

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type hospitalRepoPG struct{ pool *pgxpool.Pool }

func NewHospitalRepoPG(pool *pgxpool.Pool) HospitalRepository {
	return &hospitalRepoPG{pool: pool}
}

const hospitalCols = `id, name, address_street, address_city, address_state, address_zip, country,
	latitude, longitude, phone, email, website, departments, amenities,
	total_beds, available_beds, image, created_at, updated_at`

// haversineKm computes the great-circle distance in kilometres between
// the hospital row and the ($lat, $lng) query point. least() guards acos
// against floating point drift just above 1.0.
const haversineKm = `(6371 * acos(least(1.0,
	cos(radians($%[1]d)) * cos(radians(latitude)) * cos(radians(longitude) - radians($%[2]d))
	+ sin(radians($%[1]d)) * sin(radians(latitude)))))`

func scanHospital(row pgx.Row, distance *float64) (*Hospital, error) {
	var h Hospital
	dest := []interface{}{&h.ID, &h.Name, &h.AddressStreet, &h.AddressCity, &h.AddressState, &h.AddressZip, &h.Country,
		&h.Latitude, &h.Longitude, &h.Phone, &h.Email, &h.Website, &h.Departments, &h.Amenities,
		&h.TotalBeds, &h.AvailableBeds, &h.Image, &h.CreatedAt, &h.UpdatedAt}
	if distance != nil {
		dest = append(dest, distance)
	}
	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrHospitalNotFound
	}
	return &h, err
}

func (r *hospitalRepoPG) Create(ctx context.Context, h *Hospital) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Departments == nil {
		h.Departments = []string{}
	}
	if h.Amenities == nil {
		h.Amenities = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hospitals (id, name, address_street, address_city, address_state, address_zip, country,
			latitude, longitude, phone, email, website, departments, amenities,
			total_beds, available_beds, image)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		h.ID, h.Name, h.AddressStreet, h.AddressCity, h.AddressState, h.AddressZip, h.Country,
		h.Latitude, h.Longitude, h.Phone, h.Email, h.Website, h.Departments, h.Amenities,
		h.TotalBeds, h.AvailableBeds, h.Image)
	return err
}

func (r *hospitalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return scanHospital(r.pool.QueryRow(ctx,
		`SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id), nil)
}

func (r *hospitalRepoPG) GetByName(ctx context.Context, name string) (*Hospital, error) {
	return scanHospital(r.pool.QueryRow(ctx,
		`SELECT `+hospitalCols+` FROM hospitals WHERE name = $1`, name), nil)
}

func (r *hospitalRepoPG) Search(ctx context.Context, q SearchQuery) ([]*NearbyHospital, error) {
	var (
		args  []interface{}
		conds []string
	)

	sel := `SELECT ` + hospitalCols
	order := `ORDER BY name ASC`

	geo := q.Lat != nil && q.Lng != nil
	if geo {
		args = append(args, *q.Lat, *q.Lng)
		dist := fmt.Sprintf(haversineKm, 1, 2)
		sel += `, ` + dist + ` AS distance_km`
		args = append(args, q.RadiusKm)
		conds = append(conds, fmt.Sprintf(`%s <= $%d`, dist, len(args)))
		order = `ORDER BY distance_km ASC`
	} else {
		sel += `, 0 AS distance_km`
	}

	if q.Name != "" {
		args = append(args, q.Name)
		conds = append(conds, fmt.Sprintf(`name ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if q.City != "" {
		args = append(args, q.City)
		conds = append(conds, fmt.Sprintf(`address_city ILIKE '%%' || $%d || '%%'`, len(args)))
	}

	sql := sel + ` FROM hospitals`
	if len(conds) > 0 {
		sql += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	args = append(args, q.Limit)
	sql += fmt.Sprintf(` %s LIMIT $%d`, order, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*NearbyHospital
	for rows.Next() {
		var dist float64
		h, err := scanHospital(rows, &dist)
		if err != nil {
			return nil, err
		}
		items = append(items, &NearbyHospital{Hospital: *h, DistanceKm: dist})
	}
	return items, rows.Err()
}

func (r *hospitalRepoPG) Nearest(ctx context.Context, lat, lng float64) (*NearbyHospital, error) {
	dist := fmt.Sprintf(haversineKm, 1, 2)
	var d float64
	h, err := scanHospital(r.pool.QueryRow(ctx,
		`SELECT `+hospitalCols+`, `+dist+` AS distance_km
		 FROM hospitals ORDER BY distance_km ASC LIMIT 1`, lat, lng), &d)
	if err != nil {
		return nil, err
	}
	return &NearbyHospital{Hospital: *h, DistanceKm: d}, nil
}
