package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `id, user_id, specialization, qualifications, experience_years,
	hospital_id, about, consultation_fee, availability, license_number, verified,
	created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.Specialization, &d.Qualifications, &d.ExperienceYears,
		&d.HospitalID, &d.About, &d.ConsultationFee, &d.Availability, &d.LicenseNumber, &d.Verified,
		&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Qualifications == nil {
		d.Qualifications = []string{}
	}
	if d.Availability == nil {
		d.Availability = []DayAvailability{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, user_id, specialization, qualifications, experience_years,
			hospital_id, about, consultation_fee, availability, license_number, verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.UserID, d.Specialization, d.Qualifications, d.ExperienceYears,
		d.HospitalID, d.About, d.ConsultationFee, d.Availability, d.LicenseNumber, d.Verified)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE user_id = $1`, userID))
}

func (r *doctorRepoPG) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT d.id, d.user_id, d.specialization, d.qualifications, d.experience_years,
			d.hospital_id, d.about, d.consultation_fee, d.availability, d.license_number, d.verified,
			d.created_at, d.updated_at,
			u.name, u.profile_image,
			h.name, h.address_city, h.phone, h.latitude, h.longitude
		FROM doctors d
		JOIN users u ON u.id = d.user_id
		LEFT JOIN hospitals h ON h.id = d.hospital_id
		WHERE d.id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Specialization, &p.Qualifications, &p.ExperienceYears,
			&p.HospitalID, &p.About, &p.ConsultationFee, &p.Availability, &p.LicenseNumber, &p.Verified,
			&p.CreatedAt, &p.UpdatedAt,
			&p.Name, &p.ProfileImage,
			&p.HospitalName, &p.HospitalCity, &p.HospitalPhone, &p.HospitalLat, &p.HospitalLng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
