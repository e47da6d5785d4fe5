package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const appointmentCols = `id, patient_id, doctor_id, hospital_id, date, status,
	reason, notes, diagnosis, prescription, created_at, updated_at`

// detailCols joins the patient, the doctor's user record and the
// hospital so listings need no follow-up queries.
const detailSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.hospital_id, a.date, a.status,
		a.reason, a.notes, a.diagnosis, a.prescription, a.created_at, a.updated_at,
		p.name, p.email, p.phone, du.name, h.name
	FROM appointments a
	JOIN users p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN users du ON du.id = d.user_id
	JOIN hospitals h ON h.id = a.hospital_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.HospitalID, &a.Date, &a.Status,
		&a.Reason, &a.Notes, &a.Diagnosis, &a.Prescription, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	return &a, err
}

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail
	err := row.Scan(&d.ID, &d.PatientID, &d.DoctorID, &d.HospitalID, &d.Date, &d.Status,
		&d.Reason, &d.Notes, &d.Diagnosis, &d.Prescription, &d.CreatedAt, &d.UpdatedAt,
		&d.PatientName, &d.PatientEmail, &d.PatientPhone, &d.DoctorName, &d.HospitalName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	return &d, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, hospital_id, date, status,
			reason, notes, diagnosis, prescription)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.PatientID, a.DoctorID, a.HospitalID, a.Date, a.Status,
		a.Reason, a.Notes, a.Diagnosis, a.Prescription)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	return scanDetail(r.pool.QueryRow(ctx, detailSelect+` WHERE a.id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status=$2, notes=$3, diagnosis=$4, prescription=$5, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.Notes, a.Diagnosis, a.Prescription)
	return err
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Detail, error) {
	rows, err := r.pool.Query(ctx,
		detailSelect+` WHERE a.patient_id = $1 ORDER BY a.date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *appointmentRepoPG) List(ctx context.Context, f ListFilter) ([]*Detail, error) {
	var (
		args  []interface{}
		conds []string
	)
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		conds = append(conds, fmt.Sprintf(`a.doctor_id = $%d`, len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf(`a.status = $%d`, len(args)))
	}

	sql := detailSelect
	if len(conds) > 0 {
		sql += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	sql += ` ORDER BY a.date ASC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func collectDetails(rows pgx.Rows) ([]*Detail, error) {
	defer rows.Close()
	var items []*Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
