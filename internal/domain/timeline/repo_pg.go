package timeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type timelineRepoPG struct{ pool *pgxpool.Pool }

func NewTimelineRepoPG(pool *pgxpool.Pool) TimelineRepository {
	return &timelineRepoPG{pool: pool}
}

func (r *timelineRepoPG) Create(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO timeline_events (id, patient_id, doctor_id, type, title, description, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.PatientID, e.DoctorID, e.Type, e.Title, e.Description, e.Date)
	return err
}

func (r *timelineRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, eventType *EventType) ([]*EventDetail, error) {
	query := `
		SELECT t.id, t.patient_id, t.doctor_id, t.type, t.title, t.description, t.date, t.created_at,
			du.name AS doctor_name
		FROM timeline_events t
		LEFT JOIN doctors d ON d.id = t.doctor_id
		LEFT JOIN users du ON du.id = d.user_id
		WHERE t.patient_id = $1`
	args := []any{patientID}
	if eventType != nil {
		query += ` AND t.type = $2`
		args = append(args, *eventType)
	}
	query += ` ORDER BY t.date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EventDetail
	for rows.Next() {
		var d EventDetail
		err := rows.Scan(&d.ID, &d.PatientID, &d.DoctorID, &d.Type, &d.Title, &d.Description,
			&d.Date, &d.CreatedAt, &d.DoctorName)
		if err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
