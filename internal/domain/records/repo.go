package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when no record matches the lookup.
var ErrRecordNotFound = errors.New("medical record not found")

type RecordRepository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	// ListByPatient returns the patient's records newest first,
	// optionally narrowed to one category.
	ListByPatient(ctx context.Context, patientID uuid.UUID, category *Category) ([]*MedicalRecord, error)
}
