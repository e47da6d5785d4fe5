package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAppointmentNotFound is returned when no appointment matches the lookup.
var ErrAppointmentNotFound = errors.New("appointment not found")

// ListFilter narrows the admin/doctor listing. A nil DoctorID means all
// doctors; a nil Status means every state.
type ListFilter struct {
	DoctorID *uuid.UUID
	Status   *Status
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	Update(ctx context.Context, a *Appointment) error
	// ListByPatient returns the patient's appointments newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Detail, error)
	// List returns appointments oldest first so pending queues read
	// top-down.
	List(ctx context.Context, f ListFilter) ([]*Detail, error)
}
