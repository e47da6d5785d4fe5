package timeline

import (
	"context"

	"github.com/google/uuid"
)

type TimelineRepository interface {
	Create(ctx context.Context, e *Event) error
	// ListByPatient returns the patient's events most recent first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, eventType *EventType) ([]*EventDetail, error)
}
