package timeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a timeline entry.
type EventType string

const (
	TypeSurgery      EventType = "surgery"
	TypeDiagnosis    EventType = "diagnosis"
	TypePrescription EventType = "prescription"
	TypeVisit        EventType = "visit"
	TypeLabReport    EventType = "lab_report"
	TypeOther        EventType = "other"
)

// ParseEventType validates an event type from a request. An empty value
// defaults to other.
func ParseEventType(s string) (EventType, error) {
	if s == "" {
		return TypeOther, nil
	}
	switch EventType(s) {
	case TypeSurgery, TypeDiagnosis, TypePrescription, TypeVisit, TypeLabReport, TypeOther:
		return EventType(s), nil
	}
	return "", fmt.Errorf("invalid event type: %q", s)
}

// Event maps to the timeline_events table. DoctorID is set when a
// doctor recorded the event and nil for admin entries.
type Event struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patientId"`
	DoctorID    *uuid.UUID `db:"doctor_id" json:"doctorId,omitempty"`
	Type        EventType  `db:"type" json:"type"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Date        time.Time  `db:"date" json:"date"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// EventDetail is an event joined with the recording doctor's name when
// one exists.
type EventDetail struct {
	Event
	DoctorName *string `json:"doctorName,omitempty"`
}
