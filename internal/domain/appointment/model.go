package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status value from a request.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status: %q", s)
}

// transitions encodes the allowed lifecycle moves. Rejected, completed
// and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Medicine is one line of a prescription.
type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Prescription is stored as JSONB on the appointment row.
type Prescription struct {
	Medicines    []Medicine `json:"medicines"`
	Instructions string     `json:"instructions,omitempty"`
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	PatientID    uuid.UUID     `db:"patient_id" json:"patientId"`
	DoctorID     uuid.UUID     `db:"doctor_id" json:"doctorId"`
	HospitalID   uuid.UUID     `db:"hospital_id" json:"hospitalId"`
	Date         time.Time     `db:"date" json:"date"`
	Status       Status        `db:"status" json:"status"`
	Reason       *string       `db:"reason" json:"reason,omitempty"`
	Notes        *string       `db:"notes" json:"notes,omitempty"`
	Diagnosis    *string       `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription *Prescription `db:"prescription" json:"prescription,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
}

// Detail is an appointment joined with the names the lists and the PDF
// summary need.
type Detail struct {
	Appointment
	PatientName  string  `json:"patientName"`
	PatientEmail string  `json:"patientEmail"`
	PatientPhone *string `json:"patientPhone,omitempty"`
	DoctorName   string  `json:"doctorName"`
	HospitalName string  `json:"hospitalName"`
}
