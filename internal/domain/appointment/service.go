package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/hospital"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/pdfgen"
)

var (
	// ErrNotAuthorized is returned when the caller may not touch the
	// appointment.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidTransition is returned for lifecycle moves the state
	// machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Service struct {
	appts     AppointmentRepository
	doctors   doctor.DoctorRepository
	hospitals hospital.HospitalRepository
}

func NewService(appts AppointmentRepository, doctors doctor.DoctorRepository, hospitals hospital.HospitalRepository) *Service {
	return &Service{appts: appts, doctors: doctors, hospitals: hospitals}
}

// Book creates a pending appointment after verifying the doctor and
// hospital exist.
func (s *Service) Book(ctx context.Context, patientID, doctorID, hospitalID uuid.UUID, date time.Time, reason string) (*Appointment, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	if _, err := s.hospitals.GetByID(ctx, hospitalID); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:  patientID,
		DoctorID:   doctorID,
		HospitalID: hospitalID,
		Date:       date,
		Status:     StatusPending,
	}
	if reason != "" {
		a.Reason = &reason
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// MyAppointments lists the calling patient's appointments, newest first.
func (s *Service) MyAppointments(ctx context.Context, patientID uuid.UUID) ([]*Detail, error) {
	return s.appts.ListByPatient(ctx, patientID)
}

// Get returns one appointment if the caller is the patient, the owning
// doctor, or an admin.
func (s *Service) Get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Detail, error) {
	d, err := s.appts.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, ident, d, true); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns every appointment for admins and only the caller's own
// for doctors, optionally narrowed by status.
func (s *Service) List(ctx context.Context, ident auth.Identity, statusFilter string) ([]*Detail, error) {
	var f ListFilter
	if statusFilter != "" {
		st, err := ParseStatus(statusFilter)
		if err != nil {
			return nil, err
		}
		f.Status = &st
	}
	switch ident.Role {
	case auth.RoleAdmin:
	case auth.RoleDoctor:
		doc, err := s.doctors.GetByUserID(ctx, ident.UserID)
		if err != nil {
			return nil, err
		}
		f.DoctorID = &doc.ID
	default:
		return nil, ErrNotAuthorized
	}
	return s.appts.List(ctx, f)
}

// ListForDoctor lists the appointments of the doctor profile linked to
// the calling user, oldest first.
func (s *Service) ListForDoctor(ctx context.Context, doctorUserID uuid.UUID) ([]*Detail, error) {
	doc, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, err
	}
	return s.appts.List(ctx, ListFilter{DoctorID: &doc.ID})
}

// UpdateStatus moves the appointment through its lifecycle. Doctors may
// only touch their own appointments; admins any. A remark, when given,
// is appended to the notes trail.
func (s *Service) UpdateStatus(ctx context.Context, ident auth.Identity, id uuid.UUID, status Status, remark string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ident.Role == auth.RoleDoctor {
		doc, err := s.doctors.GetByUserID(ctx, ident.UserID)
		if err != nil || doc.ID != a.DoctorID {
			return nil, ErrNotAuthorized
		}
	} else if ident.Role != auth.RoleAdmin {
		return nil, ErrNotAuthorized
	}

	if !a.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, status)
	}

	a.Status = status
	if remark != "" {
		appendNote(a, "Status update: "+remark)
	}
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// NotesUpdate carries the consultation outcome a doctor records.
type NotesUpdate struct {
	Notes        string        `json:"notes"`
	Diagnosis    string        `json:"diagnosis"`
	Prescription *Prescription `json:"prescription"`
	Status       string        `json:"status"`
}

// UpdateNotes records consultation notes on the doctor's own
// appointment. Without an explicit status the appointment moves to
// completed.
func (s *Service) UpdateNotes(ctx context.Context, doctorUserID uuid.UUID, id uuid.UUID, upd NotesUpdate) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil || doc.ID != a.DoctorID {
		return nil, ErrNotAuthorized
	}

	if upd.Notes != "" {
		notes := upd.Notes
		a.Notes = &notes
	}
	if upd.Diagnosis != "" {
		diagnosis := upd.Diagnosis
		a.Diagnosis = &diagnosis
	}
	if upd.Prescription != nil {
		a.Prescription = upd.Prescription
	}

	next := StatusCompleted
	if upd.Status != "" {
		next, err = ParseStatus(upd.Status)
		if err != nil {
			return nil, err
		}
	}
	if next != a.Status {
		if !a.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
		}
		a.Status = next
	}

	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Summary assembles the data for the downloadable PDF. Only the patient
// who owns the appointment or an admin may request it.
func (s *Service) Summary(ctx context.Context, ident auth.Identity, id uuid.UUID) (*pdfgen.AppointmentSummary, error) {
	d, err := s.appts.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, ident, d, false); err != nil {
		return nil, err
	}

	sum := &pdfgen.AppointmentSummary{
		AppointmentID: d.ID.String(),
		PatientName:   d.PatientName,
		PatientEmail:  d.PatientEmail,
		DoctorName:    d.DoctorName,
		HospitalName:  d.HospitalName,
		Date:          d.Date,
		Status:        string(d.Status),
	}
	if d.PatientPhone != nil {
		sum.PatientPhone = *d.PatientPhone
	}
	if d.Notes != nil {
		sum.Notes = *d.Notes
	}
	return sum, nil
}

// authorize checks read access. includeDoctor admits the owning doctor
// in addition to the patient and admins.
func (s *Service) authorize(ctx context.Context, ident auth.Identity, d *Detail, includeDoctor bool) error {
	if ident.Role == auth.RoleAdmin || ident.UserID == d.PatientID {
		return nil
	}
	if includeDoctor && ident.Role == auth.RoleDoctor {
		doc, err := s.doctors.GetByUserID(ctx, ident.UserID)
		if err == nil && doc.ID == d.DoctorID {
			return nil
		}
	}
	return ErrNotAuthorized
}

func appendNote(a *Appointment, line string) {
	if a.Notes == nil || *a.Notes == "" {
		a.Notes = &line
		return
	}
	joined := *a.Notes + "\n" + line
	a.Notes = &joined
}
