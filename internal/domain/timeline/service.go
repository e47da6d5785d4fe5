package timeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/identity"
	"github.com/medlink/medlink/internal/platform/auth"
)

// ErrNotAuthorized is returned when the caller may not see the timeline.
var ErrNotAuthorized = errors.New("not authorized")

type Service struct {
	events  TimelineRepository
	users   identity.UserRepository
	doctors doctor.DoctorRepository
}

func NewService(events TimelineRepository, users identity.UserRepository, doctors doctor.DoctorRepository) *Service {
	return &Service{events: events, users: users, doctors: doctors}
}

// AddEventInput carries the fields for a new timeline entry.
type AddEventInput struct {
	PatientID   uuid.UUID
	Type        string
	Title       string
	Description string
	Date        time.Time
}

// AddEvent records an entry on a patient's timeline. Events added by a
// doctor carry the doctor's attribution; admin entries carry none.
func (s *Service) AddEvent(ctx context.Context, ident auth.Identity, in AddEventInput) (*Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	eventType, err := ParseEventType(in.Type)
	if err != nil {
		return nil, err
	}

	patient, err := s.users.GetByID(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != auth.RolePatient {
		return nil, fmt.Errorf("timeline events can only be added for patients")
	}

	e := &Event{
		PatientID: in.PatientID,
		Type:      eventType,
		Title:     in.Title,
		Date:      in.Date,
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		e.Description = &desc
	}
	if ident.Role == auth.RoleDoctor {
		doc, err := s.doctors.GetByUserID(ctx, ident.UserID)
		if err != nil {
			return nil, err
		}
		e.DoctorID = &doc.ID
	}

	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// MyTimeline lists the calling patient's own history.
func (s *Service) MyTimeline(ctx context.Context, patientID uuid.UUID, eventType string) ([]*EventDetail, error) {
	return s.list(ctx, patientID, eventType)
}

// PatientTimeline lists a patient's history for staff, or for the
// patient themselves.
func (s *Service) PatientTimeline(ctx context.Context, ident auth.Identity, patientID uuid.UUID, eventType string) ([]*EventDetail, error) {
	if ident.Role == auth.RolePatient && ident.UserID != patientID {
		return nil, ErrNotAuthorized
	}
	return s.list(ctx, patientID, eventType)
}

func (s *Service) list(ctx context.Context, patientID uuid.UUID, eventType string) ([]*EventDetail, error) {
	var filter *EventType
	if eventType != "" {
		t, err := ParseEventType(eventType)
		if err != nil {
			return nil, err
		}
		filter = &t
	}
	return s.events.ListByPatient(ctx, patientID, filter)
}
