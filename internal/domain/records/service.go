package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/domain/identity"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/blobstore"
)

// ErrNotAuthorized is returned when the caller may not see the record.
var ErrNotAuthorized = errors.New("not authorized")

type Service struct {
	records RecordRepository
	users   identity.UserRepository
	blobs   blobstore.Store
	logger  zerolog.Logger
}

func NewService(records RecordRepository, users identity.UserRepository, blobs blobstore.Store, logger zerolog.Logger) *Service {
	return &Service{records: records, users: users, blobs: blobs, logger: logger}
}

// UploadInput carries the multipart fields for a record upload.
type UploadInput struct {
	PatientID   uuid.UUID
	Title       string
	Description string
	Category    string
	FileName    string
	File        io.Reader
}

// Upload stores the file in the blob store and records its metadata.
// The blob is removed again if the metadata insert fails so the store
// does not accumulate orphans.
func (s *Service) Upload(ctx context.Context, uploaderID uuid.UUID, in UploadInput) (*MedicalRecord, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	category, err := ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	patient, err := s.users.GetByID(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != auth.RolePatient {
		return nil, fmt.Errorf("records can only be uploaded for patients")
	}

	blob, err := s.blobs.Save(ctx, in.FileName, in.File)
	if err != nil {
		return nil, err
	}

	rec := &MedicalRecord{
		PatientID:  in.PatientID,
		UploadedBy: uploaderID,
		Title:      in.Title,
		Category:   category,
		BlobKey:    blob.Key,
		FileName:   blob.FileName,
		FileSize:   blob.Size,
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		rec.Description = &desc
	}
	if err := s.records.Create(ctx, rec); err != nil {
		if delErr := s.blobs.Delete(ctx, blob.Key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("blob_key", blob.Key).Msg("failed to clean up orphaned blob")
		}
		return nil, err
	}
	return rec, nil
}

// ListMine lists the calling patient's own records.
func (s *Service) ListMine(ctx context.Context, patientID uuid.UUID, category string) ([]*MedicalRecord, error) {
	return s.list(ctx, patientID, category)
}

// ListForPatient lists a patient's records for staff, or for the
// patient themselves.
func (s *Service) ListForPatient(ctx context.Context, ident auth.Identity, patientID uuid.UUID, category string) ([]*MedicalRecord, error) {
	if ident.Role == auth.RolePatient && ident.UserID != patientID {
		return nil, ErrNotAuthorized
	}
	return s.list(ctx, patientID, category)
}

func (s *Service) list(ctx context.Context, patientID uuid.UUID, category string) ([]*MedicalRecord, error) {
	var filter *Category
	if category != "" {
		c, err := ParseCategory(category)
		if err != nil {
			return nil, err
		}
		filter = &c
	}
	return s.records.ListByPatient(ctx, patientID, filter)
}

// Download opens the stored file. The owning patient, doctors and
// admins may download; other patients may not.
func (s *Service) Download(ctx context.Context, ident auth.Identity, id uuid.UUID) (*MedicalRecord, io.ReadCloser, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if ident.Role == auth.RolePatient && ident.UserID != rec.PatientID {
		return nil, nil, ErrNotAuthorized
	}
	rc, err := s.blobs.Open(ctx, rec.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return rec, rc, nil
}
