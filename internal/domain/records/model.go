package records

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category classifies a medical record for filtering in the patient's
// document list.
type Category string

const (
	CategoryConsultation Category = "consultation"
	CategoryLabReport    Category = "lab_report"
	CategoryPrescription Category = "prescription"
	CategoryImaging      Category = "imaging"
	CategoryOther        Category = "other"
)

// ParseCategory validates a category value from a request. An empty
// value defaults to other.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	switch Category(s) {
	case CategoryConsultation, CategoryLabReport, CategoryPrescription, CategoryImaging, CategoryOther:
		return Category(s), nil
	}
	return "", fmt.Errorf("invalid category: %q", s)
}

// MedicalRecord maps to the medical_records table. The file itself
// lives in the blob store under BlobKey.
type MedicalRecord struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patientId"`
	UploadedBy  uuid.UUID `db:"uploaded_by" json:"uploadedBy"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Category    Category  `db:"category" json:"category"`
	BlobKey     string    `db:"blob_key" json:"-"`
	FileName    string    `db:"file_name" json:"fileName"`
	FileSize    int64     `db:"file_size" json:"fileSize"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
