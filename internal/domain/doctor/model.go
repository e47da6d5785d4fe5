package doctor

import (
	"time"

	"github.com/google/uuid"
)

// TimeSlot is a bookable window within a day, "09:00" to "11:00" style.
type TimeSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// DayAvailability lists the slots a doctor keeps open on a weekday.
type DayAvailability struct {
	Day   string     `json:"day"`
	Slots []TimeSlot `json:"slots"`
}

// Doctor maps to the doctors table. Availability is stored as JSONB;
// qualifications as a text array.
type Doctor struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	UserID          uuid.UUID         `db:"user_id" json:"userId"`
	Specialization  string            `db:"specialization" json:"specialization"`
	Qualifications  []string          `db:"qualifications" json:"qualifications"`
	ExperienceYears int               `db:"experience_years" json:"experienceYears"`
	HospitalID      *uuid.UUID        `db:"hospital_id" json:"hospitalId,omitempty"`
	About           *string           `db:"about" json:"about,omitempty"`
	ConsultationFee float64           `db:"consultation_fee" json:"consultationFee"`
	Availability    []DayAvailability `db:"availability" json:"availability"`
	LicenseNumber   string            `db:"license_number" json:"licenseNumber"`
	Verified        bool              `db:"verified" json:"isVerified"`
	CreatedAt       time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updatedAt"`
}

// Profile is the public view of a doctor: the profile row joined with
// the linked user's display fields and the hospital's contact card.
type Profile struct {
	Doctor
	Name          string   `json:"name"`
	ProfileImage  *string  `json:"profileImage,omitempty"`
	HospitalName  *string  `json:"hospitalName,omitempty"`
	HospitalCity  *string  `json:"hospitalCity,omitempty"`
	HospitalPhone *string  `json:"hospitalPhone,omitempty"`
	HospitalLat   *float64 `json:"hospitalLatitude,omitempty"`
	HospitalLng   *float64 `json:"hospitalLongitude,omitempty"`
}
