package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/pkg/api"
)

// User maps to the users table. The password hash never leaves the
// server: it is excluded from JSON and only compared through the
// service layer.
type User struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	Name                  string    `db:"name" json:"name"`
	Email                 string    `db:"email" json:"email"`
	PasswordHash          string    `db:"password_hash" json:"-"`
	Role                  auth.Role `db:"role" json:"role"`
	Phone                 *string   `db:"phone" json:"phone,omitempty"`
	AddressStreet         *string   `db:"address_street" json:"addressStreet,omitempty"`
	AddressCity           *string   `db:"address_city" json:"addressCity,omitempty"`
	AddressState          *string   `db:"address_state" json:"addressState,omitempty"`
	AddressZip            *string   `db:"address_zip" json:"addressZip,omitempty"`
	ProfileImage          *string   `db:"profile_image" json:"profileImage,omitempty"`
	EmergencyContactName  *string   `db:"emergency_contact_name" json:"emergencyContactName,omitempty"`
	EmergencyContactPhone *string   `db:"emergency_contact_phone" json:"emergencyContactPhone,omitempty"`
	EmergencyContactRel   *string   `db:"emergency_contact_relation" json:"emergencyContactRelation,omitempty"`
	EmailVerified         bool      `db:"email_verified" json:"emailVerified"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}

// Payload converts the user into the wire form shared with clients.
func (u *User) Payload() api.UserPayload {
	p := api.UserPayload{
		ID:            u.ID.String(),
		Name:          u.Name,
		Email:         u.Email,
		Role:          string(u.Role),
		Phone:         strVal(u.Phone),
		ProfileImage:  strVal(u.ProfileImage),
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
	if u.AddressStreet != nil || u.AddressCity != nil || u.AddressState != nil || u.AddressZip != nil {
		p.Address = &api.Address{
			Street: strVal(u.AddressStreet),
			City:   strVal(u.AddressCity),
			State:  strVal(u.AddressState),
			Zip:    strVal(u.AddressZip),
		}
	}
	if u.EmergencyContactName != nil || u.EmergencyContactPhone != nil || u.EmergencyContactRel != nil {
		p.EmergencyContact = &api.EmergencyContact{
			Name:     strVal(u.EmergencyContactName),
			Phone:    strVal(u.EmergencyContactPhone),
			Relation: strVal(u.EmergencyContactRel),
		}
	}
	return p
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
