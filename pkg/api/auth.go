package api

import "time"

// RegisterRequest is the payload for creating a new patient account.
// Role is accepted for validation purposes only: elevated roles are
// rejected and public signup always produces a patient.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest is the payload for authenticating with email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Address is a postal address attached to a user profile.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// EmergencyContact is the person to reach when the patient cannot be.
type EmergencyContact struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Relation string `json:"relation,omitempty"`
}

// UserPayload is the public view of a user account. The password hash is
// never part of this structure.
type UserPayload struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Role             string            `json:"role"`
	Phone            string            `json:"phone,omitempty"`
	Address          *Address          `json:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	ProfileImage     string            `json:"profileImage,omitempty"`
	EmailVerified    bool              `json:"emailVerified"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// AuthResponse is returned by register and login. The refresh token
// travels separately in an http-only cookie, never in the body.
type AuthResponse struct {
	User  UserPayload `json:"user"`
	Token string      `json:"token"`
}

// TokenResponse is returned by the refresh endpoint: a fresh access
// token and nothing else.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse mirrors the error envelope produced by echo's default
// HTTP error handler.
type ErrorResponse struct {
	Message string `json:"message"`
}
