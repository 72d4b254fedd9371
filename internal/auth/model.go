package auth

import (
	"strings"
	"time"

	"github.com/medibook/clinic-platform/internal/validation"
)

// Role is the access level attached to an account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// User is an account of any role.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Role          Role      `json:"role"`
	PasswordHash  string    `json:"-"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for account creation. Role defaults to
// patient; admin and doctor accounts are provisioned by an admin.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Validate applies the shared field validators.
func (r *RegisterRequest) Validate() error {
	if res := validation.ValidateName(r.Name); !res.IsValid {
		return &FieldError{Field: "name", Message: res.Error}
	}
	if res := validation.ValidateEmail(r.Email); !res.IsValid {
		return &FieldError{Field: "email", Message: res.Error}
	}
	if res := validation.ValidateMalaysiaPhone(r.Phone, false); !res.IsValid {
		return &FieldError{Field: "phone", Message: res.Error}
	}
	if len(r.Password) < 8 {
		return &FieldError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	if r.Role != "" && !r.Role.IsValid() {
		return &FieldError{Field: "role", Message: "Invalid role"}
	}
	return nil
}

// NormalizedEmail returns the lower-cased, trimmed address.
func (r *RegisterRequest) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest carries the OTP issued at registration.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ForgotPasswordRequest starts the temp-password flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// FieldError is a validation failure tied to a single form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}
