package patients

import (
	"strings"
	"time"

	"github.com/medibook/clinic-platform/internal/validation"
)

// Patient is the profile attached to a patient account.
type Patient struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth string    `json:"date_of_birth"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpsertPatientRequest creates or replaces a patient profile.
type UpsertPatientRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

// Validate applies the shared field validators.
func (r *UpsertPatientRequest) Validate() error {
	if res := validation.ValidateName(r.Name); !res.IsValid {
		return &FieldError{Field: "name", Message: res.Error}
	}
	if res := validation.ValidateEmail(r.Email); !res.IsValid {
		return &FieldError{Field: "email", Message: res.Error}
	}
	if res := validation.ValidateMalaysiaPhone(r.Phone, true); !res.IsValid {
		return &FieldError{Field: "phone", Message: res.Error}
	}
	if r.DateOfBirth != "" {
		if res := validation.ValidateAge(r.DateOfBirth, 0, 150); !res.IsValid {
			return &FieldError{Field: "date_of_birth", Message: res.Error}
		}
	}
	return nil
}

// Normalize trims free-text fields and lower-cases the email.
func (r *UpsertPatientRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.Notes = strings.TrimSpace(r.Notes)
}

// ListFilter narrows admin patient listings.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// FieldError is a validation failure tied to a single form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}
