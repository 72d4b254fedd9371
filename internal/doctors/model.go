package doctors

import (
	"strconv"
	"strings"
	"time"

	"github.com/medibook/clinic-platform/internal/validation"
)

// Doctor is the profile attached to a doctor account.
type Doctor struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Department      string    `json:"department"`
	Bio             string    `json:"bio"`
	ConsultationFee float64   `json:"consultation_fee"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DayAvailability is one weekday's working window. Times are "HH:MM" in the
// clinic's local time; Weekday follows time.Weekday (0 = Sunday).
type DayAvailability struct {
	Weekday     int    `json:"weekday"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	SlotMinutes int    `json:"slot_minutes"`
}

// UpsertDoctorRequest creates or replaces a doctor profile. The fee arrives as
// the raw form string so the shared number validator owns its error messages.
type UpsertDoctorRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Department      string `json:"department"`
	Bio             string `json:"bio"`
	ConsultationFee string `json:"consultation_fee"`
}

// Validate applies the shared field validators.
func (r *UpsertDoctorRequest) Validate() error {
	if res := validation.ValidateName(r.Name); !res.IsValid {
		return &FieldError{Field: "name", Message: res.Error}
	}
	if res := validation.ValidateEmail(r.Email); !res.IsValid {
		return &FieldError{Field: "email", Message: res.Error}
	}
	if res := validation.ValidateMalaysiaPhone(r.Phone, false); !res.IsValid {
		return &FieldError{Field: "phone", Message: res.Error}
	}
	if strings.TrimSpace(r.Department) == "" {
		return &FieldError{Field: "department", Message: "Department is required"}
	}
	if res := validation.ValidateNumber(r.ConsultationFee, 0, 100000, "Consultation fee", true, true); !res.IsValid {
		return &FieldError{Field: "consultation_fee", Message: res.Error}
	}
	return nil
}

// Fee parses the validated consultation fee.
func (r *UpsertDoctorRequest) Fee() float64 {
	fee, _ := strconv.ParseFloat(strings.TrimSpace(r.ConsultationFee), 64)
	return fee
}

// Normalize trims free-text fields and lower-cases the email.
func (r *UpsertDoctorRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Department = strings.TrimSpace(r.Department)
	r.Bio = strings.TrimSpace(r.Bio)
}

// SetAvailabilityRequest replaces the weekly schedule.
type SetAvailabilityRequest struct {
	Days []DayAvailability `json:"days"`
}

// Validate checks each day's window and slot size.
func (r *SetAvailabilityRequest) Validate() error {
	seen := make(map[int]bool)
	for _, day := range r.Days {
		if day.Weekday < 0 || day.Weekday > 6 {
			return &FieldError{Field: "weekday", Message: "Weekday must be between 0 and 6"}
		}
		if seen[day.Weekday] {
			return &FieldError{Field: "weekday", Message: "Duplicate weekday in schedule"}
		}
		seen[day.Weekday] = true

		start, err := parseClock(day.StartTime)
		if err != nil {
			return &FieldError{Field: "start_time", Message: "Time must be in HH:MM format"}
		}
		end, err := parseClock(day.EndTime)
		if err != nil {
			return &FieldError{Field: "end_time", Message: "Time must be in HH:MM format"}
		}
		if !end.After(start) {
			return &FieldError{Field: "end_time", Message: "End time must be after start time"}
		}
		if day.SlotMinutes < 5 || day.SlotMinutes > 240 {
			return &FieldError{Field: "slot_minutes", Message: "Slot duration must be between 5 and 240 minutes"}
		}
	}
	return nil
}

func parseClock(value string) (time.Time, error) {
	return time.Parse("15:04", strings.TrimSpace(value))
}

// ListFilter narrows doctor listings.
type ListFilter struct {
	Department string
	Limit      int
	Offset     int
}

// FieldError is a validation failure tied to a single form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}
