package appointments

import (
	"strings"
	"time"
)

// Status tracks an appointment through its lifecycle.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// validTransitions maps a status to the statuses it may move to.
var validTransitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// CanTransitionTo reports whether the status change is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Appointment is a booked consultation slot.
type Appointment struct {
	ID            string    `json:"id"`
	PatientUserID string    `json:"patient_user_id"`
	PatientName   string    `json:"patient_name"`
	PatientEmail  string    `json:"patient_email"`
	DoctorID      string    `json:"doctor_id"`
	DoctorName    string    `json:"doctor_name"`
	Department    string    `json:"department"`
	Date          string    `json:"date"`       // YYYY-MM-DD
	StartTime     string    `json:"start_time"` // HH:MM
	EndTime       string    `json:"end_time"`   // HH:MM
	Status        Status    `json:"status"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookRequest creates a new appointment in a free slot.
type BookRequest struct {
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Notes     string `json:"notes"`
}

// Normalize trims the request fields.
func (r *BookRequest) Normalize() {
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.Date = strings.TrimSpace(r.Date)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.Notes = strings.TrimSpace(r.Notes)
}

// RescheduleRequest moves an appointment to a different free slot.
type RescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

// Slot is one bookable window on a doctor's calendar.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

// ListFilter narrows appointment listings. Role scoping fills PatientUserID
// or DoctorID before the query runs.
type ListFilter struct {
	PatientUserID string
	DoctorID      string
	Status        Status
	Date          string
	Limit         int
	Offset        int
}
