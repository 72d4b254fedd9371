package appointments

import "errors"

var (
	// ErrAppointmentNotFound indicates no appointment matches the id.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")
	// ErrSlotTaken indicates the requested slot is already booked.
	ErrSlotTaken = errors.New("appointments: slot already booked")
	// ErrSlotUnavailable indicates the slot is outside the doctor's schedule.
	ErrSlotUnavailable = errors.New("appointments: slot outside doctor availability")
	// ErrInvalidTransition indicates a forbidden status change.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")
	// ErrNotAllowed indicates the caller does not own the appointment.
	ErrNotAllowed = errors.New("appointments: not allowed")
)
