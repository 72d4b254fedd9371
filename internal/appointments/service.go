package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/clinic-platform/internal/auth"
	"github.com/medibook/clinic-platform/internal/doctors"
	"github.com/medibook/clinic-platform/internal/notify"
	"github.com/medibook/clinic-platform/internal/patients"
	"github.com/medibook/clinic-platform/pkg/logging"
)

// ErrProfileRequired indicates the patient has not completed their profile.
var ErrProfileRequired = errors.New("appointments: patient profile required")

// DoctorDirectory is the slice of the doctors package the service depends on.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id string) (*doctors.Doctor, error)
	GetByUserID(ctx context.Context, userID string) (*doctors.Doctor, error)
	GetAvailability(ctx context.Context, doctorID string) ([]doctors.DayAvailability, error)
}

// PatientDirectory is the slice of the patients package the service depends on.
type PatientDirectory interface {
	GetByUserID(ctx context.Context, userID string) (*patients.Patient, error)
}

// Notifier delivers appointment emails. Sends are fire-once; a failed
// delivery is logged and never retried.
type Notifier interface {
	SendAppointmentNotification(ctx context.Context, payload notify.AppointmentNotificationPayload) error
}

// Service implements booking, rescheduling and the status lifecycle.
type Service struct {
	repo       Repository
	doctorDir  DoctorDirectory
	patientDir PatientDirectory
	notifier   Notifier
	logger     *logging.Logger
}

// NewService creates the appointments service.
func NewService(repo Repository, doctorDir DoctorDirectory, patientDir PatientDirectory, notifier Notifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:       repo,
		doctorDir:  doctorDir,
		patientDir: patientDir,
		notifier:   notifier,
		logger:     logger,
	}
}

// AvailableSlots computes a doctor's bookable windows for one date: the
// weekday's schedule cut into slot-sized pieces, with booked starts marked
// unavailable.
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) ([]Slot, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("appointments: invalid date %q", date)
	}

	schedule, err := s.doctorDir.GetAvailability(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	var window *doctors.DayAvailability
	for i := range schedule {
		if schedule[i].Weekday == int(day.Weekday()) {
			window = &schedule[i]
			break
		}
	}
	if window == nil {
		return nil, nil
	}

	booked, err := s.repo.BookedStarts(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, start := range booked {
		taken[start] = true
	}

	start, err := time.Parse("15:04", window.StartTime)
	if err != nil {
		return nil, fmt.Errorf("appointments: bad schedule start %q", window.StartTime)
	}
	end, err := time.Parse("15:04", window.EndTime)
	if err != nil {
		return nil, fmt.Errorf("appointments: bad schedule end %q", window.EndTime)
	}

	step := time.Duration(window.SlotMinutes) * time.Minute
	var slots []Slot
	for cursor := start; !cursor.Add(step).After(end); cursor = cursor.Add(step) {
		from := cursor.Format("15:04")
		slots = append(slots, Slot{
			StartTime: from,
			EndTime:   cursor.Add(step).Format("15:04"),
			Available: !taken[from],
		})
	}
	return slots, nil
}

// Book creates an appointment in a free slot and emails the confirmation.
func (s *Service) Book(ctx context.Context, cred auth.Credential, req *BookRequest) (*Appointment, error) {
	req.Normalize()

	patient, err := s.patientDir.GetByUserID(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			return nil, ErrProfileRequired
		}
		return nil, err
	}

	doctor, err := s.doctorDir.GetByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	endTime, err := s.claimSlot(ctx, doctor.ID, req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:            uuid.NewString(),
		PatientUserID: cred.UserID,
		PatientName:   patient.Name,
		PatientEmail:  patient.Email,
		DoctorID:      doctor.ID,
		DoctorName:    doctor.Name,
		Department:    doctor.Department,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       endTime,
		Status:        StatusScheduled,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.notify(ctx, appt, notify.AppointmentTypeBookingConfirmation)
	s.logger.Info("appointment booked", "appointment_id", appt.ID, "doctor_id", doctor.ID)
	return appt, nil
}

// claimSlot checks the requested start against the doctor's schedule and
// existing bookings, returning the slot's end time.
func (s *Service) claimSlot(ctx context.Context, doctorID, date, startTime string) (string, error) {
	slots, err := s.AvailableSlots(ctx, doctorID, date)
	if err != nil {
		return "", err
	}
	for _, slot := range slots {
		if slot.StartTime != startTime {
			continue
		}
		if !slot.Available {
			return "", ErrSlotTaken
		}
		return slot.EndTime, nil
	}
	return "", ErrSlotUnavailable
}

// Reschedule moves an appointment to a new free slot and emails the update.
func (s *Service) Reschedule(ctx context.Context, cred auth.Credential, id string, req *RescheduleRequest) (*Appointment, error) {
	appt, err := s.authorize(ctx, cred, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	endTime, err := s.claimSlot(ctx, appt.DoctorID, req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}

	appt.Date = req.Date
	appt.StartTime = req.StartTime
	appt.EndTime = endTime
	appt.Status = StatusScheduled
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.notify(ctx, appt, notify.AppointmentTypeReschedule)
	s.logger.Info("appointment rescheduled", "appointment_id", appt.ID)
	return appt, nil
}

// Cancel moves an appointment to cancelled and emails the notice.
func (s *Service) Cancel(ctx context.Context, cred auth.Credential, id string) (*Appointment, error) {
	appt, err := s.transition(ctx, cred, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, appt, notify.AppointmentTypeCancellation)
	return appt, nil
}

// Confirm marks a scheduled appointment as confirmed by the clinic.
func (s *Service) Confirm(ctx context.Context, cred auth.Credential, id string) (*Appointment, error) {
	return s.transition(ctx, cred, id, StatusConfirmed)
}

// Complete closes out a confirmed appointment.
func (s *Service) Complete(ctx context.Context, cred auth.Credential, id string) (*Appointment, error) {
	return s.transition(ctx, cred, id, StatusCompleted)
}

// MarkNoShow records that the patient did not attend.
func (s *Service) MarkNoShow(ctx context.Context, cred auth.Credential, id string) (*Appointment, error) {
	return s.transition(ctx, cred, id, StatusNoShow)
}

func (s *Service) transition(ctx context.Context, cred auth.Credential, id string, next Status) (*Appointment, error) {
	appt, err := s.authorize(ctx, cred, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	appt.Status = next
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.logger.Info("appointment status changed", "appointment_id", appt.ID, "status", next)
	return appt, nil
}

// SendReminder emails a reminder for an active appointment. Staff trigger
// this manually; there is no background scheduler.
func (s *Service) SendReminder(ctx context.Context, cred auth.Credential, id string) error {
	if cred.Role == auth.RolePatient {
		return ErrNotAllowed
	}
	appt, err := s.authorize(ctx, cred, id)
	if err != nil {
		return err
	}
	if appt.Status != StatusScheduled && appt.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	return s.notifier.SendAppointmentNotification(ctx, s.payload(appt, notify.AppointmentTypeReminder))
}

// authorize loads the appointment and checks the caller may act on it.
// Admins see everything, patients and doctors only their own.
func (s *Service) authorize(ctx context.Context, cred auth.Credential, id string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch cred.Role {
	case auth.RoleAdmin:
		return appt, nil
	case auth.RolePatient:
		if appt.PatientUserID != cred.UserID {
			return nil, ErrNotAllowed
		}
		return appt, nil
	case auth.RoleDoctor:
		doctor, err := s.doctorDir.GetByUserID(ctx, cred.UserID)
		if err != nil {
			return nil, ErrNotAllowed
		}
		if appt.DoctorID != doctor.ID {
			return nil, ErrNotAllowed
		}
		return appt, nil
	}
	return nil, ErrNotAllowed
}

// List returns appointments scoped to the caller's role.
func (s *Service) List(ctx context.Context, cred auth.Credential, filter ListFilter) ([]*Appointment, error) {
	switch cred.Role {
	case auth.RolePatient:
		filter.PatientUserID = cred.UserID
		filter.DoctorID = ""
	case auth.RoleDoctor:
		doctor, err := s.doctorDir.GetByUserID(ctx, cred.UserID)
		if err != nil {
			if errors.Is(err, doctors.ErrDoctorNotFound) {
				return nil, nil
			}
			return nil, err
		}
		filter.DoctorID = doctor.ID
		filter.PatientUserID = ""
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// Get returns one appointment if the caller may see it.
func (s *Service) Get(ctx context.Context, cred auth.Credential, id string) (*Appointment, error) {
	return s.authorize(ctx, cred, id)
}

func (s *Service) payload(appt *Appointment, typ notify.AppointmentType) notify.AppointmentNotificationPayload {
	date := appt.Date
	if parsed, err := time.Parse("2006-01-02", appt.Date); err == nil {
		date = parsed.Format("January 2, 2006")
	}
	return notify.AppointmentNotificationPayload{
		Email:         appt.PatientEmail,
		Name:          appt.PatientName,
		Date:          date,
		Time:          appt.StartTime,
		DoctorName:    appt.DoctorName,
		Department:    appt.Department,
		Type:          typ,
		AppointmentID: appt.ID,
		Notes:         appt.Notes,
	}
}

// notify delivers the email for a lifecycle event. Delivery problems are
// logged; the state change already happened and is not rolled back.
func (s *Service) notify(ctx context.Context, appt *Appointment, typ notify.AppointmentType) {
	if err := s.notifier.SendAppointmentNotification(ctx, s.payload(appt, typ)); err != nil {
		s.logger.Error("appointment notification failed",
			"appointment_id", appt.ID,
			"type", typ,
			"error", err,
		)
	}
}
