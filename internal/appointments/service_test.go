package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/clinic-platform/internal/auth"
	"github.com/medibook/clinic-platform/internal/doctors"
	"github.com/medibook/clinic-platform/internal/notify"
	"github.com/medibook/clinic-platform/internal/patients"
)

type spyNotifier struct {
	payloads []notify.AppointmentNotificationPayload
	sendErr  error
}

func (n *spyNotifier) SendAppointmentNotification(ctx context.Context, payload notify.AppointmentNotificationPayload) error {
	n.payloads = append(n.payloads, payload)
	return n.sendErr
}

type fixture struct {
	service    *Service
	repo       *InMemoryRepository
	doctorRepo *doctors.InMemoryRepository
	notifier   *spyNotifier
	doctor     *doctors.Doctor
	patient    auth.Credential
	doctorCred auth.Credential
	admin      auth.Credential
	date       string
}

// testDate is far enough out that its weekday is derived, not assumed.
const testDate = "2026-09-07"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	doctorRepo := doctors.NewInMemoryRepository()
	doctor, err := doctorRepo.Upsert(ctx, "doc-user", &doctors.UpsertDoctorRequest{
		Name:            "Farah Lim",
		Email:           "farah@example.com",
		Department:      "Cardiology",
		ConsultationFee: "150",
	})
	require.NoError(t, err)

	day, err := time.Parse("2006-01-02", testDate)
	require.NoError(t, err)
	require.NoError(t, doctorRepo.SetAvailability(ctx, doctor.ID, []doctors.DayAvailability{
		{Weekday: int(day.Weekday()), StartTime: "09:00", EndTime: "11:00", SlotMinutes: 30},
	}))

	patientRepo := patients.NewInMemoryRepository()
	_, err = patientRepo.Upsert(ctx, "pat-user", &patients.UpsertPatientRequest{
		Name:  "Aina Rahman",
		Email: "aina@example.com",
		Phone: "012-345 6789",
	})
	require.NoError(t, err)

	repo := NewInMemoryRepository()
	notifier := &spyNotifier{}
	return &fixture{
		service:    NewService(repo, doctorRepo, patientRepo, notifier, nil),
		repo:       repo,
		doctorRepo: doctorRepo,
		notifier:   notifier,
		doctor:     doctor,
		patient:    auth.Credential{UserID: "pat-user", Email: "aina@example.com", Role: auth.RolePatient},
		doctorCred: auth.Credential{UserID: "doc-user", Email: "farah@example.com", Role: auth.RoleDoctor},
		admin:      auth.Credential{UserID: "adm-user", Email: "admin@example.com", Role: auth.RoleAdmin},
		date:       testDate,
	}
}

func (f *fixture) book(t *testing.T, startTime string) *Appointment {
	t.Helper()
	appt, err := f.service.Book(context.Background(), f.patient, &BookRequest{
		DoctorID:  f.doctor.ID,
		Date:      f.date,
		StartTime: startTime,
	})
	require.NoError(t, err)
	return appt
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)

	slots, err := f.service.AvailableSlots(context.Background(), f.doctor.ID, f.date)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "09:30", slots[0].EndTime)
	assert.Equal(t, "10:30", slots[3].StartTime)
	for _, slot := range slots {
		assert.True(t, slot.Available)
	}

	f.book(t, "09:30")

	slots, err = f.service.AvailableSlots(context.Background(), f.doctor.ID, f.date)
	require.NoError(t, err)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
}

func TestAvailableSlots_OffDay(t *testing.T) {
	f := newFixture(t)

	day, _ := time.Parse("2006-01-02", f.date)
	offDay := day.AddDate(0, 0, 1).Format("2006-01-02")
	slots, err := f.service.AvailableSlots(context.Background(), f.doctor.ID, offDay)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestBook(t *testing.T) {
	f := newFixture(t)

	appt := f.book(t, "09:00")

	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, "09:30", appt.EndTime)
	assert.Equal(t, "Farah Lim", appt.DoctorName)
	assert.Equal(t, "Cardiology", appt.Department)

	require.Len(t, f.notifier.payloads, 1)
	payload := f.notifier.payloads[0]
	assert.Equal(t, notify.AppointmentTypeBookingConfirmation, payload.Type)
	assert.Equal(t, "aina@example.com", payload.Email)
	assert.Equal(t, "September 7, 2026", payload.Date)
	assert.Equal(t, "09:00", payload.Time)
	assert.Equal(t, appt.ID, payload.AppointmentID)
}

func TestBook_TakenSlot(t *testing.T) {
	f := newFixture(t)
	f.book(t, "09:00")

	_, err := f.service.Book(context.Background(), f.patient, &BookRequest{
		DoctorID:  f.doctor.ID,
		Date:      f.date,
		StartTime: "09:00",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBook_OutsideSchedule(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Book(context.Background(), f.patient, &BookRequest{
		DoctorID:  f.doctor.ID,
		Date:      f.date,
		StartTime: "20:00",
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBook_RequiresProfile(t *testing.T) {
	f := newFixture(t)

	noProfile := auth.Credential{UserID: "stranger", Email: "s@example.com", Role: auth.RolePatient}
	_, err := f.service.Book(context.Background(), noProfile, &BookRequest{
		DoctorID:  f.doctor.ID,
		Date:      f.date,
		StartTime: "09:00",
	})
	assert.ErrorIs(t, err, ErrProfileRequired)
}

func TestBook_SurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.sendErr = errors.New("transport down")

	appt := f.book(t, "09:00")

	stored, err := f.repo.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, stored.Status)
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, "09:00")

	moved, err := f.service.Reschedule(context.Background(), f.patient, appt.ID, &RescheduleRequest{
		Date:      f.date,
		StartTime: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "10:00", moved.StartTime)
	assert.Equal(t, "10:30", moved.EndTime)

	require.Len(t, f.notifier.payloads, 2)
	assert.Equal(t, notify.AppointmentTypeReschedule, f.notifier.payloads[1].Type)

	// The old slot is free again.
	slots, err := f.service.AvailableSlots(context.Background(), f.doctor.ID, f.date)
	require.NoError(t, err)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[2].Available)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, "09:00")

	cancelled, err := f.service.Cancel(context.Background(), f.patient, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	require.Len(t, f.notifier.payloads, 2)
	assert.Equal(t, notify.AppointmentTypeCancellation, f.notifier.payloads[1].Type)

	// Cancelled slots can be rebooked.
	slots, err := f.service.AvailableSlots(context.Background(), f.doctor.ID, f.date)
	require.NoError(t, err)
	assert.True(t, slots[0].Available)
}

func TestCancel_OtherPatientForbidden(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, "09:00")

	other := auth.Credential{UserID: "other", Email: "o@example.com", Role: auth.RolePatient}
	_, err := f.service.Cancel(context.Background(), other, appt.ID)
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, "09:00")

	// A scheduled appointment cannot be completed directly.
	_, err := f.service.Complete(context.Background(), f.doctorCred, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	confirmed, err := f.service.Confirm(context.Background(), f.doctorCred, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	// Confirming sends no email; only booking did.
	assert.Len(t, f.notifier.payloads, 1)

	completed, err := f.service.Complete(context.Background(), f.doctorCred, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	// Completed is terminal.
	_, err = f.service.Cancel(context.Background(), f.admin, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, "09:00")

	marked, err := f.service.MarkNoShow(context.Background(), f.doctorCred, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, marked.Status)
}

func TestSendReminder(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, "09:00")

	require.NoError(t, f.service.SendReminder(context.Background(), f.doctorCred, appt.ID))
	require.Len(t, f.notifier.payloads, 2)
	assert.Equal(t, notify.AppointmentTypeReminder, f.notifier.payloads[1].Type)

	// Patients cannot trigger reminders.
	err := f.service.SendReminder(context.Background(), f.patient, appt.ID)
	assert.ErrorIs(t, err, ErrNotAllowed)

	// Terminal appointments get no reminders.
	_, err = f.service.Cancel(context.Background(), f.admin, appt.ID)
	require.NoError(t, err)
	err = f.service.SendReminder(context.Background(), f.admin, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestList_RoleScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "09:00")
	f.book(t, "09:30")

	// An appointment with a different doctor, same patient.
	otherDoctor, err := f.doctorRepo.Upsert(ctx, "doc-2", &doctors.UpsertDoctorRequest{
		Name:            "Gan Wei",
		Email:           "gan@example.com",
		Department:      "Dermatology",
		ConsultationFee: "100",
	})
	require.NoError(t, err)
	day, _ := time.Parse("2006-01-02", f.date)
	require.NoError(t, f.doctorRepo.SetAvailability(ctx, otherDoctor.ID, []doctors.DayAvailability{
		{Weekday: int(day.Weekday()), StartTime: "14:00", EndTime: "16:00", SlotMinutes: 60},
	}))
	_, err = f.service.Book(ctx, f.patient, &BookRequest{
		DoctorID:  otherDoctor.ID,
		Date:      f.date,
		StartTime: "14:00",
	})
	require.NoError(t, err)

	patientAppts, err := f.service.List(ctx, f.patient, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, patientAppts, 3)

	doctorAppts, err := f.service.List(ctx, f.doctorCred, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, doctorAppts, 2)
	for _, a := range doctorAppts {
		assert.Equal(t, f.doctor.ID, a.DoctorID)
	}

	adminAppts, err := f.service.List(ctx, f.admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, adminAppts, 3)

	// Doctors without a profile see nothing rather than everything.
	ghostDoctor := auth.Credential{UserID: "ghost-doc", Email: "g@example.com", Role: auth.RoleDoctor}
	ghostAppts, err := f.service.List(ctx, ghostDoctor, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, ghostAppts)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusScheduled.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusScheduled.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusScheduled.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusScheduled.IsTerminal())
}
