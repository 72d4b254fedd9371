package notify

import (
	"context"
	"errors"
	"testing"
)

// spyMailer records sends so tests can inspect the transmitted params.
type spyMailer struct {
	calls []spyCall
	err   error
}

type spyCall struct {
	templateID string
	to         Recipient
	params     Params
}

func (s *spyMailer) Send(ctx context.Context, templateID string, to Recipient, params Params) error {
	s.calls = append(s.calls, spyCall{templateID: templateID, to: to, params: params})
	return s.err
}

func newTestDispatcher(mailer Mailer) *Dispatcher {
	return NewDispatcher(mailer, DispatcherConfig{
		Configured: true,
		TemplateA:  "tpl-account",
		TemplateB:  "tpl-appointment",
		BaseURL:    "https://clinic.example.com",
	}, nil, nil)
}

func sendAll(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx := context.Background()

	if err := d.SendVerification(ctx, VerificationPayload{Email: "a@b.com", Name: "Aina", OTPCode: "123456"}); err != nil {
		t.Fatalf("verification: %v", err)
	}
	if err := d.SendPasswordReset(ctx, PasswordResetPayload{Email: "a@b.com", Name: "Aina", TempPassword: "Temp123!"}); err != nil {
		t.Fatalf("password reset: %v", err)
	}
	if err := d.SendSystemNotification(ctx, SystemNotificationPayload{Email: "a@b.com", Name: "Aina", Title: "Maintenance", Message: "Planned downtime", Type: SystemTypeSystem}); err != nil {
		t.Fatalf("system notification: %v", err)
	}
	if err := d.SendAppointmentNotification(ctx, AppointmentNotificationPayload{
		Email: "a@b.com", Name: "Aina", Date: "12 September 2026", Time: "10:30 AM",
		DoctorName: "Dr. Tan", Department: "Cardiology", Type: AppointmentTypeBookingConfirmation,
	}); err != nil {
		t.Fatalf("appointment notification: %v", err)
	}
}

// Every send must carry the complete field set of its bound template, with
// the fields owned by the other logical kind present as empty strings.
func TestDispatcher_ParamCompleteness(t *testing.T) {
	spy := &spyMailer{}
	d := newTestDispatcher(spy)

	sendAll(t, d)

	if len(spy.calls) != 4 {
		t.Fatalf("expected 4 sends, got %d", len(spy.calls))
	}

	templateFor := map[string]Template{
		"tpl-account":     TemplateA,
		"tpl-appointment": TemplateB,
	}

	for i, call := range spy.calls {
		tpl, ok := templateFor[call.templateID]
		if !ok {
			t.Fatalf("call %d: unexpected template id %q", i, call.templateID)
		}
		for _, field := range FieldsFor(tpl) {
			if _, present := call.params[field]; !present {
				t.Errorf("call %d (%s): field %q missing from params", i, call.templateID, field)
			}
		}
		if len(call.params) != len(FieldsFor(tpl)) {
			t.Errorf("call %d (%s): expected %d params, got %d", i, call.templateID, len(FieldsFor(tpl)), len(call.params))
		}
	}

	// Verification must zero out the notification half of TemplateA.
	verification := spy.calls[0].params
	for _, field := range []string{"notification_title", "notification_message", "notification_type_label", "notification_date"} {
		if verification[field] != "" {
			t.Errorf("verification: expected %q empty, got %q", field, verification[field])
		}
	}

	// Password reset must zero out the appointment half of TemplateB.
	reset := spy.calls[1].params
	for _, field := range []string{"appointment_date", "appointment_time", "doctor_name", "department", "appointment_id", "notes", "important_message"} {
		if reset[field] != "" {
			t.Errorf("password reset: expected %q empty, got %q", field, reset[field])
		}
	}
}

func TestDispatcher_TemplateBinding(t *testing.T) {
	spy := &spyMailer{}
	d := newTestDispatcher(spy)

	sendAll(t, d)

	want := []string{"tpl-account", "tpl-appointment", "tpl-account", "tpl-appointment"}
	for i, call := range spy.calls {
		if call.templateID != want[i] {
			t.Errorf("call %d: expected template %q, got %q", i, want[i], call.templateID)
		}
	}
}

func TestDispatcher_EmailNormalization(t *testing.T) {
	spy := &spyMailer{}
	d := newTestDispatcher(spy)

	if err := d.SendPasswordReset(context.Background(), PasswordResetPayload{Email: " Foo@Bar.COM ", Name: "Foo", TempPassword: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.SendPasswordReset(context.Background(), PasswordResetPayload{Email: "foo@bar.com", Name: "Foo", TempPassword: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(spy.calls) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(spy.calls))
	}
	first := spy.calls[0].params["to_email"]
	second := spy.calls[1].params["to_email"]
	if first != "foo@bar.com" || first != second {
		t.Errorf("expected identical normalized to_email, got %q and %q", first, second)
	}
	if spy.calls[0].to.Email != "foo@bar.com" {
		t.Errorf("expected normalized recipient address, got %q", spy.calls[0].to.Email)
	}
}

func TestDispatcher_VisibilityExclusivity(t *testing.T) {
	spy := &spyMailer{}
	d := newTestDispatcher(spy)

	sendAll(t, d)

	verification := spy.calls[0].params
	if verification["show_verification"] != ShowBlock || verification["show_notification"] != ShowNone {
		t.Errorf("verification flags wrong: show_verification=%q show_notification=%q",
			verification["show_verification"], verification["show_notification"])
	}
	if verification["show_action_button"] != ShowInlineBlock {
		t.Errorf("verification: expected action button %q, got %q", ShowInlineBlock, verification["show_action_button"])
	}

	system := spy.calls[2].params
	if system["show_verification"] != ShowNone || system["show_notification"] != ShowBlock {
		t.Errorf("system flags wrong: show_verification=%q show_notification=%q",
			system["show_verification"], system["show_notification"])
	}

	reset := spy.calls[1].params
	if reset["show_password"] != ShowBlock || reset["show_appointment"] != ShowNone {
		t.Errorf("password reset flags wrong: show_password=%q show_appointment=%q",
			reset["show_password"], reset["show_appointment"])
	}

	appt := spy.calls[3].params
	if appt["show_password"] != ShowNone || appt["show_appointment"] != ShowBlock {
		t.Errorf("appointment flags wrong: show_password=%q show_appointment=%q",
			appt["show_password"], appt["show_appointment"])
	}
}

func TestDispatcher_AppointmentTypeLabels(t *testing.T) {
	cases := []struct {
		typ             AppointmentType
		label           string
		secondaryAction string
	}{
		{AppointmentTypeBookingConfirmation, "Appointment Confirmed", ShowInlineBlock},
		{AppointmentTypeReminder, "Appointment Reminder", ShowInlineBlock},
		{AppointmentTypeCancellation, "Appointment Cancelled", ShowNone},
		{AppointmentTypeReschedule, "Appointment Rescheduled", ShowNone},
	}

	for _, tc := range cases {
		spy := &spyMailer{}
		d := newTestDispatcher(spy)

		err := d.SendAppointmentNotification(context.Background(), AppointmentNotificationPayload{
			Email: "p@example.com", Name: "P", Date: "1 October 2026", Time: "9:00 AM",
			DoctorName: "Dr. Lim", Department: "Dermatology", Type: tc.typ,
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.typ, err)
		}

		params := spy.calls[0].params
		if params["notification_type_label"] != tc.label {
			t.Errorf("%s: expected label %q, got %q", tc.typ, tc.label, params["notification_type_label"])
		}
		if params["show_secondary_action"] != tc.secondaryAction {
			t.Errorf("%s: expected show_secondary_action %q, got %q", tc.typ, tc.secondaryAction, params["show_secondary_action"])
		}
		if params["important_message"] == "" {
			t.Errorf("%s: expected non-empty important_message", tc.typ)
		}
	}
}

func TestDispatcher_AppointmentNotesVisibility(t *testing.T) {
	spy := &spyMailer{}
	d := newTestDispatcher(spy)

	payload := AppointmentNotificationPayload{
		Email: "p@example.com", Name: "P", Date: "1 October 2026", Time: "9:00 AM",
		DoctorName: "Dr. Lim", Department: "Dermatology", Type: AppointmentTypeReminder,
	}

	if err := d.SendAppointmentNotification(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := spy.calls[0].params["show_notes"]; got != ShowNone {
		t.Errorf("expected show_notes %q without notes, got %q", ShowNone, got)
	}

	payload.Notes = "Please fast for 8 hours before the appointment."
	if err := d.SendAppointmentNotification(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withNotes := spy.calls[1].params
	if withNotes["show_notes"] != ShowBlock {
		t.Errorf("expected show_notes %q with notes, got %q", ShowBlock, withNotes["show_notes"])
	}
	if withNotes["notes"] != payload.Notes {
		t.Errorf("expected notes carried through, got %q", withNotes["notes"])
	}
}

func TestDispatcher_SystemTypeLabels(t *testing.T) {
	cases := map[SystemType]string{
		SystemTypeSystem:      "System Notification",
		SystemTypeReminder:    "Reminder",
		SystemTypeMessage:     "New Message",
		SystemTypeAppointment: "Appointment Update",
		SystemType("bogus"):   "System Notification", // defensive fallback
	}

	for typ, want := range cases {
		spy := &spyMailer{}
		d := newTestDispatcher(spy)

		err := d.SendSystemNotification(context.Background(), SystemNotificationPayload{
			Email: "p@example.com", Name: "P", Title: "T", Message: "M", Type: typ,
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", typ, err)
		}
		if got := spy.calls[0].params["notification_type_label"]; got != want {
			t.Errorf("%s: expected label %q, got %q", typ, want, got)
		}
	}
}

func TestDispatcher_SystemDateDefault(t *testing.T) {
	spy := &spyMailer{}
	d := newTestDispatcher(spy)

	if err := d.SendSystemNotification(context.Background(), SystemNotificationPayload{
		Email: "p@example.com", Name: "P", Title: "T", Message: "M", Type: SystemTypeMessage,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spy.calls[0].params["notification_date"] == "" {
		t.Error("expected notification_date defaulted when omitted")
	}

	if err := d.SendSystemNotification(context.Background(), SystemNotificationPayload{
		Email: "p@example.com", Name: "P", Title: "T", Message: "M", Type: SystemTypeMessage, Date: "1 January 2026",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := spy.calls[1].params["notification_date"]; got != "1 January 2026" {
		t.Errorf("expected caller-supplied date kept, got %q", got)
	}
}

func TestDispatcher_ResetLinkDefault(t *testing.T) {
	spy := &spyMailer{}
	d := newTestDispatcher(spy)

	if err := d.SendPasswordReset(context.Background(), PasswordResetPayload{Email: "p@example.com", Name: "P", TempPassword: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := spy.calls[0].params["reset_link"]; got != "https://clinic.example.com/login" {
		t.Errorf("expected default reset link, got %q", got)
	}

	if err := d.SendPasswordReset(context.Background(), PasswordResetPayload{
		Email: "p@example.com", Name: "P", TempPassword: "x", ResetLink: "https://clinic.example.com/reset?t=abc",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := spy.calls[1].params["reset_link"]; got != "https://clinic.example.com/reset?t=abc" {
		t.Errorf("expected explicit reset link kept, got %q", got)
	}
}

// When the delivery config is incomplete, every operation must fail with a
// configuration error without the transport ever being invoked.
func TestDispatcher_ConfigGate(t *testing.T) {
	spy := &spyMailer{}
	d := NewDispatcher(spy, DispatcherConfig{
		Configured: false,
		TemplateA:  "tpl-account",
		TemplateB:  "tpl-appointment",
		BaseURL:    "https://clinic.example.com",
	}, nil, nil)

	ctx := context.Background()
	sends := []func() error{
		func() error {
			return d.SendVerification(ctx, VerificationPayload{Email: "a@b.com", Name: "A", OTPCode: "1"})
		},
		func() error {
			return d.SendPasswordReset(ctx, PasswordResetPayload{Email: "a@b.com", Name: "A", TempPassword: "x"})
		},
		func() error {
			return d.SendSystemNotification(ctx, SystemNotificationPayload{Email: "a@b.com", Name: "A", Title: "T", Message: "M", Type: SystemTypeSystem})
		},
		func() error {
			return d.SendAppointmentNotification(ctx, AppointmentNotificationPayload{Email: "a@b.com", Name: "A", Type: AppointmentTypeReminder})
		},
	}

	for i, send := range sends {
		err := send()
		if err == nil {
			t.Fatalf("send %d: expected error when unconfigured", i)
		}
		if !IsClass(err, FailureConfiguration) {
			t.Errorf("send %d: expected configuration failure, got %v", i, err)
		}
	}
	if len(spy.calls) != 0 {
		t.Errorf("expected transport never invoked, got %d calls", len(spy.calls))
	}
}

func TestDispatcher_EmptyRecipientValidation(t *testing.T) {
	spy := &spyMailer{}
	d := newTestDispatcher(spy)

	err := d.SendPasswordReset(context.Background(), PasswordResetPayload{Email: "   ", Name: "A", TempPassword: "x"})
	if err == nil {
		t.Fatal("expected error for blank recipient")
	}
	if !IsClass(err, FailureValidation) {
		t.Errorf("expected validation failure, got %v", err)
	}
	if len(spy.calls) != 0 {
		t.Errorf("expected transport never invoked, got %d calls", len(spy.calls))
	}
}

func TestDispatcher_TransportErrorClassification(t *testing.T) {
	spy := &spyMailer{err: errors.New("quota exceeded")}
	d := newTestDispatcher(spy)

	err := d.SendVerification(context.Background(), VerificationPayload{Email: "a@b.com", Name: "A", OTPCode: "1"})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !IsClass(err, FailureTransport) {
		t.Errorf("expected transport failure, got %v", err)
	}

	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatal("expected *SendError")
	}
	if sendErr.Kind != KindVerification {
		t.Errorf("expected kind %q, got %q", KindVerification, sendErr.Kind)
	}
	if sendErr.Recipient == "a@b.com" {
		t.Error("expected recipient to be masked in error")
	}
	if !errors.Is(err, spy.err) {
		t.Error("expected underlying transport error wrapped")
	}

	// One transport attempt only; sends are never retried.
	if len(spy.calls) != 1 {
		t.Errorf("expected exactly 1 transport call, got %d", len(spy.calls))
	}
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"alice@example.com": "al***@example.com",
		"ab@example.com":    "a***@example.com",
		"a@example.com":     "a***@example.com",
		"not-an-email":      "***",
		"":                  "***",
	}
	for in, want := range cases {
		if got := maskEmail(in); got != want {
			t.Errorf("maskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
