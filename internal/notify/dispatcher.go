package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/medibook/clinic-platform/internal/observability/metrics"
	"github.com/medibook/clinic-platform/pkg/logging"
)

// SystemType is the closed set of system notification types.
type SystemType string

const (
	SystemTypeSystem      SystemType = "system"
	SystemTypeReminder    SystemType = "reminder"
	SystemTypeMessage     SystemType = "message"
	SystemTypeAppointment SystemType = "appointment"
)

// AppointmentType is the closed set of appointment notification types.
type AppointmentType string

const (
	AppointmentTypeBookingConfirmation AppointmentType = "booking_confirmation"
	AppointmentTypeReminder            AppointmentType = "reminder"
	AppointmentTypeCancellation        AppointmentType = "cancellation"
	AppointmentTypeReschedule          AppointmentType = "reschedule"
)

// VerificationPayload carries the fields for an email-verification send.
type VerificationPayload struct {
	Email   string
	Name    string
	OTPCode string
}

// PasswordResetPayload carries the fields for a password-reset send.
type PasswordResetPayload struct {
	Email        string
	Name         string
	TempPassword string
	ResetLink    string // defaults to the login page when empty
}

// SystemNotificationPayload carries the fields for a system notification.
type SystemNotificationPayload struct {
	Email   string
	Name    string
	Title   string
	Message string
	Type    SystemType
	Date    string // defaults to today when empty
}

// AppointmentNotificationPayload carries the fields for an appointment
// notification.
type AppointmentNotificationPayload struct {
	Email         string
	Name          string
	Date          string
	Time          string
	DoctorName    string
	Department    string
	Type          AppointmentType
	AppointmentID string
	Notes         string
}

// DispatcherConfig binds the dispatcher to the two registered templates.
type DispatcherConfig struct {
	// Configured reports whether both required delivery values (service
	// key and sender address) are present. When false every send returns
	// a configuration failure without touching the transport.
	Configured bool
	TemplateA  string
	TemplateB  string
	// BaseURL is the public web app base used for action links.
	BaseURL string
}

// Dispatcher maps the four logical notification kinds onto the two physical
// templates. It is the only place that knows the full field superset of each
// template and zeroes out the unused half on every send.
type Dispatcher struct {
	mailer  Mailer
	cfg     DispatcherConfig
	logger  *logging.Logger
	metrics *metrics.NotificationMetrics
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(mailer Mailer, cfg DispatcherConfig, logger *logging.Logger, m *metrics.NotificationMetrics) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		mailer:  mailer,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// SendVerification sends the email-verification OTP. Bound to TemplateA with
// the verification section visible and the notification section hidden.
func (d *Dispatcher) SendVerification(ctx context.Context, payload VerificationPayload) error {
	email, err := d.checkSend(KindVerification, payload.Email)
	if err != nil {
		return err
	}

	params := baseParams(TemplateA)
	params["to_email"] = email
	params["to_name"] = payload.Name
	params["show_verification"] = ShowBlock
	params["show_notification"] = ShowNone
	params["show_action_button"] = ShowInlineBlock
	params["otp_code"] = payload.OTPCode
	params["action_link"] = d.cfg.BaseURL + "/verify-email"
	params["action_text"] = "Verify Email"
	params["instruction_text"] = "Enter this code on the verification page to activate your account. The code expires shortly, so please use it right away."

	return d.deliver(ctx, KindVerification, TemplateA, email, payload.Name, params)
}

// SendPasswordReset sends the temporary password. Bound to TemplateB with the
// password section visible and the appointment section hidden.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, payload PasswordResetPayload) error {
	email, err := d.checkSend(KindPasswordReset, payload.Email)
	if err != nil {
		return err
	}

	resetLink := payload.ResetLink
	if resetLink == "" {
		resetLink = d.cfg.BaseURL + "/login"
	}

	params := baseParams(TemplateB)
	params["to_email"] = email
	params["to_name"] = payload.Name
	params["show_password"] = ShowBlock
	params["show_appointment"] = ShowNone
	params["temp_password"] = payload.TempPassword
	params["reset_link"] = resetLink

	return d.deliver(ctx, KindPasswordReset, TemplateB, email, payload.Name, params)
}

// SendSystemNotification sends a general notification. Bound to TemplateA
// with the visibility flags inverted relative to verification sends.
func (d *Dispatcher) SendSystemNotification(ctx context.Context, payload SystemNotificationPayload) error {
	email, err := d.checkSend(KindSystem, payload.Email)
	if err != nil {
		return err
	}

	date := payload.Date
	if date == "" {
		date = time.Now().Format("January 2, 2006")
	}

	params := baseParams(TemplateA)
	params["to_email"] = email
	params["to_name"] = payload.Name
	params["show_verification"] = ShowNone
	params["show_notification"] = ShowBlock
	params["show_action_button"] = ShowNone
	params["notification_title"] = payload.Title
	params["notification_message"] = payload.Message
	params["notification_type_label"] = systemTypeLabel(payload.Type)
	params["notification_date"] = date

	return d.deliver(ctx, KindSystem, TemplateA, email, payload.Name, params)
}

// SendAppointmentNotification sends a booking/reminder/cancellation/
// reschedule email. Bound to TemplateB with the appointment section visible.
func (d *Dispatcher) SendAppointmentNotification(ctx context.Context, payload AppointmentNotificationPayload) error {
	email, err := d.checkSend(KindAppointment, payload.Email)
	if err != nil {
		return err
	}

	label, important, secondaryAction := appointmentCopy(payload.Type)

	params := baseParams(TemplateB)
	params["to_email"] = email
	params["to_name"] = payload.Name
	params["show_password"] = ShowNone
	params["show_appointment"] = ShowBlock
	params["appointment_date"] = payload.Date
	params["appointment_time"] = payload.Time
	params["doctor_name"] = payload.DoctorName
	params["department"] = payload.Department
	params["appointment_id"] = payload.AppointmentID
	params["notification_type_label"] = label
	params["important_message"] = important

	if secondaryAction {
		params["show_secondary_action"] = ShowInlineBlock
		params["secondary_action_link"] = d.cfg.BaseURL + "/appointments"
	}
	if strings.TrimSpace(payload.Notes) != "" {
		params["show_notes"] = ShowBlock
		params["notes"] = payload.Notes
	}

	return d.deliver(ctx, KindAppointment, TemplateB, email, payload.Name, params)
}

// checkSend applies the config gate and recipient validation shared by all
// four operations, and returns the normalized address.
func (d *Dispatcher) checkSend(kind Kind, email string) (string, error) {
	if !d.cfg.Configured {
		d.metrics.ObserveSend(string(kind), "configuration_error")
		return "", configurationError(kind, email)
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		d.metrics.ObserveSend(string(kind), "validation_error")
		return "", validationError(kind, email, errors.New("recipient email is empty"))
	}
	return normalized, nil
}

func (d *Dispatcher) deliver(ctx context.Context, kind Kind, tpl Template, email, name string, params Params) error {
	templateID := d.cfg.TemplateA
	if tpl == TemplateB {
		templateID = d.cfg.TemplateB
	}

	if err := d.mailer.Send(ctx, templateID, Recipient{Email: email, Name: name}, params); err != nil {
		d.metrics.ObserveSend(string(kind), "transport_error")
		d.logger.Error("notification send failed", "kind", kind, "to", maskEmail(email), "error", err)
		return transportError(kind, email, err)
	}

	d.metrics.ObserveSend(string(kind), "sent")
	d.logger.Info("notification sent", "kind", kind, "to", maskEmail(email))
	return nil
}
