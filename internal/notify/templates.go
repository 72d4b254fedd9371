package notify

// Params is the flat string parameter map handed to the template renderer.
// The renderer treats a missing key as a literal unresolved placeholder, so
// every send must carry the complete field set of its physical template.
type Params map[string]string

// Template identifies one of the two templates registered with the email
// provider. Each is shared by two logical notification kinds: TemplateA by
// email verification and system notifications, TemplateB by password resets
// and appointment notifications.
type Template int

const (
	TemplateA Template = iota
	TemplateB
)

// Section visibility tokens. The templates use these as CSS display values
// in their conditional blocks.
const (
	ShowBlock       = "block"
	ShowInlineBlock = "inline-block"
	ShowNone        = "none"
)

// templateAFields is every field TemplateA references, across both of its
// logical uses. Order is not significant.
var templateAFields = []string{
	"to_email",
	"to_name",
	"show_verification",
	"show_notification",
	"show_action_button",
	"otp_code",
	"action_link",
	"action_text",
	"instruction_text",
	"notification_title",
	"notification_message",
	"notification_type_label",
	"notification_date",
}

// templateBFields is every field TemplateB references, across both of its
// logical uses.
var templateBFields = []string{
	"to_email",
	"to_name",
	"show_password",
	"show_appointment",
	"show_notes",
	"show_secondary_action",
	"temp_password",
	"reset_link",
	"appointment_date",
	"appointment_time",
	"doctor_name",
	"department",
	"appointment_id",
	"notes",
	"notification_type_label",
	"important_message",
	"secondary_action_link",
}

// FieldsFor returns the full field set of a physical template.
func FieldsFor(tpl Template) []string {
	switch tpl {
	case TemplateA:
		return templateAFields
	default:
		return templateBFields
	}
}

// baseParams returns a param map with every field of the template present
// and empty, with visibility flags defaulted to hidden. Builders overwrite
// only the fields their kind owns, so the unused half stays zeroed instead
// of missing.
func baseParams(tpl Template) Params {
	params := make(Params, len(templateBFields))
	for _, field := range FieldsFor(tpl) {
		params[field] = ""
	}
	switch tpl {
	case TemplateA:
		params["show_verification"] = ShowNone
		params["show_notification"] = ShowNone
		params["show_action_button"] = ShowNone
	case TemplateB:
		params["show_password"] = ShowNone
		params["show_appointment"] = ShowNone
		params["show_notes"] = ShowNone
		params["show_secondary_action"] = ShowNone
	}
	return params
}

// systemTypeLabels is the closed mapping from system notification types to
// the human-readable label rendered in the email header.
var systemTypeLabels = map[SystemType]string{
	SystemTypeSystem:      "System Notification",
	SystemTypeReminder:    "Reminder",
	SystemTypeMessage:     "New Message",
	SystemTypeAppointment: "Appointment Update",
}

// systemTypeLabel resolves the label for a system notification type.
// Unknown values fall back to the system label; the enum is closed, so an
// unknown value is a caller contract violation.
func systemTypeLabel(t SystemType) string {
	if label, ok := systemTypeLabels[t]; ok {
		return label
	}
	return systemTypeLabels[SystemTypeSystem]
}

// appointmentTypeLabels is the closed mapping from appointment notification
// types to the rendered label.
var appointmentTypeLabels = map[AppointmentType]string{
	AppointmentTypeBookingConfirmation: "Appointment Confirmed",
	AppointmentTypeReminder:            "Appointment Reminder",
	AppointmentTypeCancellation:        "Appointment Cancelled",
	AppointmentTypeReschedule:          "Appointment Rescheduled",
}

// appointmentCopy returns the label and the fixed important-message copy for
// an appointment notification type, plus whether the secondary action button
// is shown.
func appointmentCopy(t AppointmentType) (label, important string, secondaryAction bool) {
	switch t {
	case AppointmentTypeBookingConfirmation:
		return appointmentTypeLabels[t],
			"Your appointment has been confirmed. Please arrive 15 minutes early and bring your identification document.",
			true
	case AppointmentTypeReminder:
		return appointmentTypeLabels[t],
			"This is a reminder for your upcoming appointment. Please arrive 15 minutes early.",
			true
	case AppointmentTypeCancellation:
		return appointmentTypeLabels[t],
			"Your appointment has been cancelled. If you did not request this, please contact the clinic.",
			false
	case AppointmentTypeReschedule:
		return appointmentTypeLabels[t],
			"Your appointment has been rescheduled to the date and time shown above.",
			false
	default:
		// Closed enum; reaching this is a caller contract violation.
		return appointmentTypeLabels[AppointmentTypeBookingConfirmation],
			"Your appointment has been confirmed. Please arrive 15 minutes early and bring your identification document.",
			true
	}
}
