package notify

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the logical notification kind being sent.
type Kind string

const (
	KindVerification  Kind = "email_verification"
	KindPasswordReset Kind = "password_reset"
	KindSystem        Kind = "system_notification"
	KindAppointment   Kind = "appointment_notification"
)

// FailureClass classifies why a send failed.
type FailureClass string

const (
	// FailureConfiguration means the required delivery configuration is
	// incomplete; the transport was never called.
	FailureConfiguration FailureClass = "configuration"
	// FailureValidation means the recipient was rejected before the
	// transport was called.
	FailureValidation FailureClass = "validation"
	// FailureTransport means the external send call itself failed. Sends
	// are never retried.
	FailureTransport FailureClass = "transport"
)

// SendError is the classified failure returned by dispatcher operations. It
// carries the logical kind and a masked recipient for diagnostics.
type SendError struct {
	Class     FailureClass
	Kind      Kind
	Recipient string // masked
	Err       error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notify: %s send to %s failed (%s): %v", e.Kind, e.Recipient, e.Class, e.Err)
	}
	return fmt.Sprintf("notify: %s send to %s failed (%s)", e.Kind, e.Recipient, e.Class)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsClass reports whether err is a SendError of the given class.
func IsClass(err error, class FailureClass) bool {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Class == class
	}
	return false
}

func configurationError(kind Kind, email string) *SendError {
	return &SendError{
		Class:     FailureConfiguration,
		Kind:      kind,
		Recipient: maskEmail(email),
		Err:       errors.New("email service key or sender address missing"),
	}
}

func validationError(kind Kind, email string, err error) *SendError {
	return &SendError{
		Class:     FailureValidation,
		Kind:      kind,
		Recipient: maskEmail(email),
		Err:       err,
	}
}

func transportError(kind Kind, email string, err error) *SendError {
	return &SendError{
		Class:     FailureTransport,
		Kind:      kind,
		Recipient: maskEmail(email),
		Err:       err,
	}
}

// maskEmail hides most of the local part so addresses can be logged.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:2] + "***@" + domain
}
