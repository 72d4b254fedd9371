package doctors

import "errors"

var (
	// ErrDoctorNotFound indicates no profile exists for the lookup key.
	ErrDoctorNotFound = errors.New("doctors: doctor not found")
)
