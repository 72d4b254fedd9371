package patients

import "errors"

var (
	// ErrPatientNotFound indicates no profile exists for the lookup key.
	ErrPatientNotFound = errors.New("patients: patient not found")
)
