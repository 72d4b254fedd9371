// Package validation provides the stateless field validators used by the
// API before any persistence or delivery is attempted. Each validator is a
// pure function returning a Result whose Error string is user-visible.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result reports whether a field value passed validation.
type Result struct {
	IsValid bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
}

func valid() Result {
	return Result{IsValid: true}
}

func invalid(message string) Result {
	return Result{IsValid: false, Error: message}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the RFC-light email shape with a 255 char ceiling.
func ValidateEmail(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid("Email is required")
	}
	if len(value) > 255 {
		return invalid("Email must be less than 255 characters")
	}
	if !emailPattern.MatchString(value) {
		return invalid("Please enter a valid email address")
	}
	return valid()
}

// Mobile numbers carry the 01x prefix; landlines use area codes 03-09.
// Both tolerate an optional +60 country prefix and optional space/hyphen
// separators before the 3-digit and 4-digit groups.
var (
	malaysiaMobilePattern   = regexp.MustCompile(`^(\+?60|0)1[0-9][- ]?[0-9]{3}[- ]?[0-9]{4}$`)
	malaysiaLandlinePattern = regexp.MustCompile(`^(\+?60|0)[3-9][- ]?[0-9]{3}[- ]?[0-9]{4}$`)
)

// ValidateMalaysiaPhone checks Malaysian mobile and landline formats.
func ValidateMalaysiaPhone(value string, required bool) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return invalid("Phone number is required")
		}
		return valid()
	}
	if !malaysiaMobilePattern.MatchString(value) && !malaysiaLandlinePattern.MatchString(value) {
		return invalid("Please enter a valid Malaysian phone number")
	}
	return valid()
}

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z '-]*$`)

// ValidateName allows letters, spaces, hyphens and apostrophes, 1-100 chars.
func ValidateName(value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid("Name is required")
	}
	if len(value) > 100 {
		return invalid("Name must be between 1 and 100 characters")
	}
	if !namePattern.MatchString(value) {
		return invalid("Name can only contain letters, spaces, hyphens and apostrophes")
	}
	return valid()
}

// ValidateNumber checks a numeric string against min/max bounds. The field
// name prefixes every message so forms can reuse the validator across inputs.
func ValidateNumber(value string, min, max float64, fieldName string, allowDecimal, required bool) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return invalid(fmt.Sprintf("%s is required", fieldName))
		}
		return valid()
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return invalid(fmt.Sprintf("%s must be a number", fieldName))
	}
	if !allowDecimal && parsed != math.Trunc(parsed) {
		return invalid(fmt.Sprintf("%s must be a whole number", fieldName))
	}
	if parsed < min {
		return invalid(fmt.Sprintf("%s must be at least %s", fieldName, formatBound(min)))
	}
	if parsed > max {
		return invalid(fmt.Sprintf("%s cannot exceed %s", fieldName, formatBound(max)))
	}
	return valid()
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ValidateAge derives age from a date of birth (YYYY-MM-DD) using calendar
// year/month/day subtraction, then checks the configured bounds.
func ValidateAge(dateOfBirth string, minAge, maxAge int) Result {
	dateOfBirth = strings.TrimSpace(dateOfBirth)
	if dateOfBirth == "" {
		return invalid("Date of birth is required")
	}

	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return invalid("Please enter a valid date of birth")
	}

	now := time.Now()
	if dob.After(now) {
		return invalid("Date of birth cannot be in the future")
	}

	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}

	if age < minAge {
		return invalid(fmt.Sprintf("Age must be at least %d years", minAge))
	}
	if age > maxAge {
		return invalid(fmt.Sprintf("Age cannot exceed %d years", maxAge))
	}
	return valid()
}

// ValidateJSON checks that a value parses as JSON when present.
func ValidateJSON(value string, required bool) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return invalid("This field is required")
		}
		return valid()
	}
	if !json.Valid([]byte(value)) {
		return invalid("Please enter valid JSON")
	}
	return valid()
}

// ValidateFile checks a MIME type against an allow-list and a size ceiling
// given in megabytes.
func ValidateFile(mimeType string, sizeBytes int64, allowedTypes []string, maxSizeMB float64) Result {
	allowed := false
	for _, t := range allowedTypes {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(mimeType)) {
			allowed = true
			break
		}
	}
	if !allowed {
		return invalid("File type not allowed")
	}

	maxBytes := int64(maxSizeMB * 1024 * 1024)
	if sizeBytes > maxBytes {
		return invalid(fmt.Sprintf("File size cannot exceed %s MB", formatBound(maxSizeMB)))
	}
	return valid()
}
