package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailNotVerified   = errors.New("auth: email not verified")
	ErrInvalidOTP         = errors.New("auth: invalid or expired verification code")
	ErrInvalidToken       = errors.New("auth: invalid token")
)
