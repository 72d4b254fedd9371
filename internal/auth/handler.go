package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medibook/clinic-platform/pkg/logging"
)

// Handler exposes the auth endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an auth handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// Self-service registration is patient-only; staff accounts are
	// provisioned through the admin endpoints.
	req.Role = RolePatient

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		var fieldErr *FieldError
		switch {
		case errors.As(err, &fieldErr):
			writeJSON(w, http.StatusBadRequest, map[string]string{"field": fieldErr.Field, "error": fieldErr.Message})
		case errors.Is(err, ErrEmailTaken):
			writeError(w, http.StatusConflict, "Email already registered")
		default:
			h.logger.Error("registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, ErrEmailNotVerified):
			writeError(w, http.StatusForbidden, "Please verify your email before logging in")
		default:
			h.logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// VerifyEmail handles POST /auth/verify-email.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.VerifyEmail(r.Context(), &req); err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			writeError(w, http.StatusBadRequest, "Invalid or expired verification code")
			return
		}
		h.logger.Error("email verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// ResendVerification handles POST /auth/resend-verification.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same response shape as success.
			writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
			return
		}
		h.logger.Error("resend verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not send verification code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// ForgotPassword handles POST /auth/forgot-password. Unknown addresses get
// the same success response as known ones; only a transport failure for an
// existing account surfaces as an error.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.ForgotPassword(r.Context(), &req); err != nil {
		h.logger.Error("password reset failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not send password reset email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"message": "If an account exists for that email, a temporary password has been sent.",
	})
}
