package doctors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/clinic-platform/internal/http/middleware"
	"github.com/medibook/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for doctor profiles and schedules.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new doctors handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFieldError(w http.ResponseWriter, err error) bool {
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"field": fieldErr.Field, "error": fieldErr.Message})
		return true
	}
	return false
}

// UpsertProfile handles PUT /doctors/me. The authenticated doctor creates or
// replaces their own profile.
func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	var req UpsertDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		if !writeFieldError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	doctor, err := h.repo.Upsert(r.Context(), cred.UserID, &req)
	if err != nil {
		h.logger.Error("failed to save doctor profile", "error", err, "user_id", cred.UserID)
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}

	h.logger.Info("doctor profile saved", "doctor_id", doctor.ID, "department", doctor.Department)
	writeJSON(w, http.StatusOK, doctor)
}

// GetProfile handles GET /doctors/me.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	doctor, err := h.repo.GetByUserID(r.Context(), cred.UserID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load doctor profile", "error", err, "user_id", cred.UserID)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// ListDoctorsResponse is the response for listing doctors.
type ListDoctorsResponse struct {
	Doctors []*Doctor `json:"doctors"`
	Count   int       `json:"count"`
	Offset  int       `json:"offset"`
	Limit   int       `json:"limit"`
}

// ListDoctors handles GET /doctors. Patients browse this when booking.
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:      50,
		Offset:     0,
		Department: r.URL.Query().Get("department"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	doctors, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListDoctorsResponse{
		Doctors: doctors,
		Count:   len(doctors),
		Offset:  filter.Offset,
		Limit:   filter.Limit,
	})
}

// GetDoctor handles GET /doctors/{doctorID}.
func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	if id == "" {
		http.Error(w, "missing doctor id", http.StatusBadRequest)
		return
	}

	doctor, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load doctor", "error", err, "doctor_id", id)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// SetAvailability handles PUT /doctors/me/availability.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	doctor, err := h.repo.GetByUserID(r.Context(), cred.UserID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "create a profile before setting availability", http.StatusConflict)
			return
		}
		h.logger.Error("failed to load doctor profile", "error", err, "user_id", cred.UserID)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		if !writeFieldError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	if err := h.repo.SetAvailability(r.Context(), doctor.ID, req.Days); err != nil {
		h.logger.Error("failed to save availability", "error", err, "doctor_id", doctor.ID)
		http.Error(w, "failed to save availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("availability updated", "doctor_id", doctor.ID, "days", len(req.Days))
	writeJSON(w, http.StatusOK, map[string]any{"doctor_id": doctor.ID, "days": req.Days})
}

// GetAvailability handles GET /doctors/{doctorID}/availability.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	if id == "" {
		http.Error(w, "missing doctor id", http.StatusBadRequest)
		return
	}

	days, err := h.repo.GetAvailability(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load availability", "error", err, "doctor_id", id)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctor_id": id, "days": days})
}
