package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/clinic-platform/internal/auth"
	"github.com/medibook/clinic-platform/internal/http/middleware"
	"github.com/medibook/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for patient profiles.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new patients handler.
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

// UpsertProfile handles PUT /patients/me. The authenticated patient creates or
// replaces their own profile.
func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	var req UpsertPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"field": fieldErr.Field, "error": fieldErr.Message})
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patient, err := h.repo.Upsert(r.Context(), cred.UserID, &req)
	if err != nil {
		h.logger.Error("failed to save patient profile", "error", err, "user_id", cred.UserID)
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}

	h.logger.Info("patient profile saved", "patient_id", patient.ID)
	writeJSON(w, http.StatusOK, patient)
}

// GetProfile handles GET /patients/me.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	patient, err := h.repo.GetByUserID(r.Context(), cred.UserID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load patient profile", "error", err, "user_id", cred.UserID)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// GetPatient handles GET /admin/patients/{patientID}. Admins see any profile;
// doctors may look up patients they treat.
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "patientID")
	if id == "" {
		http.Error(w, "missing patient id", http.StatusBadRequest)
		return
	}

	patient, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load patient", "error", err, "patient_id", id)
		http.Error(w, "failed to load patient", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// ListPatientsResponse is the response for listing patients.
type ListPatientsResponse struct {
	Patients []*Patient `json:"patients"`
	Count    int        `json:"count"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
}

// ListPatients handles GET /admin/patients.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  50,
		Offset: 0,
		Search: r.URL.Query().Get("search"),
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

	patients, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListPatientsResponse{
		Patients: patients,
		Count:    len(patients),
		Offset:   filter.Offset,
		Limit:    filter.Limit,
	})
}

// DeletePatient handles DELETE /admin/patients/{patientID}.
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	cred, _ := middleware.CredentialFromContext(r.Context())
	if cred.Role != auth.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id := chi.URLParam(r, "patientID")
	if id == "" {
		http.Error(w, "missing patient id", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete patient", "error", err, "patient_id", id)
		http.Error(w, "failed to delete patient", http.StatusInternalServerError)
		return
	}

	h.logger.Info("patient deleted", "patient_id", id)
	w.WriteHeader(http.StatusNoContent)
}
