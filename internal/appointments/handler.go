package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/clinic-platform/internal/http/middleware"
	"github.com/medibook/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler.
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

// writeServiceError maps domain errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrNotAllowed):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrSlotTaken):
		http.Error(w, "slot already booked", http.StatusConflict)
	case errors.Is(err, ErrSlotUnavailable):
		http.Error(w, "slot outside the doctor's availability", http.StatusConflict)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, "status change not allowed", http.StatusConflict)
	case errors.Is(err, ErrProfileRequired):
		http.Error(w, "complete your patient profile before booking", http.StatusConflict)
	default:
		h.logger.Error("appointment request failed", "error", err)
		http.Error(w, "request failed", http.StatusInternalServerError)
	}
}

// Slots handles GET /doctors/{doctorID}/slots?date=YYYY-MM-DD.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	date := r.URL.Query().Get("date")
	if doctorID == "" || date == "" {
		http.Error(w, "doctor id and date are required", http.StatusBadRequest)
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctor_id": doctorID, "date": date, "slots": slots})
}

// Book handles POST /appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Book(r.Context(), cred, &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Reschedule handles POST /appointments/{appointmentID}/reschedule.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Reschedule(r.Context(), cred, chi.URLParam(r, "appointmentID"), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// statusAction wraps the single-step lifecycle endpoints.
func (h *Handler) statusAction(action func(r *http.Request) (*Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.CredentialFromContext(r.Context()); !ok {
			http.Error(w, "missing credential", http.StatusUnauthorized)
			return
		}
		appt, err := action(r)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

// Cancel handles POST /appointments/{appointmentID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.statusAction(func(r *http.Request) (*Appointment, error) {
		cred, _ := middleware.CredentialFromContext(r.Context())
		return h.service.Cancel(r.Context(), cred, chi.URLParam(r, "appointmentID"))
	})(w, r)
}

// Confirm handles POST /appointments/{appointmentID}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.statusAction(func(r *http.Request) (*Appointment, error) {
		cred, _ := middleware.CredentialFromContext(r.Context())
		return h.service.Confirm(r.Context(), cred, chi.URLParam(r, "appointmentID"))
	})(w, r)
}

// Complete handles POST /appointments/{appointmentID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.statusAction(func(r *http.Request) (*Appointment, error) {
		cred, _ := middleware.CredentialFromContext(r.Context())
		return h.service.Complete(r.Context(), cred, chi.URLParam(r, "appointmentID"))
	})(w, r)
}

// MarkNoShow handles POST /appointments/{appointmentID}/no-show.
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.statusAction(func(r *http.Request) (*Appointment, error) {
		cred, _ := middleware.CredentialFromContext(r.Context())
		return h.service.MarkNoShow(r.Context(), cred, chi.URLParam(r, "appointmentID"))
	})(w, r)
}

// SendReminder handles POST /appointments/{appointmentID}/remind.
func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	if err := h.service.SendReminder(r.Context(), cred, chi.URLParam(r, "appointmentID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// ListAppointmentsResponse is the response for listing appointments.
type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
	Offset       int            `json:"offset"`
	Limit        int            `json:"limit"`
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	filter := ListFilter{
		Limit:  50,
		Offset: 0,
		Date:   r.URL.Query().Get("date"),
		Status: Status(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		http.Error(w, "invalid status filter", http.StatusBadRequest)
		return
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

	appts, err := h.service.List(r.Context(), cred, filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListAppointmentsResponse{
		Appointments: appts,
		Count:        len(appts),
		Offset:       filter.Offset,
		Limit:        filter.Limit,
	})
}

// Get handles GET /appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	appt, err := h.service.Get(r.Context(), cred, chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}
