package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medibook/clinic-platform/internal/appointments"
	"github.com/medibook/clinic-platform/internal/doctors"
	"github.com/medibook/clinic-platform/internal/http/middleware"
	"github.com/medibook/clinic-platform/pkg/logging"
)

// DoctorDirectory resolves the caller's doctor profile.
type DoctorDirectory interface {
	GetByUserID(ctx context.Context, userID string) (*doctors.Doctor, error)
}

// ScheduleSource lists a doctor's appointments for the day view.
type ScheduleSource interface {
	List(ctx context.Context, filter appointments.ListFilter) ([]*appointments.Appointment, error)
}

// Handler provides the admin and doctor dashboard endpoints.
type Handler struct {
	stats     *StatsRepository
	doctorDir DoctorDirectory
	schedule  ScheduleSource
	logger    *logging.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(stats *StatsRepository, doctorDir DoctorDirectory, schedule ScheduleSource, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		stats:     stats,
		doctorDir: doctorDir,
		schedule:  schedule,
		logger:    logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// dateParam returns the anchor date, defaulting to today.
func dateParam(r *http.Request) string {
	if date := r.URL.Query().Get("date"); date != "" {
		return date
	}
	return Today()
}

// AdminDashboard handles GET /admin/dashboard.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		http.Error(w, "dashboard requires a database", http.StatusServiceUnavailable)
		return
	}
	stats, err := h.stats.GetAdminStats(r.Context(), dateParam(r))
	if err != nil {
		h.logger.Error("failed to load admin dashboard", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DoctorDashboardResponse bundles the doctor's day view and counters.
type DoctorDashboardResponse struct {
	Stats         *DoctorStats                `json:"stats"`
	TodaySchedule []*appointments.Appointment `json:"today_schedule"`
}

// DoctorDashboard handles GET /doctors/me/dashboard.
func (h *Handler) DoctorDashboard(w http.ResponseWriter, r *http.Request) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}
	if h.stats == nil {
		http.Error(w, "dashboard requires a database", http.StatusServiceUnavailable)
		return
	}

	doctor, err := h.doctorDir.GetByUserID(r.Context(), cred.UserID)
	if err != nil {
		if errors.Is(err, doctors.ErrDoctorNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to resolve doctor", "error", err, "user_id", cred.UserID)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	date := dateParam(r)
	stats, err := h.stats.GetDoctorStats(r.Context(), doctor.ID, date)
	if err != nil {
		h.logger.Error("failed to load doctor stats", "error", err, "doctor_id", doctor.ID)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	todaySchedule, err := h.schedule.List(r.Context(), appointments.ListFilter{
		DoctorID: doctor.ID,
		Date:     date,
		Limit:    100,
	})
	if err != nil {
		h.logger.Error("failed to load schedule", "error", err, "doctor_id", doctor.ID)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, DoctorDashboardResponse{
		Stats:         stats,
		TodaySchedule: todaySchedule,
	})
}
