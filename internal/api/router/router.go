package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medibook/clinic-platform/internal/appointments"
	"github.com/medibook/clinic-platform/internal/auth"
	"github.com/medibook/clinic-platform/internal/dashboard"
	"github.com/medibook/clinic-platform/internal/doctors"
	httpmiddleware "github.com/medibook/clinic-platform/internal/http/middleware"
	"github.com/medibook/clinic-platform/internal/observability/metrics"
	"github.com/medibook/clinic-platform/internal/patients"
	"github.com/medibook/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AuthHandler         *auth.Handler
	PatientsHandler     *patients.Handler
	DoctorsHandler      *doctors.Handler
	AppointmentsHandler *appointments.Handler
	DashboardHandler    *dashboard.Handler
	MetricsHandler      http.Handler
	HTTPMetrics         *metrics.HTTPMetrics
	JWTSecret           string
	CORSAllowedOrigins  []string
	RateLimitPerSecond  float64
	RateLimitBurst      int
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.HTTPMetrics))

	requireAuth := httpmiddleware.RequireAuth(cfg.JWTSecret)
	staffOnly := httpmiddleware.RequireRole(auth.RoleAdmin, auth.RoleDoctor)
	adminOnly := httpmiddleware.RequireRole(auth.RoleAdmin)
	doctorOnly := httpmiddleware.RequireRole(auth.RoleDoctor)
	patientOnly := httpmiddleware.RequireRole(auth.RolePatient)

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/verify-email", cfg.AuthHandler.VerifyEmail)
			r.Post("/resend-verification", cfg.AuthHandler.ResendVerification)
			r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
		})
	})

	// Doctor directory is readable by any signed-in user.
	r.Group(func(signedIn chi.Router) {
		signedIn.Use(requireAuth)
		signedIn.Get("/doctors", cfg.DoctorsHandler.ListDoctors)
		signedIn.Get("/doctors/{doctorID}", cfg.DoctorsHandler.GetDoctor)
		signedIn.Get("/doctors/{doctorID}/availability", cfg.DoctorsHandler.GetAvailability)
		signedIn.Get("/doctors/{doctorID}/slots", cfg.AppointmentsHandler.Slots)

		signedIn.Route("/appointments", func(r chi.Router) {
			r.Get("/", cfg.AppointmentsHandler.List)
			r.With(patientOnly).Post("/", cfg.AppointmentsHandler.Book)
			r.Route("/{appointmentID}", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.Get)
				r.Post("/reschedule", cfg.AppointmentsHandler.Reschedule)
				r.Post("/cancel", cfg.AppointmentsHandler.Cancel)
				r.With(staffOnly).Post("/confirm", cfg.AppointmentsHandler.Confirm)
				r.With(staffOnly).Post("/complete", cfg.AppointmentsHandler.Complete)
				r.With(staffOnly).Post("/no-show", cfg.AppointmentsHandler.MarkNoShow)
				r.With(staffOnly).Post("/remind", cfg.AppointmentsHandler.SendReminder)
			})
		})
	})

	// Patient self-service.
	r.Route("/patients/me", func(r chi.Router) {
		r.Use(requireAuth, patientOnly)
		r.Get("/", cfg.PatientsHandler.GetProfile)
		r.Put("/", cfg.PatientsHandler.UpsertProfile)
	})

	// Doctor self-service.
	r.Route("/doctors/me", func(r chi.Router) {
		r.Use(requireAuth, doctorOnly)
		r.Get("/", cfg.DoctorsHandler.GetProfile)
		r.Put("/", cfg.DoctorsHandler.UpsertProfile)
		r.Put("/availability", cfg.DoctorsHandler.SetAvailability)
		r.Get("/dashboard", cfg.DashboardHandler.DoctorDashboard)
	})

	// Admin surface.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(requireAuth, adminOnly)
		admin.Get("/dashboard", cfg.DashboardHandler.AdminDashboard)
		admin.Get("/patients", cfg.PatientsHandler.ListPatients)
		admin.Get("/patients/{patientID}", cfg.PatientsHandler.GetPatient)
		admin.Delete("/patients/{patientID}", cfg.PatientsHandler.DeletePatient)
	})

	return r
}
