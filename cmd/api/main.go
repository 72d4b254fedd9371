package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medibook/clinic-platform/internal/api/router"
	"github.com/medibook/clinic-platform/internal/appointments"
	"github.com/medibook/clinic-platform/internal/auth"
	appconfig "github.com/medibook/clinic-platform/internal/config"
	"github.com/medibook/clinic-platform/internal/dashboard"
	"github.com/medibook/clinic-platform/internal/doctors"
	"github.com/medibook/clinic-platform/internal/notify"
	"github.com/medibook/clinic-platform/internal/observability/metrics"
	"github.com/medibook/clinic-platform/internal/patients"
	"github.com/medibook/clinic-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	notifyMetrics := metrics.NewNotificationMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	redisClient := connectRedis(cfg, logger)

	mailer := setupMailer(ctx, cfg, logger)
	dispatcher := notify.NewDispatcher(mailer, notify.DispatcherConfig{
		Configured: cfg.EmailConfigured(),
		TemplateA:  cfg.EmailTemplateA,
		TemplateB:  cfg.EmailTemplateB,
		BaseURL:    cfg.PublicBaseURL,
	}, logger, notifyMetrics)

	var userRepo auth.Repository
	var patientRepo patients.Repository
	var doctorRepo doctors.Repository
	var apptRepo appointments.Repository
	var statsRepo *dashboard.StatsRepository
	if pool != nil {
		userRepo = auth.NewPostgresRepository(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		doctorRepo = doctors.NewPostgresRepository(pool)
		apptRepo = appointments.NewPostgresRepository(pool)
		statsRepo = dashboard.NewStatsRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		userRepo = auth.NewInMemoryRepository()
		patientRepo = patients.NewInMemoryRepository()
		doctorRepo = doctors.NewInMemoryRepository()
		apptRepo = appointments.NewInMemoryRepository()
	}

	authService := auth.NewService(userRepo, auth.NewRedisOTPStore(redisClient), dispatcher, auth.ServiceConfig{
		JWTSecret:  cfg.JWTSecret,
		JWTExpiry:  cfg.JWTExpiry,
		BcryptCost: cfg.BcryptCost,
		OTPTTL:     cfg.OTPTTL,
	}, logger)
	apptService := appointments.NewService(apptRepo, doctorRepo, patientRepo, dispatcher, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		AuthHandler:         auth.NewHandler(authService, logger),
		PatientsHandler:     patients.NewHandler(patientRepo, logger),
		DoctorsHandler:      doctors.NewHandler(doctorRepo, logger),
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		DashboardHandler:    dashboard.NewHandler(statsRepo, doctorRepo, apptRepo, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HTTPMetrics:         httpMetrics,
		JWTSecret:           cfg.JWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		pool.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("server stopped")
}

// connectPostgresPool opens a pgx pool, or returns nil when no URL is set so
// local runs fall back to in-memory stores.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to postgres")
	return pool
}

func connectRedis(cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable at startup, OTP storage will fail until it recovers", "addr", cfg.RedisAddr, "error", err)
	}
	return client
}

// setupMailer picks the delivery transport. Without a service key and sender
// the stub is used and the dispatcher refuses sends with a configuration
// failure.
func setupMailer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.Mailer {
	if !cfg.EmailConfigured() {
		logger.Warn("email delivery not configured, using stub mailer")
		return notify.NewStubMailer(logger)
	}

	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		mailer := notify.NewSESMailer(sesv2.NewFromConfig(awsCfg), notify.SESMailerConfig{
			FromEmail: cfg.EmailFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		logger.Info("email delivery via SES", "region", cfg.AWSRegion)
		return mailer
	default:
		mailer := notify.NewSendGridMailer(notify.SendGridMailerConfig{
			APIKey:    cfg.EmailServiceKey,
			FromEmail: cfg.EmailFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		logger.Info("email delivery via sendgrid")
		return mailer
	}
}
