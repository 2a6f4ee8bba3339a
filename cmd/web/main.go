package main

import (
	"context"
	"net/http"
	"time"

	consumerhandlers "depositlink/cmd/consumers/handlers"
	"depositlink/cmd/web/handlers"
	"depositlink/cmd/web/middleware"
	"depositlink/cmd/web/validator"
	"depositlink/internal/audit"
	"depositlink/internal/auth"
	"depositlink/internal/config"
	"depositlink/internal/enrollment"
	"depositlink/internal/events"
	"depositlink/internal/health"
	"depositlink/internal/notification"
	"depositlink/internal/readmodels"
	"depositlink/internal/recovery"
	"depositlink/kit/broker"
	"depositlink/kit/crm"
	"depositlink/kit/db"
	"depositlink/kit/observability"
)

func main() {
	logger := observability.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err.Error())
		return
	}

	metricsKit := observability.NewMetrics()
	bus := broker.New()

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("db init error", "error", err.Error())
		return
	}
	defer func() { _ = sqlDB.Close() }()
	store := db.NewStore(sqlDB)

	auditSvc, err := audit.NewServiceWithFile(logger, cfg.AuditPath)
	if err != nil {
		logger.Error("audit init error", "error", err.Error())
		return
	}
	defer func() { _ = auditSvc.Close() }()

	recoverySvc := recovery.NewService(logger)
	notificationSvc := notification.NewService(logger)

	var crmClient crm.Client
	if cfg.CRMBaseURL != "" {
		crmClient = crm.NewRESTClient(cfg.CRMBaseURL, cfg.CRMToken, cfg.CRMTimeout)
	} else {
		logger.Info("no CRM configured, using in-memory fake")
		crmClient = crm.NewFakeClient()
	}
	crmClient = crm.NewCircuitBreakerClient(crmClient, crm.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      2 * time.Second,
	})

	enrollmentRepo := enrollment.NewSQLiteRepository(sqlDB)
	enrollmentSvc := enrollment.NewService(bus, store, enrollmentRepo, metricsKit, cfg.TokenTTL)

	authRepo := auth.NewSQLiteRepository(sqlDB)
	authSvc := auth.NewService(authRepo, []byte(cfg.JWTSecret), cfg.SessionTTL)
	if err := authSvc.Bootstrap(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("admin bootstrap error", "error", err.Error())
		return
	}

	projector := readmodels.NewProjector()
	if err := projector.Replay(context.Background(), store); err != nil {
		logger.Error("read model replay error", "error", err.Error())
		return
	}

	healthChecks := map[string]health.CheckFunc{
		"db": func(ctx context.Context) error {
			return sqlDB.PingContext(ctx)
		},
	}
	if cfg.CRMBaseURL != "" {
		healthChecks["crm"] = func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			defer cancel()
			req, err := http.NewRequestWithContext(callCtx, http.MethodHead, cfg.CRMBaseURL, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			return nil
		}
	}
	healthSvc := health.NewService(2*time.Second, healthChecks)
	jsonV := validator.NewJSON()

	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for range t.C {
			logger.Info(
				"metrics snapshot",
				"enrollments_created", metricsKit.EnrollmentsCreated.Load(),
				"enrollments_opened", metricsKit.EnrollmentsOpened.Load(),
				"enrollments_paid", metricsKit.EnrollmentsPaid.Load(),
				"enrollments_failed", metricsKit.EnrollmentsFailed.Load(),
				"enrollments_expired", metricsKit.EnrollmentsExpired.Load(),
				"crm_sync_failures", metricsKit.CRMSyncFailures.Load(),
			)
		}
	}()

	crmHandler := consumerhandlers.NewCRMEvent(logger, bus, crmClient, enrollmentSvc, recoverySvc)
	auditHandler := consumerhandlers.NewAuditEvent(auditSvc)
	metricsHandler := consumerhandlers.NewMetricsEvent(metricsKit)
	notificationHandler := consumerhandlers.NewNotificationEvent(notificationSvc)

	bus.Subscribe((events.EnrollmentSent{}).Name(), crmHandler.HandleStatusChanged)
	bus.Subscribe((events.EnrollmentOpened{}).Name(), crmHandler.HandleStatusChanged)
	bus.Subscribe((events.EnrollmentProcessing{}).Name(), crmHandler.HandleStatusChanged)
	bus.Subscribe((events.EnrollmentPaid{}).Name(), crmHandler.HandleStatusChanged)
	bus.Subscribe((events.EnrollmentFailed{}).Name(), crmHandler.HandleStatusChanged)
	bus.Subscribe((events.EnrollmentExpired{}).Name(), crmHandler.HandleStatusChanged)
	bus.Subscribe((events.EnrollmentCanceled{}).Name(), crmHandler.HandleStatusChanged)
	bus.Subscribe((events.EnrollmentRegenerated{}).Name(), crmHandler.HandleStatusChanged)

	bus.Subscribe((events.EnrollmentCreated{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentSent{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentOpened{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentTermsAccepted{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentProcessing{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentPaid{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentFailed{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentExpired{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentCanceled{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.EnrollmentRegenerated{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.CRMSyncExhausted{}).Name(), auditHandler.HandleAny)

	bus.Subscribe((events.EnrollmentCreated{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentSent{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentOpened{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentTermsAccepted{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentProcessing{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentPaid{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentFailed{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentExpired{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentCanceled{}).Name(), projector.Apply)
	bus.Subscribe((events.EnrollmentRegenerated{}).Name(), projector.Apply)

	bus.Subscribe((events.CRMSyncExhausted{}).Name(), metricsHandler.HandleAny)

	bus.Subscribe((events.EnrollmentPaid{}).Name(), notificationHandler.HandleDepositPaid)
	bus.Subscribe((events.EnrollmentFailed{}).Name(), notificationHandler.HandleDepositFailed)

	enrollmentH := handlers.NewEnrollment(jsonV, enrollmentSvc, healthSvc, projector, cfg.SweepBatchSize)
	authH := handlers.NewAuth(jsonV, authSvc)
	webhookH := handlers.NewWebhook(jsonV, enrollmentSvc, cfg.WebhookSecret)
	healthH := handlers.NewHealth(healthSvc)
	metricsH := handlers.NewMetrics(metricsKit)

	mux := http.NewServeMux()

	// Patient-facing: the capability token is the only credential.
	mux.HandleFunc("GET /enrollments/token/{token}", enrollmentH.FetchByToken)
	mux.HandleFunc("POST /enrollments/token/{token}/terms", enrollmentH.AcceptTerms)

	// Admin console.
	mux.HandleFunc("POST /auth/login", authH.Login)
	mux.HandleFunc("POST /auth/otp/setup", middleware.RequireAdmin(authSvc, authH.SetupOTP))
	mux.HandleFunc("POST /auth/otp/verify", middleware.RequireMFA(authSvc, authH.VerifyOTP))
	mux.HandleFunc("POST /enrollments", middleware.RequireAdmin(authSvc, enrollmentH.Create))
	mux.HandleFunc("GET /enrollments/{id}", middleware.RequireAdmin(authSvc, enrollmentH.Get))
	mux.HandleFunc("POST /enrollments/{id}/send", middleware.RequireAdmin(authSvc, enrollmentH.MarkSent))
	mux.HandleFunc("POST /enrollments/{id}/regenerate", middleware.RequireAdmin(authSvc, enrollmentH.Regenerate))
	mux.HandleFunc("POST /enrollments/{id}/cancel", middleware.RequireAdmin(authSvc, enrollmentH.Cancel))
	mux.HandleFunc("POST /enrollments/sweep", middleware.RequireAdmin(authSvc, enrollmentH.Sweep))
	mux.HandleFunc("GET /dashboard/funnel", middleware.RequireAdmin(authSvc, enrollmentH.Funnel))
	mux.HandleFunc("GET /dashboard/metrics", middleware.RequireAdmin(authSvc, metricsH.Handler))

	// Gateway callbacks authenticate with a shared secret header.
	mux.HandleFunc("POST /webhooks/payments", webhookH.Payment)

	mux.HandleFunc("GET /healthz", healthH.Handler)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 2 * time.Second}

	logger.Info("web server started", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("web server error", "error", err.Error())
	}
}
