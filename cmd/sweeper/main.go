package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	consumerhandlers "depositlink/cmd/consumers/handlers"
	"depositlink/internal/audit"
	"depositlink/internal/config"
	"depositlink/internal/enrollment"
	"depositlink/internal/events"
	"depositlink/internal/recovery"
	"depositlink/kit/broker"
	"depositlink/kit/crm"
	"depositlink/kit/db"
	"depositlink/kit/observability"
)

// The sweeper expires overdue enrollments in batches on an interval. It runs
// against the same database as the web binary; the optimistic status guard
// makes concurrent sweeps and lazy expiry on fetch safe.
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

	auditSvc := audit.NewService(logger)
	recoverySvc := recovery.NewService(logger)

	var crmClient crm.Client
	if cfg.CRMBaseURL != "" {
		crmClient = crm.NewRESTClient(cfg.CRMBaseURL, cfg.CRMToken, cfg.CRMTimeout)
	} else {
		crmClient = crm.NewFakeClient()
	}
	crmClient = crm.NewCircuitBreakerClient(crmClient, crm.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      2 * time.Second,
	})

	enrollmentRepo := enrollment.NewSQLiteRepository(sqlDB)
	enrollmentSvc := enrollment.NewService(bus, store, enrollmentRepo, metricsKit, cfg.TokenTTL)

	crmHandler := consumerhandlers.NewCRMEvent(logger, bus, crmClient, enrollmentSvc, recoverySvc)
	auditHandler := consumerhandlers.NewAuditEvent(auditSvc)

	bus.Subscribe((events.EnrollmentExpired{}).Name(), crmHandler.HandleStatusChanged)
	bus.Subscribe((events.EnrollmentExpired{}).Name(), auditHandler.HandleAny)
	bus.Subscribe((events.CRMSyncExhausted{}).Name(), auditHandler.HandleAny)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("sweeper started", "interval", cfg.SweepInterval.String(), "batch_size", cfg.SweepBatchSize)

	t := time.NewTicker(cfg.SweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return
		case <-t.C:
			n, err := enrollmentSvc.SweepExpired(ctx, time.Now().UTC(), cfg.SweepBatchSize)
			if err != nil {
				logger.Error("sweep error", "error", err.Error())
				continue
			}
			if n > 0 {
				logger.Info("sweep pass complete", "expired", n)
			}
		}
	}
}
