package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-analytics/internal/analytics"
	"call-analytics/internal/audit"
	"call-analytics/internal/auth"
	"call-analytics/internal/billing"
	"call-analytics/internal/calls"
	"call-analytics/internal/config"
	"call-analytics/internal/httpapi"
	"call-analytics/internal/ingestion"
	"call-analytics/internal/monitoring"
	"call-analytics/internal/notify"
	"call-analytics/internal/telephony"
	"call-analytics/internal/tenants"
	"call-analytics/pkg/logger"
	"call-analytics/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Repositories
	tenantRepo := tenants.NewPostgresRepo(db)
	callRepo := calls.NewPostgresRepo(db)
	auditRepo := audit.NewPostgresRepo(db)

	// Services
	auditSvc := audit.NewService(auditRepo)
	tenantSvc := tenants.NewService(tenantRepo, auditSvc)
	source, err := telephony.NewClient(cfg.Source)
	if err != nil {
		log.Error("source client init failed", "err", err)
		os.Exit(1)
	}
	ingestSvc := ingestion.NewService(tenantRepo, callRepo, source,
		ingestion.NewRedisLeaser(rdb, 5*time.Minute))
	analyticsSvc := analytics.NewService(callRepo)

	queue := notify.NewRedisQueue(rdb)
	notifier := notify.NewNotifier(tenantRepo, queue)
	monitorSvc := monitoring.NewService(tenantRepo, notifier, cfg.Alerts)
	billingSvc := billing.NewService(cfg.Stripe, auditSvc)

	// Notification delivery worker
	senders := map[string]notify.Sender{
		string(tenants.AlertMethodEmail): notify.NewEmailSender(cfg.SMTP),
	}
	if cfg.Slack.BotToken != "" {
		senders[string(tenants.AlertMethodSlack)] = notify.NewSlackSender(cfg.Slack.BotToken)
	}
	worker := notify.NewWorker(queue, senders)
	go worker.Run(rootCtx)

	// Background ingestion poller
	poller := ingestion.NewPoller(ingestSvc, tenantRepo)
	if err := poller.Start(cfg.App.PollSchedule); err != nil {
		log.Error("poller init failed", "err", err)
		os.Exit(1)
	}
	defer poller.Stop()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.NewHandlers(authManager, tenantSvc, ingestSvc, analyticsSvc, monitorSvc, billingSvc)
	h.SetHealthCheck(func(ctx context.Context) error {
		if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	httpapi.RegisterRoutes(r, h, authManager)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
