package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/institute-api/api/swagger"
	"github.com/noah-isme/institute-api/internal/handler"
	"github.com/noah-isme/institute-api/internal/repository"
	"github.com/noah-isme/institute-api/internal/router"
	"github.com/noah-isme/institute-api/internal/service"
	"github.com/noah-isme/institute-api/pkg/cache"
	"github.com/noah-isme/institute-api/pkg/config"
	"github.com/noah-isme/institute-api/pkg/database"
	"github.com/noah-isme/institute-api/pkg/jobs"
	"github.com/noah-isme/institute-api/pkg/logger"
	"github.com/noah-isme/institute-api/pkg/storage"
	"github.com/noah-isme/institute-api/pkg/validation"
)

// @title Institute API
// @version 1.0.0
// @description Student management for a computer education institute.
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		if cfg.Env == config.EnvProduction {
			logr.Fatal("refusing to start", zap.Error(err))
		}
		logr.Warn("configuration incomplete", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	version, err := database.Migrate(ctx, db.DB, logr)
	if err != nil {
		return err
	}
	logr.Info("schema ready", zap.Int64("version", version))

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validation.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, service.CacheOptions{TTL: cfg.Dashboard.CacheTTL, Metrics: metrics, Logger: logr})

	courseRepo := repository.NewCourseRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	sessionSvc := newSessionService(cfg, redisClient, validate, metrics, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL:        cfg.Dashboard.CacheTTL,
		DailyTargetDays: cfg.Dashboard.DailyTargetDays,
	})
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	inquirySvc := service.NewInquiryService(inquiryRepo, courseRepo, dashboardSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, inquiryRepo, courseRepo, dashboardSvc, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, dashboardSvc, metrics, validate, logr)
	settingSvc := service.NewSettingService(settingRepo, validate, logr)

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(
		enrollmentRepo,
		service.NewReportBuilder(cfg.InstituteName, cfg.Reports.CurrencySymbol),
		files,
		signer,
		metrics,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL},
		logr,
	)
	worker := service.NewReportWorker(exportJobRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("report-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	metrics.TrackQueueDepth("report-exports", queue.Len)

	reportSvc := service.NewReportService(exportJobRepo, queue, exportSvc, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	go sessionSvc.KeepWatching(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(cfg, logr, sessionSvc, metrics, router.Handlers{
		Auth:        handler.NewAuthHandler(sessionSvc, cfg.Env == config.EnvProduction),
		Courses:     handler.NewCourseHandler(courseSvc),
		Inquiries:   handler.NewInquiryHandler(inquirySvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Payments:    handler.NewPaymentHandler(paymentSvc),
		Settings:    handler.NewSettingHandler(settingSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Reports:     handler.NewReportHandler(reportSvc),
		System:      handler.NewSystemHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newSessionService shares sessions through Redis when configured, otherwise keeps them in
// process memory.
func newSessionService(cfg *config.Config, client *redis.Client, validate *validator.Validate, metrics *service.MetricsService, logr *zap.Logger) *service.SessionService {
	sessionCfg := service.SessionConfig{
		Secret:            cfg.Session.Secret,
		TTL:               cfg.Session.TTL,
		AdminTTL:          cfg.Session.AdminTTL,
		SitePasswordHash:  cfg.Session.SitePasswordHash,
		AdminPasswordHash: cfg.Session.AdminPasswordHash,
		VerifyTTL:         cfg.Session.VerifyTTL,
	}
	if client != nil {
		return service.NewSessionService(repository.NewRedisSessionStore(client, logr), validate, metrics, logr, sessionCfg)
	}
	logr.Warn("redis disabled, sessions are kept in memory and lost on restart")
	return service.NewSessionService(repository.NewMemorySessionStore(), validate, metrics, logr, sessionCfg)
}
