package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/noah-isme/lms-recur/internal/duplication"
	"github.com/noah-isme/lms-recur/internal/handler"
	"github.com/noah-isme/lms-recur/internal/middleware"
	"github.com/noah-isme/lms-recur/internal/models"
	"github.com/noah-isme/lms-recur/internal/repository"
	"github.com/noah-isme/lms-recur/internal/service"
	"github.com/noah-isme/lms-recur/pkg/cache"
	"github.com/noah-isme/lms-recur/pkg/config"
	"github.com/noah-isme/lms-recur/pkg/database"
	"github.com/noah-isme/lms-recur/pkg/logger"
	reqidmiddleware "github.com/noah-isme/lms-recur/pkg/middleware/requestid"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	courseRepo := repository.NewCourseRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	enrolmentRepo := repository.NewEnrolmentRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	duplicator := duplication.NewClient(cfg.Duplication, logr)
	nameLock := cache.NewNameLock(redisClient, cfg.Recurrence.LockTTL)

	metricsSvc := service.NewMetricsService()
	settingsSvc := service.NewSettingsService(settingRepo, validate, logr)
	reminderSvc := service.NewReminderService(reminderRepo, validate, logr, cfg.Recurrence.CourseBaseURL)
	cloneSvc := service.NewCloneService(courseRepo, settingRepo, enrolmentRepo, duplicator, nameLock, models.DefaultCloneOptions(), cfg.Recurrence.CloneVisible, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		reportSvc = service.NewReportService(cfg.Reports.StorageDir, logr)
	}

	cycleSvc := service.NewCycleService(settingRepo, courseRepo, enrolmentRepo, cloneSvc, reminderSvc, metricsSvc, reportSvc, cfg.Recurrence.DueBand, service.SystemClock(), logr)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Recurrence.CycleSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Duplication.Timeout+10*time.Minute)
		defer cancel()
		if _, err := cycleSvc.Run(ctx); err != nil {
			logr.Sugar().Errorw("scheduled cycle failed", "error", err)
		}
	}); err != nil {
		logr.Sugar().Fatalw("invalid cycle schedule", "schedule", cfg.Recurrence.CycleSchedule, "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	opsHandler := handler.NewOpsHandler(cycleSvc, settingsSvc, settingRepo)
	internal := r.Group("/internal", middleware.OpsAuth(cfg.Ops.TokenSecret))
	{
		internal.POST("/cycles", opsHandler.TriggerCycle)
		internal.GET("/cycles/latest", opsHandler.LatestCycle)
		internal.GET("/courses/:courseID/recurrence", opsHandler.GetSettings)
		internal.PUT("/courses/:courseID/recurrence", opsHandler.SaveSettings)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("worker starting", "addr", srv.Addr, "env", cfg.Env, "schedule", cfg.Recurrence.CycleSchedule)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("worker shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("shutdown error", "error", err)
	}
}
