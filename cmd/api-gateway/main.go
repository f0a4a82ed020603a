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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Weekly timetable generation for sections, faculty and rooms.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			checks["redis"] = redisRepo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CatalogTTL, logr, cfg.Cache.Enabled)

	catalogRepo := repository.NewCatalogRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	generatorSvc := service.NewTimetableGeneratorService(catalogRepo, timetableRepo, db, cacheSvc, metrics, nil, logr,
		service.TimetableGeneratorConfig{Seed: cfg.Scheduler.Seed})
	timetableSvc := service.NewTimetableService(timetableRepo, catalogRepo, cacheSvc, cfg.Cache.CatalogTTL, nil, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, metrics, cfg.Cache.CatalogTTL, logr)

	archive, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare exports directory", zap.Error(err))
	}
	exportSvc := service.NewExportService(timetableRepo, catalogRepo, archive, service.ExportConfig{Retention: cfg.Exports.Retention}, logr, nil, nil)

	jobSvc := service.NewGenerationJobService(generatorSvc, metrics, cfg.Scheduler.JobTTL, logr)
	queue := jobs.NewQueue("timetable-generation", jobSvc.Handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.Scheduler.JobBuffer,
		MaxRetries: cfg.Scheduler.JobRetries,
		RetryDelay: cfg.Scheduler.JobRetryDelay,
		OnGiveUp:   jobSvc.Abandon,
		Logger:     logr,
	})
	jobSvc.AttachQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	generatorHandler := handler.NewTimetableGeneratorHandler(generatorSvc, jobSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/health", "/ready", "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/generate-timetable", internalmiddleware.Audit(logr, "timetable.generate"), generatorHandler.Generate)
		api.POST("/generate-timetable/jobs", internalmiddleware.Audit(logr, "timetable.enqueue_generation"), generatorHandler.EnqueueJob)
		api.GET("/generate-timetable/jobs/:id", generatorHandler.GetJob)

		api.GET("/timetable", timetableHandler.List)
		api.GET("/timetable/conflicts", timetableHandler.Conflicts)
		api.GET("/timetable/export", timetableHandler.Export)
		api.POST("/timetable/:id/toggle-lock", internalmiddleware.Audit(logr, "timetable.toggle_lock"), timetableHandler.ToggleLock)

		api.GET("/sections", catalogHandler.Sections)
		api.GET("/faculty", catalogHandler.Faculty)
		api.GET("/subjects", catalogHandler.Subjects)
		api.GET("/rooms", catalogHandler.Rooms)
		api.GET("/time-slots", catalogHandler.TimeSlots)
		api.GET("/stats", catalogHandler.Stats)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
