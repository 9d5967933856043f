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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/run-directory-api/api/swagger"
	"github.com/noah-isme/run-directory-api/internal/handler"
	"github.com/noah-isme/run-directory-api/internal/middleware"
	"github.com/noah-isme/run-directory-api/internal/repository"
	"github.com/noah-isme/run-directory-api/internal/service"
	"github.com/noah-isme/run-directory-api/pkg/cache"
	"github.com/noah-isme/run-directory-api/pkg/config"
	"github.com/noah-isme/run-directory-api/pkg/database"
	"github.com/noah-isme/run-directory-api/pkg/export"
	"github.com/noah-isme/run-directory-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/run-directory-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/run-directory-api/pkg/middleware/requestid"
	"github.com/noah-isme/run-directory-api/pkg/storage"
)

// @title Running Event Directory API
// @version 1.0.0
// @description Public directory and back-office authoring for running events
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, directory cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	loc := cfg.Directory.Location()
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metricsSvc, logr, service.CacheConfig{
		Enabled:    cfg.Directory.CacheEnabled && redisClient != nil,
		DefaultTTL: cfg.Directory.CacheTTL,
	})

	seriesRepo := repository.NewSeriesRepository(db)
	distanceRepo := repository.NewDistanceRepository(db)
	raceTypeRepo := repository.NewRaceTypeRepository(db)
	eventRepo := repository.NewEventRepository(db)
	eventDistanceRepo := repository.NewEventDistanceRepository(db)
	eventRaceTypeRepo := repository.NewEventRaceTypeRepository(db)

	writer := service.NewEventWriter(eventRepo, eventDistanceRepo, eventRaceTypeRepo, db, cfg.Authoring.WriteMode, metricsSvc, logr)

	var directorySvc *service.DirectoryService
	invalidate := service.InvalidatorFunc(func(ctx context.Context) {
		directorySvc.Invalidate(ctx)
	})

	adminSvc := service.NewEventAdminService(eventRepo, seriesRepo, eventDistanceRepo, eventRaceTypeRepo, writer, invalidate, logr, service.EventAdminConfig{})
	directorySvc = service.NewDirectoryService(eventRepo, adminSvc, cacheSvc, logr, service.DirectoryConfig{
		CacheTTL: cfg.Directory.CacheTTL,
		Location: loc,
		Metrics:  metricsSvc,
	})
	authoringSvc := service.NewEventAuthoringService(adminSvc, writer, invalidate, validate, logr, service.EventAuthoringConfig{
		SessionTTL: cfg.Authoring.SessionTTL,
		Location:   loc,
	})
	exportSvc := service.NewExportService(adminSvc, directorySvc, service.ExportConfig{Location: loc}, logr, export.NewCSVExporter(0).WithBOM(), export.NewPDFExporter())
	seriesSvc := service.NewSeriesService(seriesRepo, invalidate, validate, logr)
	distanceSvc := service.NewDistanceService(distanceRepo, db, invalidate, validate, logr)
	raceTypeSvc := service.NewRaceTypeService(raceTypeRepo, db, invalidate, validate, logr)

	routeImageSvc := service.NewRouteImageService(authoringSvc, seriesRepo, distanceRepo, store, metricsSvc, logr, service.RouteImageConfig{
		MaxFileSize:   cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:  cfg.Uploads.AllowedMIMEs,
		PublicBaseURL: cfg.Uploads.PublicBaseURL,
		Workers:       cfg.Uploads.WorkerConcurrency,
		Retries:       cfg.Uploads.WorkerRetries,
	})
	routeImageSvc.Start(ctx)
	defer routeImageSvc.Stop()

	maintenanceSvc := service.NewMaintenanceService([]service.ExpirySweeper{authoringSvc, adminSvc}, store, eventDistanceRepo, logr, service.MaintenanceConfig{
		SessionSweepSchedule: cfg.Authoring.SweepSchedule,
		OrphanTTL:            cfg.Uploads.OrphanTTL,
		PublicBaseURL:        cfg.Uploads.PublicBaseURL,
		Location:             loc,
	})
	if err := maintenanceSvc.Start(ctx); err != nil {
		return err
	}
	defer maintenanceSvc.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Config{AllowedOrigins: cfg.CORS.AllowedOrigins}))
	r.Use(middleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	checks := map[string]handler.DependencyCheck{"database": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)
	r.Static("/assets", cfg.Uploads.StorageDir)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), logr, routeHandlers{
		events:    handler.NewEventHandler(directorySvc, exportSvc),
		series:    handler.NewSeriesHandler(seriesSvc),
		distances: handler.NewDistanceHandler(distanceSvc),
		raceTypes: handler.NewRaceTypeHandler(raceTypeSvc),
		admin:     handler.NewEventAdminHandler(adminSvc),
		authoring: handler.NewAuthoringHandler(authoringSvc, routeImageSvc, cfg.Uploads.MaxFileSizeBytes),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("write_mode", writer.Mode()))
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

type routeHandlers struct {
	events    *handler.EventHandler
	series    *handler.SeriesHandler
	distances *handler.DistanceHandler
	raceTypes *handler.RaceTypeHandler
	admin     *handler.EventAdminHandler
	authoring *handler.AuthoringHandler
}

func registerRoutes(api *gin.RouterGroup, logr *zap.Logger, h routeHandlers) {
	events := api.Group("/events", middleware.UUIDParam("id"))
	events.GET("", h.events.List)
	events.GET("/export.csv", h.events.ExportCSV)
	events.GET("/:id", h.events.Detail)
	events.GET("/:id/neighbors", h.events.Neighbors)
	events.GET("/:id/calendar.ics", h.events.Calendar)
	events.GET("/:id/sheet.pdf", h.events.Sheet)

	admin := api.Group("/admin")

	series := admin.Group("/series", middleware.Audit(logr, "series"), middleware.UUIDParam("id"))
	series.GET("", h.series.List)
	series.POST("", h.series.Create)
	series.GET("/:id", h.series.Get)
	series.PUT("/:id", h.series.Update)
	series.DELETE("/:id", h.series.Delete)

	distances := admin.Group("/distances", middleware.Audit(logr, "distances"), middleware.UUIDParam("id"))
	distances.GET("", h.distances.List)
	distances.POST("", h.distances.Create)
	distances.PUT("/:id", h.distances.Update)
	distances.DELETE("/:id", h.distances.Delete)
	distances.POST("/:id/move", h.distances.Move)

	raceTypes := admin.Group("/race-types", middleware.Audit(logr, "race_types"), middleware.UUIDParam("id"))
	raceTypes.GET("", h.raceTypes.List)
	raceTypes.POST("", h.raceTypes.Create)
	raceTypes.PUT("/:id", h.raceTypes.Update)
	raceTypes.DELETE("/:id", h.raceTypes.Delete)
	raceTypes.POST("/:id/move", h.raceTypes.Move)

	adminEvents := admin.Group("/events", middleware.Audit(logr, "events"), middleware.UUIDParam("id"))
	adminEvents.GET("", h.admin.List)
	adminEvents.POST("/:id/delete-intent", h.admin.RequestDelete)
	adminEvents.DELETE("/:id", h.admin.Delete)

	authoring := admin.Group("/authoring", middleware.Audit(logr, "authoring"))
	authoring.POST("", h.authoring.Open)
	authoring.GET("/:session", h.authoring.Get)
	authoring.PATCH("/:session", h.authoring.Apply)
	authoring.DELETE("/:session", h.authoring.Cancel)
	authoring.POST("/:session/validate", h.authoring.Validate)
	authoring.POST("/:session/submit", h.authoring.Submit)
	authoring.POST("/:session/distances/:slot/route-image", h.authoring.UploadRouteImage)
}
