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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/unistudy/timetable-api/api/swagger"
	"github.com/unistudy/timetable-api/internal/catalog"
	"github.com/unistudy/timetable-api/internal/handler"
	internalmiddleware "github.com/unistudy/timetable-api/internal/middleware"
	"github.com/unistudy/timetable-api/internal/models"
	"github.com/unistudy/timetable-api/internal/repository"
	"github.com/unistudy/timetable-api/internal/service"
	"github.com/unistudy/timetable-api/pkg/config"
	"github.com/unistudy/timetable-api/pkg/database"
	"github.com/unistudy/timetable-api/pkg/logger"
	corsmiddleware "github.com/unistudy/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unistudy/timetable-api/pkg/middleware/requestid"
	"github.com/unistudy/timetable-api/pkg/tracing"
)

// @title Timetable API
// @version 0.1.0
// @description Study timetable conflict detection, analysis and generation
// @BasePath /api/v1
// @schemes http

type courseCatalog interface {
	ListUnitsByCourse(ctx context.Context, courseID int64) ([]models.CourseUnit, error)
	ResolveSlot(ctx context.Context, courseID, slotID int64) (*models.TimetableSlot, error)
}

type studyPlanCatalog interface {
	FindByID(ctx context.Context, id int64) (*models.StudyPlan, error)
	ListCourses(ctx context.Context, studyPlanID int64, semester models.Semester, year int) ([]models.StudyPlanCourse, error)
}

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

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Env, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init tracing", "error", err)
	}

	var (
		db      *sqlx.DB
		courses courseCatalog
		plans   studyPlanCatalog
	)
	switch cfg.Catalog.Source {
	case config.CatalogSourceSnapshot:
		snapshot, err := catalog.LoadFile(cfg.Catalog.SnapshotPath)
		if err != nil {
			logr.Sugar().Fatalw("failed to load catalog snapshot", "path", cfg.Catalog.SnapshotPath, "error", err)
		}
		courses = snapshot
		plans = snapshot.StudyPlans()
	case config.CatalogSourcePostgres:
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect catalog database", "error", err)
		}
		defer db.Close()
		courses = repository.NewCourseRepository(db)
		plans = repository.NewStudyPlanRepository(db)
	default:
		logr.Sugar().Fatalw("unknown catalog source", "source", cfg.Catalog.Source)
	}
	logr.Info("catalog ready", zap.String("source", cfg.Catalog.Source))

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	conflictSvc := service.NewTimetableConflictService(courses, validate, logr)
	analyzer := service.NewTimetableAnalyzer(service.TimetableAnalyzerConfig{
		HeavyDayHours:   cfg.Analyzer.HeavyDayHours,
		LargeGapMinutes: cfg.Analyzer.LargeGapMinutes,
	}, validate)
	alternativeSvc := service.NewTimetableAlternativeService(courses, service.TimetableAlternativeConfig{
		DefaultLimit: cfg.Alternatives.DefaultLimit,
		MaxLimit:     cfg.Alternatives.MaxLimit,
	}, validate, logr)
	generatorSvc := service.NewTimetableGeneratorService(plans, courses, metricsSvc, validate, logr, service.TimetableGeneratorConfig{
		FetchConcurrency: cfg.Generator.FetchConcurrency,
		FetchTimeout:     cfg.Generator.FetchTimeout,
		RepairEnabled:    cfg.Generator.RepairEnabled,
	})
	var exportSvc *service.TimetableExportService
	if cfg.Export.Enabled {
		exportSvc = service.NewTimetableExportService(nil, nil, validate, logr)
	}

	timetableHandler := handler.NewTimetableHandler(conflictSvc, analyzer, alternativeSvc, generatorSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, nil)
	if db != nil {
		metricsHandler = handler.NewMetricsHandler(metricsSvc, db)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)

	timetable := api.Group("/timetable")
	timetable.POST("/conflicts", timetableHandler.Conflicts)
	timetable.POST("/analyze", timetableHandler.Analyze)
	timetable.POST("/alternatives", timetableHandler.Alternatives)
	timetable.POST("/generate", timetableHandler.Generate)
	timetable.POST("/export", timetableHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracing shutdown failed", zap.Error(err))
	}
}
