package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/campus-records-api/api/swagger"
	"github.com/noah-isme/campus-records-api/internal/handler"
	"github.com/noah-isme/campus-records-api/internal/middleware"
	"github.com/noah-isme/campus-records-api/internal/repository"
	"github.com/noah-isme/campus-records-api/internal/service"
	"github.com/noah-isme/campus-records-api/pkg/cache"
	"github.com/noah-isme/campus-records-api/pkg/config"
	"github.com/noah-isme/campus-records-api/pkg/database"
	"github.com/noah-isme/campus-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-records-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-records-api/pkg/storage"
)

// @title Campus Records API
// @version 0.1.0
// @description Course records, enrollment and grading service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, transcript caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Academic.DataDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare data directory", "error", err)
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, cacheRepo, cfg.Academic.MaxCreditsPerSemester, validate, logr)
	transcriptSvc := service.NewTranscriptService(studentRepo, enrollmentRepo, cacheRepo, cfg.Transcripts.CacheTTL, logr)
	reportSvc := service.NewReportService(enrollmentRepo, logr)
	exportSvc := service.NewExportService(studentRepo, courseRepo, enrollmentRepo, transcriptSvc, store, nil, nil, logr)
	metricsSvc := service.NewMetricsService()

	studentHandler := handler.NewStudentHandler(studentSvc, transcriptSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)
		api.GET("/students/:id/transcript", studentHandler.Transcript)
		api.GET("/students/:id/transcript/export", exportHandler.DownloadTranscript)
		api.GET("/students/:id/enrollments", enrollmentHandler.ListByStudent)
		api.DELETE("/students/:id/enrollments/:code", enrollmentHandler.Unenroll)
		api.PUT("/students/:id/grades", enrollmentHandler.RecordGrade)

		api.POST("/enrollments", enrollmentHandler.Enroll)

		api.GET("/courses", courseHandler.List)
		api.POST("/courses", courseHandler.Create)
		api.GET("/courses/:code", courseHandler.Get)
		api.PUT("/courses/:code", courseHandler.Update)
		api.DELETE("/courses/:code", courseHandler.Delete)

		api.GET("/instructors", instructorHandler.List)
		api.POST("/instructors", instructorHandler.Create)
		api.GET("/instructors/:id", instructorHandler.Get)

		api.GET("/reports/top-students", reportHandler.TopStudents)
		api.GET("/reports/grade-distribution", reportHandler.GradeDistribution)

		api.POST("/exports/students", exportHandler.ExportStudents)
		api.POST("/exports/courses", exportHandler.ExportCourses)
		api.POST("/imports/students", exportHandler.ImportStudents)
		api.POST("/imports/courses", exportHandler.ImportCourses)
		api.POST("/backups", exportHandler.Backup)
		api.GET("/backups/size", exportHandler.BackupSize)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
