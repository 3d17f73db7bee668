package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/amrnabil/educenter-api/api/swagger"
	"github.com/amrnabil/educenter-api/internal/handler"
	"github.com/amrnabil/educenter-api/internal/middleware"
	"github.com/amrnabil/educenter-api/internal/models"
	"github.com/amrnabil/educenter-api/internal/repository"
	"github.com/amrnabil/educenter-api/internal/service"
	"github.com/amrnabil/educenter-api/pkg/cache"
	"github.com/amrnabil/educenter-api/pkg/config"
	"github.com/amrnabil/educenter-api/pkg/database"
	"github.com/amrnabil/educenter-api/pkg/logger"
	corsmiddleware "github.com/amrnabil/educenter-api/pkg/middleware/cors"
	reqidmiddleware "github.com/amrnabil/educenter-api/pkg/middleware/requestid"
)

// @title EduCenter API
// @version 1.0.0
// @description Scheduling, enrollment and archival backend for the education center
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr, metricsSvc)
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, validate, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, courseRepo, classroomRepo, cacheRepo, cfg.Schedule.CacheTTL, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, teacherRepo, cacheRepo, cfg.Catalog.CacheTTL, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, validate, logr)
	archiveSvc := service.NewArchiveService(archiveRepo, courseRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, courseRepo, validate, logr)
	commentSvc := service.NewCommentService(commentRepo, courseRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, archiveSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	catalogHandler := handler.NewCatalogHandler(courseSvc, enrollmentSvc, commentSvc, scheduleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	dashboard := authed.Group("")
	dashboard.Use(middleware.RequireRoles(models.RoleStaff, models.RoleSuperAdmin))
	{
		dashboard.GET("/courses", courseHandler.List)
		dashboard.POST("/courses", courseHandler.Create)
		dashboard.GET("/courses/:id", courseHandler.Get)
		dashboard.PUT("/courses/:id", courseHandler.Update)
		dashboard.DELETE("/courses/:id", courseHandler.Delete)
		dashboard.POST("/courses/:id/end", courseHandler.EndCourse)
		dashboard.GET("/courses/:id/archives", courseHandler.Archives)
		dashboard.GET("/courses/:id/archives/export", courseHandler.ExportArchives)
		dashboard.GET("/courses/:id/students", enrollmentHandler.ListStudents)
		dashboard.PUT("/courses/:id/payments", enrollmentHandler.UpdatePayments)

		dashboard.POST("/enrollments", enrollmentHandler.AddStudent)
		dashboard.POST("/enrollments/remove", enrollmentHandler.RemoveStudent)

		dashboard.GET("/classrooms", classroomHandler.List)
		dashboard.POST("/classrooms", classroomHandler.Create)
		dashboard.GET("/classrooms/:id", classroomHandler.Get)
		dashboard.PUT("/classrooms/:id", classroomHandler.Update)
		dashboard.DELETE("/classrooms/:id", classroomHandler.Delete)

		dashboard.GET("/schedule", scheduleHandler.Week)
		dashboard.POST("/schedule/sessions", scheduleHandler.Assign)
		dashboard.GET("/schedule/sessions/:id", scheduleHandler.Get)
		dashboard.PUT("/schedule/sessions/:id", scheduleHandler.Update)
		dashboard.DELETE("/schedule/sessions/:id", scheduleHandler.Delete)

		dashboard.GET("/notifications", notificationHandler.List)
		dashboard.POST("/notifications/resolve", notificationHandler.Resolve)

		dashboard.GET("/instructors", courseHandler.Instructors)
		dashboard.GET("/tags", courseHandler.Tags)
		dashboard.PUT("/tags/:id", courseHandler.UpdateTag)
		dashboard.DELETE("/tags/:id", courseHandler.DeleteTag)
	}

	mobile := authed.Group("/catalog")
	mobile.Use(middleware.RequireRoles(models.RoleStudent))
	{
		mobile.GET("/courses", catalogHandler.Courses)
		mobile.GET("/courses/:id", catalogHandler.Course)
		mobile.GET("/schedule", catalogHandler.Schedule)
		mobile.GET("/tags", catalogHandler.Tags)
		mobile.POST("/register", catalogHandler.Register)
		mobile.POST("/comments", catalogHandler.Comment)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
