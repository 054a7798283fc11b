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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/webcapz/campus-portal-api/api/swagger"
	"github.com/webcapz/campus-portal-api/internal/handler"
	"github.com/webcapz/campus-portal-api/internal/middleware"
	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	"github.com/webcapz/campus-portal-api/internal/service"
	"github.com/webcapz/campus-portal-api/pkg/cache"
	"github.com/webcapz/campus-portal-api/pkg/config"
	"github.com/webcapz/campus-portal-api/pkg/database"
	"github.com/webcapz/campus-portal-api/pkg/export"
	"github.com/webcapz/campus-portal-api/pkg/logger"
	corsmiddleware "github.com/webcapz/campus-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/webcapz/campus-portal-api/pkg/middleware/requestid"
)

// @title Campus Portal API
// @version 1.0.0
// @description Role-based institution portal with QR attendance
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	defer db.Close()

	// Redis is optional: cache-backed reads fall through to the database
	// when it is unavailable.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	generalRepo := repository.NewGeneralAttendanceRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	examRepo := repository.NewExamRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	provisioningRepo := repository.NewProvisioningRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	csvExporter := export.NewCSVExporter()
	pdfExporter := export.NewPDFExporter()

	codeValidator := service.NewCodeValidator(cfg.Attendance.CoursePrefix, cfg.Attendance.GeneralPrefix, generalRepo)
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campus-portal-api",
	})
	userSvc := service.NewUserService(userRepo, studentRepo, staffRepo, logr)
	provisioningSvc := service.NewProvisioningService(provisioningRepo, userRepo, cacheRepo, nil, logr)
	cleanupSvc := service.NewCleanupService(userRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, staffRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, nil, logr)
	courseAttendanceSvc := service.NewCourseAttendanceService(attendanceRepo, studentRepo, courseRepo, staffRepo, codeValidator, nil, logr)
	generalAttendanceSvc := service.NewGeneralAttendanceService(generalRepo, codeValidator, cfg.Attendance.MinimumDwell, nil, logr)
	qrCodeSvc := service.NewQRCodeService(generalRepo, codeValidator, nil, logr)
	certificateSvc := service.NewCertificateService(certificateRepo, studentRepo, courseRepo, cacheRepo, pdfExporter, cfg.Verify.CacheTTL, nil, logr)
	examSvc := service.NewExamService(examRepo, courseRepo, studentRepo, nil, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, nil, logr)
	reportSvc := service.NewReportService(generalRepo, csvExporter, pdfExporter, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, staffRepo, courseRepo, generalRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc, provisioningSvc, cleanupSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	attendanceHandler := handler.NewAttendanceHandler(courseAttendanceSvc)
	generalHandler := handler.NewGeneralAttendanceHandler(generalAttendanceSvc)
	qrCodeHandler := handler.NewQRCodeHandler(qrCodeSvc)
	certificateHandler := handler.NewCertificateHandler(certificateSvc)
	examHandler := handler.NewExamHandler(examSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/verify/:number", certificateHandler.Verify)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))

	auth.POST("/auth/logout", authHandler.Logout)
	auth.GET("/auth/me", authHandler.Me)

	admin := middleware.RequireRoles(models.RoleAdmin)
	adminOrStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	teaching := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	student := middleware.RequireRoles(models.RoleStudent)

	auth.GET("/users", adminOrStaff, userHandler.List)
	auth.GET("/users/:id", adminOrStaff, userHandler.Get)
	auth.POST("/users", admin, userHandler.Register)
	auth.POST("/users/cleanup", admin, userHandler.Cleanup)
	auth.GET("/students", adminOrStaff, userHandler.ListStudents)
	auth.GET("/staff", adminOrStaff, userHandler.ListStaff)
	auth.GET("/students/:id/enrollments", adminOrStaff, enrollmentHandler.ListForStudent)

	auth.GET("/courses", courseHandler.List)
	auth.GET("/courses/:id", courseHandler.Get)
	auth.POST("/courses", admin, courseHandler.Create)
	auth.PUT("/courses/:id", admin, courseHandler.Update)
	auth.PUT("/courses/:id/instructor", admin, courseHandler.AssignInstructor)
	auth.GET("/courses/:id/schedules", courseHandler.ListSchedules)
	auth.POST("/courses/:id/schedules", admin, courseHandler.AddSchedule)
	auth.GET("/courses/:id/enrollments", teaching, enrollmentHandler.ListForCourse)
	auth.GET("/courses/:id/attendance", teaching, attendanceHandler.ListForCourse)
	auth.POST("/courses/:id/attendance-code", teaching, attendanceHandler.GenerateCode)

	auth.POST("/enrollments", adminOrStaff, enrollmentHandler.Enroll)
	auth.DELETE("/enrollments/:id", adminOrStaff, enrollmentHandler.Withdraw)
	auth.GET("/enrollments/me", student, enrollmentHandler.ListMine)

	scanRoutes := auth.Group("")
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewTokenBucket(cfg.RateLimit.Burst, cfg.RateLimit.PerMinute)
		scanRoutes.Use(limiter.Handler())
	}
	scanRoutes.POST("/attendance/scan", student, attendanceHandler.Scan)
	scanRoutes.POST("/general-attendance/check-in", generalHandler.CheckIn)
	scanRoutes.POST("/general-attendance/check-out", generalHandler.CheckOut)

	auth.GET("/attendance/me", student, attendanceHandler.ListMine)
	auth.GET("/general-attendance/today", generalHandler.Today)

	auth.POST("/qr-codes", admin, qrCodeHandler.Create)
	auth.GET("/qr-codes", admin, qrCodeHandler.List)
	auth.PATCH("/qr-codes/:id/active", admin, qrCodeHandler.SetActive)

	auth.POST("/certificates", admin, certificateHandler.Issue)
	auth.GET("/certificates", adminOrStaff, certificateHandler.List)
	auth.GET("/certificates/me", student, certificateHandler.ListMine)
	auth.GET("/certificates/:id/pdf", certificateHandler.DownloadPDF)

	auth.POST("/exams", teaching, examHandler.Create)
	auth.GET("/exams", examHandler.List)
	auth.POST("/exams/results", teaching, examHandler.RecordResult)
	auth.GET("/exams/:id/results", teaching, examHandler.ResultsByExam)
	auth.GET("/exams/results/me", student, examHandler.MyResults)

	auth.POST("/notifications", adminOrStaff, notificationHandler.Send)
	auth.GET("/notifications/me", notificationHandler.ListMine)
	auth.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

	auth.GET("/reports/general-attendance/csv", adminOrStaff, reportHandler.GeneralAttendanceCSV)
	auth.GET("/reports/general-attendance/pdf", adminOrStaff, reportHandler.GeneralAttendancePDF)

	auth.GET("/dashboard/stats", admin, dashboardHandler.Stats)

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
