package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/uniplan/uniplan-api/api/swagger"
	"github.com/uniplan/uniplan-api/internal/engine"
	"github.com/uniplan/uniplan-api/internal/handler"
	internalmiddleware "github.com/uniplan/uniplan-api/internal/middleware"
	"github.com/uniplan/uniplan-api/internal/models"
	"github.com/uniplan/uniplan-api/internal/repository"
	"github.com/uniplan/uniplan-api/internal/service"
	"github.com/uniplan/uniplan-api/internal/timetable"
	"github.com/uniplan/uniplan-api/pkg/cache"
	"github.com/uniplan/uniplan-api/pkg/config"
	"github.com/uniplan/uniplan-api/pkg/database"
	"github.com/uniplan/uniplan-api/pkg/logger"
	corsmiddleware "github.com/uniplan/uniplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uniplan/uniplan-api/pkg/middleware/requestid"
	"github.com/uniplan/uniplan-api/pkg/storage"
)

// @title UniPlan API
// @version 1.0.0
// @description University timetable administration and generation gateway
// @BasePath /api
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The cache layer degrades to pass-through without redis.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	if err := service.RegisterTimeFormat(validate); err != nil {
		logr.Sugar().Fatalw("failed to register validators", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	sessions := timetable.NewSessionStore(cfg.Timetable.SessionTTL)
	engineClient := engine.NewClient(cfg.Engine.URL, cfg.Engine.Timeout, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	schoolSvc := service.NewSchoolService(schoolRepo, validate, logr)
	staffSvc := service.NewStaffService(staffRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	timetableSvc := service.NewTimetableService(
		engineClient,
		allocationRepo,
		timetableRepo,
		schoolRepo,
		subjectRepo,
		cacheRepo,
		sessions,
		metricsSvc,
		validate,
		logr,
		cfg.Timetable.GeneratedCacheTTL,
	)

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export directory", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Export.SigningSecret, cfg.Export.ResultTTL)
	exportSvc := service.NewExportService(timetableSvc, exportStore, exportSigner, service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Export.ResultTTL,
		CleanupInterval: cfg.Export.CleanupInterval,
		Workers:         cfg.Export.Workers,
	}, logr)
	exportSvc.Start(context.Background())
	defer exportSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	schoolHandler := handler.NewSchoolHandler(schoolSvc)
	staffHandler := handler.NewStaffHandler(staffSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password/:token", authHandler.ResetPassword)
	}

	protected := api.Group("")
	protected.Use(internalmiddleware.JWT(authSvc))

	adminOnly := internalmiddleware.RBAC(models.RoleAdmin)
	adminOrStaff := internalmiddleware.RBAC(models.RoleAdmin, models.RoleStaff)

	users := protected.Group("/users")
	{
		users.GET("/pending", adminOnly, authHandler.ListPending)
		users.POST("/handle-approval", adminOnly, authHandler.HandleApproval)
	}

	{
		protected.GET("/schools", schoolHandler.ListSchools)
		protected.POST("/schools", adminOnly, schoolHandler.CreateSchool)
		protected.DELETE("/schools/:id", adminOnly, schoolHandler.DeleteSchool)
		protected.GET("/schools/:id/departments", schoolHandler.ListDepartments)
		protected.POST("/schools/:id/departments", adminOnly, schoolHandler.CreateDepartment)
		protected.DELETE("/departments/:id", adminOnly, schoolHandler.DeleteDepartment)
		protected.GET("/departments/:id/courses", schoolHandler.ListCourses)
		protected.POST("/departments/:id/courses", adminOnly, schoolHandler.CreateCourse)
		protected.DELETE("/courses/:id", adminOnly, schoolHandler.DeleteCourse)
		protected.GET("/courses/:id/classes", schoolHandler.ListClasses)
		protected.POST("/courses/:id/classes", adminOnly, schoolHandler.CreateClass)
		protected.GET("/classes/:id/sections", schoolHandler.ListSections)
		protected.POST("/classes/:id/sections", adminOnly, schoolHandler.CreateSection)
	}

	{
		protected.GET("/staff", staffHandler.List)
		protected.GET("/staff/:id", staffHandler.Get)
		protected.POST("/staff", adminOnly, staffHandler.Create)
		protected.PUT("/staff/:id", adminOnly, staffHandler.Update)
		protected.DELETE("/staff/:id", adminOnly, staffHandler.Delete)
	}

	{
		protected.GET("/students", studentHandler.List)
		protected.POST("/students", adminOnly, studentHandler.Create)
		protected.DELETE("/students/:id", adminOnly, studentHandler.Delete)
	}

	{
		protected.GET("/subjects", subjectHandler.List)
		protected.GET("/subjects/:id", subjectHandler.Get)
		protected.POST("/subjects", adminOnly, subjectHandler.Create)
		protected.PUT("/subjects/:id", adminOnly, subjectHandler.Update)
		protected.DELETE("/subjects/:id", adminOnly, subjectHandler.Delete)
	}

	tt := protected.Group("/timetable")
	{
		tt.POST("/allocate", adminOrStaff, timetableHandler.Allocate)
		tt.GET("/allocations", timetableHandler.Allocations)
		tt.POST("/generate", adminOrStaff, timetableHandler.Generate)
		tt.GET("/generated", timetableHandler.Generated)
		tt.GET("/sessions/:id", timetableHandler.Grid)
		tt.PUT("/sessions/:id/cells", adminOrStaff, timetableHandler.EditCell)
		tt.GET("/sessions/:id/export", timetableHandler.Export)
		tt.POST("/sessions/:id/exports", adminOrStaff, exportHandler.Enqueue)
		tt.GET("/exports/:id", exportHandler.Status)
	}

	// The signed token is the credential; no bearer auth on downloads.
	api.GET("/timetable/export/:token", exportHandler.Download)

	saved := protected.Group("/saved-timetables")
	{
		saved.GET("", timetableHandler.ListSaved)
		saved.GET("/:id", timetableHandler.GetSaved)
		saved.POST("/save", adminOrStaff, timetableHandler.Save)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
