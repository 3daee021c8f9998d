package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/openmunicipal/civic-api/api/swagger"
	"github.com/openmunicipal/civic-api/internal/handler"
	"github.com/openmunicipal/civic-api/internal/middleware"
	"github.com/openmunicipal/civic-api/internal/models"
	"github.com/openmunicipal/civic-api/internal/repository"
	"github.com/openmunicipal/civic-api/internal/service"
	"github.com/openmunicipal/civic-api/pkg/cache"
	"github.com/openmunicipal/civic-api/pkg/config"
	"github.com/openmunicipal/civic-api/pkg/database"
	"github.com/openmunicipal/civic-api/pkg/logger"
	corsmiddleware "github.com/openmunicipal/civic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openmunicipal/civic-api/pkg/middleware/requestid"
)

// @title Civic Services API
// @version 1.0.0
// @description Citizen services backend: registration, municipal directory, feedback and grievance redressal
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, directory cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	grievanceRepo := repository.NewGrievanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Phone:              cfg.Phone,
	})
	directorySvc := service.NewDirectoryService(directoryRepo, cacheRepo, cfg.Directory.CacheTTL, metricsSvc, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, directoryRepo, validate, logr)
	grievanceSvc := service.NewGrievanceService(grievanceRepo, directoryRepo, userRepo, metricsSvc, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(grievanceRepo, cfg.Exports.MaxRows, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	directoryHandler := handler.NewDirectoryHandler(directorySvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	grievanceHandler := handler.NewGrievanceHandler(grievanceSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

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
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public: registration, tokens and the directory.
	r.POST("/register", authHandler.Register)
	r.POST("/token", authHandler.Token)
	r.POST("/token/refresh", authHandler.Refresh)
	r.GET("/states", directoryHandler.ListStates)
	r.GET("/municipalities", directoryHandler.ListMunicipalities)
	r.GET("/municipalities/:municipalityID/departments", directoryHandler.ListDepartments)

	authed := r.Group("/", middleware.JWT(authSvc))
	authed.GET("/profile", authHandler.Profile)

	citizen := authed.Group("/", middleware.RequireRoles(models.RoleCitizen))
	citizen.POST("/municipalities/:municipalityID/departments/:departmentID/feedback", feedbackHandler.Create)
	citizen.POST("/municipalities/:municipalityID/departments/:departmentID/grievance", grievanceHandler.Create)
	citizen.GET("/feedback", feedbackHandler.ListOwn)

	authed.GET("/grievances", grievanceHandler.List)
	authed.GET("/grievances/:id", grievanceHandler.Get)

	official := authed.Group("/", middleware.RequireRoles(models.RoleOfficial))
	official.POST("/grievances/:id/respond", grievanceHandler.Respond)
	official.PATCH("/grievances/:id/status", grievanceHandler.UpdateStatus)
	if exportSvc != nil {
		official.GET("/grievances/export",
			middleware.Audit(userRepo, models.AuditActionExport, "grievance"),
			grievanceHandler.Export,
		)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
