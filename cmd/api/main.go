package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/thesisflow/thesisflow-api/api/swagger"
	"github.com/thesisflow/thesisflow-api/internal/handler"
	"github.com/thesisflow/thesisflow-api/internal/middleware"
	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/repository"
	"github.com/thesisflow/thesisflow-api/internal/service"
	"github.com/thesisflow/thesisflow-api/pkg/cache"
	"github.com/thesisflow/thesisflow-api/pkg/config"
	"github.com/thesisflow/thesisflow-api/pkg/database"
	"github.com/thesisflow/thesisflow-api/pkg/logger"
	corsmiddleware "github.com/thesisflow/thesisflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/thesisflow/thesisflow-api/pkg/middleware/requestid"
	"github.com/thesisflow/thesisflow-api/pkg/storage"
)

// @title ThesisFlow API
// @version 1.0.0
// @description Thesis management backend: workflow, documents, messaging and notifications
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsService := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	var cacheService *service.CacheService
	if cacheRepo != nil {
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Cache.DefaultTTL, logr, true)
	}

	documentStorage, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	thesisRepo := repository.NewThesisRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "thesisflow-api",
	})
	userService := service.NewUserService(userRepo, nil, logr)
	thesisService := service.NewThesisService(thesisRepo, userRepo, cacheService, metricsService, nil, logr)
	documentService := service.NewDocumentService(documentRepo, thesisRepo, documentStorage, service.DocumentConfig{
		MaxFileSizeBytes:  cfg.Documents.MaxFileSizeBytes,
		AllowedExtensions: cfg.Documents.AllowedExtensions,
	}, logr)
	messageService := service.NewMessageService(messageRepo, notificationRepo, thesisRepo, logr)
	notificationService := service.NewNotificationService(notificationRepo, cacheService, logr)
	dashboardService := service.NewDashboardService(thesisRepo, userRepo, notificationRepo, cacheService, cfg.Dashboard.CacheTTL, logr)
	exportService := service.NewExportService(thesisRepo, logr)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	thesisHandler := handler.NewThesisHandler(thesisService)
	documentHandler := handler.NewDocumentHandler(documentService)
	messageHandler := handler.NewMessageHandler(messageService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	exportHandler := handler.NewExportHandler(exportService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/dashboard", dashboardHandler.Get)

		authed.GET("/users/supervisors", userHandler.ListSupervisors)

		admin := authed.Group("/users")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("", userHandler.List)
			admin.POST("", userHandler.Create)
			admin.GET("/:id", userHandler.Get)
			admin.DELETE("/:id", userHandler.Deactivate)
		}

		theses := authed.Group("/theses")
		{
			theses.GET("", thesisHandler.List)
			theses.POST("", thesisHandler.Create)
			theses.GET("/:id", thesisHandler.Get)
			theses.PUT("/:id", thesisHandler.Update)
			theses.DELETE("/:id", thesisHandler.Delete)

			theses.POST("/:id/submit", thesisHandler.Submit)
			theses.POST("/:id/approve", thesisHandler.Approve)
			theses.POST("/:id/reject", thesisHandler.Reject)
			theses.POST("/:id/return-for-corrections", thesisHandler.ReturnForCorrections)

			theses.POST("/:id/restore", thesisHandler.Restore)
			theses.DELETE("/:id/force", thesisHandler.ForceDelete)

			theses.GET("/:id/documents", documentHandler.List)
			theses.POST("/:id/documents", documentHandler.Upload)
			theses.GET("/:id/documents/:documentId/download", documentHandler.Download)
			theses.DELETE("/:id/documents/:documentId", documentHandler.Delete)

			theses.GET("/:id/messages", messageHandler.List)
			theses.POST("/:id/messages", messageHandler.Create)
			theses.GET("/:id/messages/unread-count", messageHandler.UnreadCount)
		}

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		exports := authed.Group("/exports")
		exports.Use(middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin))
		{
			exports.GET("/theses/csv", exportHandler.ThesisRegisterCSV)
			exports.GET("/theses/pdf", exportHandler.ThesisRegisterPDF)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
