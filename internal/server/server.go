package server

import (
	"context"
	"net/http"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/config"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/jobs"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/middleware"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/ratelimiter"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/storage"

	adminHttp "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/admin/delivery/http"
	adminService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/admin/service"

	appHttp "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/application/delivery/http"
	appRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/application/repository"
	appService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/application/service"

	documentHttp "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/document/delivery/http"
	documentRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/document/repository"
	documentService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/document/service"

	msgHttp "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/delivery/http"
	msgRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/repository"
	msgService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/service"

	notiHttp "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/delivery/http"
	notifRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/repository"
	notifService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/service"

	scholarshipHttp "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/delivery/http"
	scholarshipRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/repository"
	scholarshipService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/service"

	searchService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/search/service"

	userHttp "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/delivery/http"
	userRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/repository"
	userService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *jobs.Scheduler
	logger      *zap.Logger
}

// NewServer wires every module. redisClient may be nil, in which case live
// push and message rate limiting are disabled and clients fall back to polling.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *Server {
	userRepository := userRepo.NewUserRepository(db)

	var fileStorage storage.FileStorage
	if cfg.CloudinaryURL != "" || cfg.CloudinaryCloudName != "" {
		s, err := storage.NewCloudinaryStorage(
			cfg.CloudinaryURL,
			cfg.CloudinaryCloudName,
			cfg.CloudinaryAPIKey,
			cfg.CloudinaryAPISecret,
			cfg.CloudinaryUploadFolder,
		)
		if err != nil {
			logger.Warn("cloudinary disabled", zap.Error(err))
		} else {
			fileStorage = s
		}
	}

	var scholarshipIndex searchService.ScholarshipIndex
	if cfg.MeiliSearchHost != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		idx := searchService.NewMeiliScholarshipIndex(meiliClient, logger)
		if err := idx.EnsureSettings(); err != nil {
			logger.Warn("meilisearch settings not applied", zap.Error(err))
		}
		scholarshipIndex = idx
	}

	publisher := notifService.NewPublisher(redisClient, logger)
	messageLimiter := ratelimiter.New(redisClient, cfg.MessageRateLimit)

	authSvc := userService.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTTTL, logger)
	authHandler := userHttp.NewAuthHandler(authSvc)

	adminSvc := adminService.NewAdminService(userRepository, logger)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	scholarshipRepository := scholarshipRepo.NewScholarshipRepository(db)
	scholarshipSvc := scholarshipService.NewScholarshipService(scholarshipRepository, scholarshipIndex, logger)
	scholarshipHandler := scholarshipHttp.NewScholarshipHandler(scholarshipSvc)

	scheduler := jobs.NewScheduler(30*time.Minute, logger)
	if scholarshipIndex != nil {
		reindex := jobs.NewScholarshipReindexJob(scholarshipRepository, scholarshipIndex, cfg.ReindexSchedule)
		if err := scheduler.Register(reindex); err != nil {
			logger.Warn("scholarship reindex not scheduled", zap.Error(err))
		}
	}

	applicationRepository := appRepo.NewApplicationRepository(db)
	applicationSvc := appService.NewApplicationService(applicationRepository, scholarshipRepository, userRepository, publisher, logger)
	applicationHandler := appHttp.NewApplicationHandler(applicationSvc)

	messageRepository := msgRepo.NewMessageRepository(db)
	messageSvc := msgService.NewMessageService(messageRepository, userRepository, publisher, messageLimiter, cfg.AdminEmail, logger)
	messageHandler := msgHttp.NewMessageHandler(messageSvc)

	documentRepository := documentRepo.NewDocumentRepository(db)
	documentSvc := documentService.NewDocumentService(documentRepository, fileStorage, logger)
	documentHandler := documentHttp.NewDocumentHandler(documentSvc)

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(
		notificationRepository,
		cfg.PollConversationInterval,
		cfg.PollBadgeInterval,
		redisClient != nil,
	)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics", "/api/notifications/summary"},
	}))
	router.Use(middleware.Metrics())

	router.GET("/healthz", healthCheck(db, redisClient))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(authSvc, userRepository)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	auth.Use(middleware.NewIPThrottle(cfg.AuthThrottleInterval, cfg.AuthThrottleBurst).Handler())
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
	}
	api.GET("/scholarships", scholarshipHandler.GetAllScholarships)
	api.GET("/scholarships/:id", scholarshipHandler.GetScholarship)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/applications", applicationHandler.ListApplications)
			adminGroup.GET("/conversations", messageHandler.ListConversations)

			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

			adminGroup.POST("/scholarships", scholarshipHandler.CreateScholarship)
			adminGroup.DELETE("/scholarships/:id", scholarshipHandler.DeleteScholarship)
		}

		protected.GET("/users/me", authHandler.Me)

		// Application routes
		protected.POST("/applications", applicationHandler.CreateApplication)
		protected.GET("/applications/user", applicationHandler.ListByEmail)
		protected.GET("/applications/:id", applicationHandler.GetApplication)
		protected.PUT("/applications/:id", applicationHandler.UpdateApplication)
		protected.DELETE("/applications/:id", applicationHandler.DeleteApplication)
		protected.POST("/applications/:id/toggle-reapply", applicationHandler.ToggleReapply)

		// Message routes
		protected.POST("/messages", messageHandler.SendMessage)
		protected.GET("/messages/unread-count", messageHandler.GetUnreadCount)
		protected.GET("/messages/contact", messageHandler.SupportContact)
		protected.GET("/messages/:otherUserId", messageHandler.GetConversation)
		protected.DELETE("/messages/:otherUserId", messageHandler.DeleteConversation)

		// Notification routes
		protected.GET("/notifications/summary", notificationHandler.Summary)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Document routes
		protected.POST("/documents", documentHandler.UploadDocument)
		protected.GET("/documents", documentHandler.ListDocuments)
		protected.DELETE("/documents/:id", documentHandler.DeleteDocument)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
		logger:      logger,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.scheduler.Stop(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	err := srv.Shutdown(shutdownCtx)
	s.scheduler.Stop(shutdownCtx)
	return err
}

func healthCheck(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok", "redis": "disabled"}
		code := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}

		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				// Redis only backs push and rate limiting.
				status["redis"] = "unavailable"
			}
		}

		c.JSON(code, status)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
