package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/brokerage/internal/cache"
	"github.com/stwalsh4118/brokerage/internal/config"
	"github.com/stwalsh4118/brokerage/internal/database"
	"github.com/stwalsh4118/brokerage/internal/handlers"
	"github.com/stwalsh4118/brokerage/internal/i18n"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/middleware"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/repository"
	"github.com/stwalsh4118/brokerage/internal/scheduler"
	"github.com/stwalsh4118/brokerage/internal/services"
	"github.com/stwalsh4118/brokerage/internal/session"
	"github.com/stwalsh4118/brokerage/internal/storage"
)

const (
	shutdownTimeout = 30 * time.Second
	// limiterIdle is how long a client may stay quiet before its rate limit
	// state is dropped.
	limiterIdle = 10 * time.Minute
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting brokerage API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.AutoMigrate {
		applied, err := db.Migrate(ctx)
		if err != nil {
			log.Fatal("Failed to apply migrations", err, nil)
		}
		log.Info("Migrations up to date", map[string]interface{}{
			"applied": applied,
		})
	}

	// Redis backs the query cache and the edit sessions
	redisClient, err := cache.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", err, nil)
	}
	defer redisClient.Close()

	queryCache := cache.NewQueryCache(redisClient, cfg.Redis.CacheTTL, log)
	editSessions := session.NewRedisStore(redisClient, cfg.Redis.EditSessionTTL)

	photoStore, err := storage.NewPhotoStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize photo storage", err, map[string]interface{}{
			"endpoint": cfg.Storage.Endpoint,
			"bucket":   cfg.Storage.Bucket,
		})
	}

	// Message catalog for error and validation output
	catalog, err := i18n.NewCatalog()
	if err != nil {
		log.Fatal("Failed to load message catalog", err, nil)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := catalog.RegisterValidator(v); err != nil {
			log.Fatal("Failed to register validation messages", err, nil)
		}
	}

	// Initialize repository and service layers
	propertyRepo := repository.NewPropertyRepository(db)
	changeRequestRepo := repository.NewChangeRequestRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)

	propertyService := services.NewPropertyService(propertyRepo, queryCache, log)
	changeRequestService := services.NewChangeRequestService(propertyRepo, changeRequestRepo, queryCache, log)
	editSessionService := services.NewEditSessionService(propertyRepo, changeRequestService, editSessions, log)
	photoService := services.NewPhotoService(photoStore, cfg.Storage.UploadMaxBytes, log)
	tokenService := services.NewTokenService(tokenRepo, propertyRepo, cfg.Tokens.TTL, log)
	leadService := services.NewLeadService(leadRepo, queryCache, log)
	referenceService := services.NewReferenceService(referenceRepo, queryCache, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, handlers.PingFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}), cfg.Server.Env)
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	changeRequestHandler := handlers.NewChangeRequestHandler(changeRequestService)
	editSessionHandler := handlers.NewEditSessionHandler(editSessionService)
	uploadHandler := handlers.NewUploadHandler(photoService)
	tokenHandler := handlers.NewTokenHandler(tokenService)
	leadHandler := handlers.NewLeadHandler(leadService)
	referenceHandler := handlers.NewReferenceHandler(referenceService)

	limiter := middleware.NewLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst)

	jobs, err := scheduler.New(cfg.Tokens, tokenService, limiter, limiterIdle, log)
	if err != nil {
		log.Fatal("Failed to configure scheduler", err, nil)
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.Storage.UploadMaxBytes

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS -> Locale
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(middleware.Locale(catalog))

	// Register health check routes
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	api := router.Group("/api")

	// Shared form links are public and rate limited per client
	public := api.Group("", middleware.RateLimit(limiter))
	{
		public.GET("/offer-tokens/:token/validate", tokenHandler.ValidateOffer)
		public.POST("/offer-tokens/:token/submit", tokenHandler.SubmitOffer)
		public.GET("/rental-form-tokens/:token/validate", tokenHandler.ValidateRentalForm)
		public.POST("/rental-form-tokens/:token/submit", tokenHandler.SubmitRentalForm)
	}

	authed := api.Group("", middleware.Auth([]byte(cfg.Auth.JWTSecret)))
	{
		authed.GET("/colonies/approved", referenceHandler.Colonies)
		authed.GET("/condominiums/approved", referenceHandler.Condominiums)

		authed.POST("/upload/property-photo",
			middleware.RequireRole(models.RoleOwner, models.RoleAdmin), uploadHandler.PropertyPhoto)

		owner := authed.Group("/owner", middleware.RequireRole(models.RoleOwner))
		{
			owner.GET("/properties", propertyHandler.ListOwned)
			owner.GET("/properties/:id", propertyHandler.GetOwned)
			owner.POST("/properties/:id/diff", changeRequestHandler.Preview)

			edit := owner.Group("/properties/:id/edit-session")
			{
				edit.POST("", editSessionHandler.Start)
				edit.GET("", editSessionHandler.Get)
				edit.DELETE("", editSessionHandler.Discard)
				edit.PUT("/form", editSessionHandler.UpdateForm)
				edit.PATCH("/photos", editSessionHandler.ApplyPhotoOp)
				edit.POST("/submit", editSessionHandler.Submit)
			}

			owner.GET("/change-requests", changeRequestHandler.ListOwned)
			owner.POST("/change-requests", changeRequestHandler.Submit)
		}

		admin := authed.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/properties", propertyHandler.List)
			admin.PATCH("/properties/bulk-approve", propertyHandler.BulkApprove)
			admin.PATCH("/properties/bulk-reject", propertyHandler.BulkReject)
			admin.PATCH("/properties/:id/approve", propertyHandler.Approve)
			admin.PATCH("/properties/:id/reject", propertyHandler.Reject)
			admin.PATCH("/properties/:id/publish", propertyHandler.SetPublished)
			admin.PATCH("/properties/:id/featured", propertyHandler.SetFeatured)

			admin.GET("/change-requests", changeRequestHandler.ListPending)
			admin.PATCH("/change-requests/:id/approve", changeRequestHandler.Approve)
			admin.PATCH("/change-requests/:id/reject", changeRequestHandler.Reject)
		}
		authed.DELETE("/properties/:id", middleware.RequireRole(models.RoleAdmin), propertyHandler.Delete)

		issuers := middleware.RequireRole(models.RoleAgent, models.RoleAdmin, models.RoleExternalAgent)
		authed.POST("/offer-tokens", issuers, tokenHandler.GenerateOffer)
		authed.POST("/rental-form-tokens", issuers, tokenHandler.GenerateRentalForm)
		authed.GET("/external/offer-tokens", issuers, tokenHandler.ListOfferTokens)
		authed.PATCH("/external/offers/:id",
			middleware.RequireRole(models.RoleExternalAgent, models.RoleAdmin), tokenHandler.UpdateOffer)

		leads := authed.Group("/leads", middleware.RequireRole(models.RoleAgent, models.RoleAdmin))
		{
			leads.GET("", leadHandler.List)
			leads.POST("", leadHandler.Create)
			leads.PATCH("/:id", leadHandler.Update)
			leads.PATCH("/:id/status", leadHandler.UpdateStatus)
			leads.PATCH("/:id/reassign", leadHandler.Reassign)
		}
	}

	jobs.Start()

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler forced to stop", err, nil)
	}

	log.Info("Server exited", nil)
}
