package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kelaskita/affiliate-api/api/swagger"
	"github.com/kelaskita/affiliate-api/internal/handler"
	"github.com/kelaskita/affiliate-api/internal/middleware"
	"github.com/kelaskita/affiliate-api/internal/repository"
	"github.com/kelaskita/affiliate-api/internal/service"
	"github.com/kelaskita/affiliate-api/migrations"
	"github.com/kelaskita/affiliate-api/pkg/cache"
	"github.com/kelaskita/affiliate-api/pkg/config"
	"github.com/kelaskita/affiliate-api/pkg/database"
	"github.com/kelaskita/affiliate-api/pkg/logger"
	corsmiddleware "github.com/kelaskita/affiliate-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kelaskita/affiliate-api/pkg/middleware/requestid"
)

// @title Affiliate Back Office API
// @version 1.0.0
// @description Affiliate registration, referral tracking and payout management
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

	// Monetary values are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, migrations.FS, "."); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
		logr.Info("database migrations applied")
	}

	cacheRepo := repository.NewCacheRepository(nil)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo = repository.NewCacheRepository(redisClient)
		defer cacheRepo.Close() //nolint:errcheck
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewProgramRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	linkClickRepo := repository.NewLinkClickRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)

	metricsSvc := service.NewMetricsService()
	notifier := service.NewNotificationService(logr)
	affiliateSvc := service.NewAffiliateService(userRepo, cfg.Affiliate, logr)
	authSvc := service.NewAuthService(userRepo, affiliateSvc, notifier, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	programSvc := service.NewProgramService(programRepo, validate, logr)
	trackingSvc := service.NewTrackingService(linkClickRepo, registrationRepo, userRepo, cacheRepo, cfg.Stats.CacheTTL, metricsSvc, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, userRepo, programRepo, notifier, trackingSvc, validate, logr)
	payoutSvc := service.NewPayoutService(payoutRepo, userRepo, registrationRepo, notifier, validate, logr)
	reportSvc := service.NewReportService(payoutRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	programHandler := handler.NewProgramHandler(programSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	trackingHandler := handler.NewTrackingHandler(trackingSvc)
	payoutHandler := handler.NewPayoutHandler(payoutSvc)
	affiliateHandler := handler.NewAffiliateHandler(affiliateSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
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

	auth := middleware.JWT(authSvc)
	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", auth, authHandler.Logout)

	api.GET("/programs", programHandler.List)
	api.GET("/programs/:id", programHandler.Get)
	api.GET("/programs/commission-rate", programHandler.CommissionRate)
	api.POST("/programs", auth, middleware.RBAC("admin"), programHandler.Create)
	api.PUT("/programs/:id", auth, middleware.RBAC("admin"), programHandler.Update)
	api.DELETE("/programs/:id", auth, middleware.RBAC("admin"), programHandler.Delete)

	api.POST("/registrations", registrationHandler.Create)
	api.GET("/registrations", auth, middleware.RBAC("admin"), registrationHandler.List)
	api.PUT("/registrations/:id/verify", auth, middleware.RBAC("admin"), registrationHandler.VerifyPayment)
	api.GET("/affiliates/:id/registrations", auth, middleware.RBAC("admin", middleware.SelfParam), registrationHandler.ListByAffiliate)

	api.POST("/track/click", trackingHandler.TrackClick)
	api.GET("/affiliates/:id/stats", auth, middleware.RBAC("admin", middleware.SelfParam), trackingHandler.Stats)
	api.GET("/affiliates/:id/clicks", auth, middleware.RBAC("admin", middleware.SelfParam), trackingHandler.ListClicks)

	api.POST("/payouts", auth, middleware.RBAC("affiliate"), payoutHandler.Create)
	api.GET("/payouts", auth, middleware.RBAC("admin"), payoutHandler.List)
	api.PUT("/payouts/:id/status", auth, middleware.RBAC("admin"), payoutHandler.UpdateStatus)
	api.GET("/affiliates/:id/payouts", auth, middleware.RBAC("admin", middleware.SelfParam), payoutHandler.ListByAffiliate)

	api.GET("/affiliates", auth, middleware.RBAC("admin"), affiliateHandler.List)
	api.GET("/affiliates/by-code/:code", affiliateHandler.GetByCode)
	api.POST("/affiliates/generate-code", auth, middleware.RBAC("admin"), affiliateHandler.GenerateCode)

	if cfg.Reports.Enabled {
		api.GET("/reports/payouts", auth, middleware.RBAC("admin"), reportHandler.Payouts)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
