package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bharathj0410/leadrabbit/config"
	"github.com/bharathj0410/leadrabbit/pkg/api/handlers"
	custommw "github.com/bharathj0410/leadrabbit/pkg/api/middleware"
	"github.com/bharathj0410/leadrabbit/pkg/auth"
	"github.com/bharathj0410/leadrabbit/pkg/cache"
	"github.com/bharathj0410/leadrabbit/pkg/calendar"
	"github.com/bharathj0410/leadrabbit/pkg/database"
	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/ingest"
	"github.com/bharathj0410/leadrabbit/pkg/jobs"
	"github.com/bharathj0410/leadrabbit/pkg/leads"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/metrics"
	custommiddleware "github.com/bharathj0410/leadrabbit/pkg/middleware"
	"github.com/bharathj0410/leadrabbit/pkg/store"
	"github.com/bharathj0410/leadrabbit/pkg/tenant"
)

func main() {
	cfg := config.Load()
	appLog := logger.New(cfg.LogLevel)
	appLog.Info("configuration loaded", "environment", cfg.APIEnvironment)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.MongoURI == "" {
		log.Fatal("MONGODB_URI is required")
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			appLog.Warn("sentry init failed", "error", err)
		} else {
			appLog.Info("sentry initialized", "environment", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		appLog.Info("sentry disabled")
	}

	// MongoDB
	db, err := database.NewClient(cfg.MongoURI)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			appLog.Error("mongodb disconnect failed", "error", err)
		}
	}()

	// Redis
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// Prometheus metrics
	prometheusMetrics := metrics.New()

	// Tenant registry and directory
	registry := store.NewRegistry(db.Database(cfg.RegistryDatabase))
	directory := tenant.NewDirectory(db, registry, cfg.DefaultDatabase)

	openTenant := func(name string) domain.TenantStore {
		return directory.ResolveByName(name)
	}

	// Auth
	tokenBlacklist := auth.NewTokenBlacklist(redisClient)
	resolver := auth.NewResolver(cfg.JWTSecret, openTenant, tokenBlacklist)

	// Calendar bridge
	calendarService := calendar.NewService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.StateSigningKey,
		appLog.With("component", "calendar"),
	)

	// Lead service
	leadService := leads.NewService(calendarService, appLog.With("component", "leads"))

	// Ingestion adapters
	facebookAdapter := ingest.NewFacebookAdapter(cfg.FacebookAppSecret, appLog.With("source", "facebook"))
	magicbricksAdapter := ingest.NewMagicbricksAdapter(cfg.MagicbricksAuthToken, appLog.With("source", "magicbricks"))
	acresAdapter := ingest.NewAcresAdapter(
		ingest.NewHTTPAcresClient(cfg.AcresAPIBaseURL),
		time.Duration(cfg.AcresMaxWindowHours)*time.Hour,
		time.Duration(cfg.AcresMaxLookbackDays)*24*time.Hour,
		appLog.With("source", "99acres"),
	)

	// Cron jobs
	cronManager := jobs.NewCronManager(directory, acresAdapter, appLog.With("component", "cron"))
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("failed to setup cron jobs: %v", err)
	}
	cronManager.Start()

	// Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommiddleware.NewRateLimiter(5, 2)       // login brute-force guard
	webhookRateLimiter := custommiddleware.NewRateLimiter(300, 50) // push sources burst hard

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			appLog.Info("request", "method", c.Request().Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.FrontendURL, cfg.CORSAllowedOrigins...)))
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.SecurityHeadersConfig{}))
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, openTenant, tokenBlacklist, prometheusMetrics)
	leadHandler := handlers.NewLeadHandler(leadService)
	webhookHandler := handlers.NewWebhookHandler(directory, facebookAdapter, magicbricksAdapter, appLog.With("component", "webhook"))
	calendarHandler := handlers.NewCalendarHandler(calendarService, directory, cfg.FrontendURL, appLog.With("component", "calendar"))
	integrationHandler := handlers.NewIntegrationHandler(cronManager)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	// Public endpoints
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "LeadRabbit API",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")

	// Webhook ingress: tenant resolved from the path secret, no session.
	v1.POST("/webhook/:source/:webhookId", webhookHandler.Receive, webhookRateLimiter.RateLimitMiddleware())

	// Calendar OAuth callback arrives from Google outside any session.
	v1.GET("/calendar/callback", calendarHandler.Callback)

	// Auth
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login, authRateLimiter.RateLimitMiddleware())
		authRoutes.POST("/logout", authHandler.Logout, custommw.Session(resolver))
		authRoutes.GET("/me", authHandler.Me, custommw.Session(resolver))
		authRoutes.POST("/heartbeat", authHandler.Heartbeat, custommw.Session(resolver))
	}

	// Protected routes
	protected := v1.Group("")
	protected.Use(custommw.Session(resolver))
	{
		leadsGroup := protected.Group("/leads")
		{
			leadsGroup.GET("", leadHandler.List)
			leadsGroup.POST("", leadHandler.Create)
			leadsGroup.GET("/:id", leadHandler.Get)
			leadsGroup.PATCH("/:id/status", leadHandler.UpdateStatus)
			leadsGroup.POST("/:id/engagements", leadHandler.UpsertEngagement)
			leadsGroup.DELETE("/:id/engagements/:engagementId", leadHandler.DeleteEngagement)
			leadsGroup.POST("/:id/meetings", leadHandler.RecordMeeting)
			leadsGroup.POST("/:id/favorite", leadHandler.ToggleFavorite)
			leadsGroup.POST("/:id/assign", leadHandler.Assign, custommw.RequireAdmin())
		}

		calendarGroup := protected.Group("/calendar")
		{
			calendarGroup.GET("/connect", calendarHandler.Connect)
			calendarGroup.GET("/status", calendarHandler.Status)
			calendarGroup.POST("/disconnect", calendarHandler.Disconnect)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(custommw.RequireAdmin())
		{
			adminGroup.GET("/agents", authHandler.Agents)
			adminGroup.GET("/integrations", integrationHandler.List)
			adminGroup.PATCH("/integrations/:id", integrationHandler.SetActive)
			adminGroup.POST("/integrations/sync", integrationHandler.TriggerSync)
		}
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	appLog.Info("starting server",
		"address", address,
		"log_level", cfg.LogLevel,
		"jwt_expiration_minutes", cfg.JWTExpirationMinutes,
		"rate_limit_rpm", cfg.RateLimitRequestsPerMinute,
	)

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down")

	cronManager.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	appLog.Info("server stopped")
}
