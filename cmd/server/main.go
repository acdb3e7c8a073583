package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	billingapp "github.com/rentledger/backend/internal/application/billing"
	notificationapp "github.com/rentledger/backend/internal/application/notification"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/domain/notification"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/rentledger/backend/internal/infrastructure/config"
	"github.com/rentledger/backend/internal/infrastructure/event"
	"github.com/rentledger/backend/internal/infrastructure/logger"
	"github.com/rentledger/backend/internal/infrastructure/metrics"
	"github.com/rentledger/backend/internal/infrastructure/notifier"
	"github.com/rentledger/backend/internal/infrastructure/persistence"
	"github.com/rentledger/backend/internal/infrastructure/scheduler"
	"github.com/rentledger/backend/internal/interfaces/http/handler"
	"github.com/rentledger/backend/internal/interfaces/http/middleware"
	"github.com/rentledger/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting RentLedger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Run schema migrations
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	if err := db.DB.AutoMigrate(&scheduler.AccrualRunRecord{}); err != nil {
		log.Fatal("Failed to migrate accrual run table", zap.Error(err))
	}

	// Initialize repositories
	billRepo := persistence.NewGormBillRepository(db.DB)
	penaltyLogRepo := persistence.NewGormPenaltyLogRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Outbound email channel: real SMTP when configured, no-op otherwise
	var emailSender notification.EmailSender
	if cfg.SMTP.Enabled {
		emailSender = notifier.NewSMTPEmailSender(cfg.SMTP, log)
		log.Info("SMTP email delivery enabled", zap.String("host", cfg.SMTP.Host))
	} else {
		emailSender = notifier.NewNoopEmailSender(log)
	}

	// Realtime channel over Redis Pub/Sub when Redis is configured
	var realtimePublisher *notifier.RedisNotificationPublisher
	if cfg.Redis.Enabled {
		realtimePublisher, err = notifier.NewRedisNotificationPublisher(
			cfg.Redis.Addr(),
			cfg.Redis.Password,
			cfg.Redis.DB,
			notifier.WithPublisherLogger(log),
		)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := realtimePublisher.Close(); err != nil {
				log.Error("Error closing Redis publisher", zap.Error(err))
			}
		}()
		log.Info("Realtime notifications enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	// Subscribe the penalty notification handler to billing events
	penaltyNotifications := notificationapp.NewPenaltyNotificationHandler(notificationRepo, log).
		WithEmail(emailSender, notifier.NewStaticContactDirectory())
	if realtimePublisher != nil {
		penaltyNotifications = penaltyNotifications.WithRealtimePublisher(realtimePublisher)
	}
	eventBus.Subscribe(penaltyNotifications)

	// Prometheus metrics (private registry, exposed on /metrics)
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics()
		log.Info("Prometheus metrics enabled")
	}

	// Initialize application services
	clock := shared.RealClock{}
	penaltyPolicy := billing.NewDailyRatePolicy(cfg.Penalty.RatePerDay)

	billService := billingapp.NewBillService(billRepo, eventBus, clock)
	paymentService := billingapp.NewPaymentService(billRepo, eventBus, clock)

	penaltyOpts := []billingapp.PenaltyAccrualServiceOption{
		billingapp.WithBatchParallelism(cfg.Penalty.BatchParallelism),
	}
	if m != nil {
		penaltyOpts = append(penaltyOpts, billingapp.WithAccrualMetrics(m))
	}
	penaltyService := billingapp.NewPenaltyAccrualService(
		billRepo, penaltyLogRepo, penaltyPolicy, eventBus, clock, log, penaltyOpts...)

	notificationService := notificationapp.NewNotificationService(notificationRepo, clock)

	// Daily accrual scheduler
	var accrualScheduler *scheduler.PenaltyCronScheduler
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultPenaltyCronSchedulerConfig()
		schedulerConfig.RunHour = cfg.Scheduler.RunHour
		schedulerConfig.RunMinute = cfg.Scheduler.RunMinute

		runRepo := scheduler.NewAccrualRunRepository(db.DB)
		accrualScheduler = scheduler.NewPenaltyCronScheduler(schedulerConfig, penaltyService, runRepo, log)
		if err := accrualScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start accrual scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := accrualScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping accrual scheduler", zap.Error(err))
			}
		}()
		log.Info("Accrual scheduler started",
			zap.Int("run_hour", cfg.Scheduler.RunHour),
			zap.Int("run_minute", cfg.Scheduler.RunMinute),
		)
	} else {
		log.Info("Accrual scheduler disabled, penalties accrue via manual runs only")
	}

	// Initialize HTTP handlers
	billHandler := handler.NewBillHandler(billService, paymentService, penaltyService)
	penaltyRunHandler := handler.NewPenaltyRunHandler(accrualSchedulerOrNil(accrualScheduler), penaltyService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	systemHandler := handler.NewSystemHandler()

	// Set gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Register custom validators
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Global middleware chain
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// HTTP request metrics (no-op when metrics are disabled)
	engine.Use(middleware.HTTPMetrics(m))

	// Health check endpoint
	engine.GET("/health", healthHandler(db, log))

	// Metrics endpoint
	if m != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	// Setup versioned API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Billing domain
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/bills", billHandler.Create)
	billingRoutes.GET("/bills", billHandler.List)
	billingRoutes.GET("/bills/:id", billHandler.GetByID)
	billingRoutes.POST("/bills/:id/payments", billHandler.RecordPayment)
	billingRoutes.GET("/bills/:id/penalty", billHandler.PreviewPenalty)
	billingRoutes.POST("/bills/:id/penalty/adjust", billHandler.AdjustPenalty)
	billingRoutes.GET("/bills/:id/penalty/history", billHandler.PenaltyHistory)

	// Penalty accrual runs
	penaltyRoutes := router.NewDomainGroup("penalties", "/penalties")
	penaltyRoutes.POST("/run", penaltyRunHandler.TriggerRun)
	penaltyRoutes.GET("/status", penaltyRunHandler.GetStatus)

	// Renter notification inbox
	notificationRoutes := router.NewDomainGroup("notifications", "/notifications")
	notificationRoutes.GET("", notificationHandler.List)
	notificationRoutes.GET("/unread-count", notificationHandler.UnreadCount)
	notificationRoutes.POST("/:id/read", notificationHandler.MarkRead)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(billingRoutes).
		Register(penaltyRoutes).
		Register(notificationRoutes).
		Register(systemRoutes)

	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// accrualSchedulerOrNil avoids handing the run handler a typed nil that would
// fail its interface nil check when the scheduler is disabled.
func accrualSchedulerOrNil(s *scheduler.PenaltyCronScheduler) handler.AccrualScheduler {
	if s == nil {
		return nil
	}
	return s
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
