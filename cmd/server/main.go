package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	allocationapp "github.com/dealerhub/inventory/internal/application/allocation"
	"github.com/dealerhub/inventory/internal/infrastructure/auth"
	"github.com/dealerhub/inventory/internal/infrastructure/cache"
	"github.com/dealerhub/inventory/internal/infrastructure/config"
	"github.com/dealerhub/inventory/internal/infrastructure/event"
	"github.com/dealerhub/inventory/internal/infrastructure/logger"
	"github.com/dealerhub/inventory/internal/infrastructure/persistence"
	"github.com/dealerhub/inventory/internal/infrastructure/scheduler"
	"github.com/dealerhub/inventory/internal/infrastructure/storage"
	"github.com/dealerhub/inventory/internal/infrastructure/telemetry"
	"github.com/dealerhub/inventory/internal/interfaces/http/handler"
	"github.com/dealerhub/inventory/internal/interfaces/http/middleware"
	"github.com/dealerhub/inventory/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			DealerHub Inventory API
//	@version		1.0
//	@description	Inventory allocation and stock movement ledger for dealer networks

//	@contact.name	API Support
//	@contact.url	https://github.com/dealerhub/inventory
//	@contact.email	support@dealerhub.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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

	log.Info("Starting DealerHub Inventory",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize OpenTelemetry providers. When telemetry is disabled these
	// are no-op and cost nothing on the hot path.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		if err := loggerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	// Bridge zap logs into the OTEL pipeline when telemetry is enabled so
	// log records correlate with traces
	if cfg.Telemetry.Enabled {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          zapcore.InfoLevel,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore)
	}

	// Continuous profiling (Pyroscope)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.App.Name,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
		ProfileInuseSpace: true,
		ProfileGoroutines: true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Link CPU profiles to trace spans. Requires the profiler to be running.
	if cfg.Telemetry.Enabled && cfg.Telemetry.ProfilingEnabled {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Error("Failed to enable span profiles", zap.Error(err))
		}
	}

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

	// Database observability plugins
	if cfg.Telemetry.DBTraceEnabled {
		tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := db.DB.Use(tracingPlugin); err != nil {
			log.Fatal("Failed to register database tracing plugin", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled {
		dbMetrics, err := telemetry.NewDBMetrics(
			meterProvider.Meter("dealerhub.inventory.db"),
			telemetry.DBMetricsConfig{
				Enabled:            true,
				SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
			},
			log,
		)
		if err != nil {
			log.Fatal("Failed to initialize database metrics", zap.Error(err))
		}
		if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
			log.Fatal("Failed to register database metrics plugin", zap.Error(err))
		}
		if sqlDB, err := db.DB.DB(); err == nil {
			dbMetrics.SetSQLDB(sqlDB)
			dbMetrics.StartPoolStatsCollection(ctx)
			defer dbMetrics.Stop()
		}
	}

	// Initialize repositories
	allocationRepo := persistence.NewGormAllocationRepository(db.DB)
	ledgerRepo := persistence.NewGormStockTransactionRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Stock below minimum -> alert notification
	alertNotifier := allocationapp.NewLoggingStockAlertNotifier(log)
	stockBelowMinimumHandler := allocationapp.NewStockBelowMinimumHandler(log).
		WithNotifier(alertNotifier)
	eventBus.Subscribe(stockBelowMinimumHandler)

	log.Info("Event handlers registered",
		zap.Strings("stock_below_minimum_events", stockBelowMinimumHandler.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(ctx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	stockOperationsService := allocationapp.NewStockOperationsService(
		allocationRepo, ledgerRepo, txScope, eventBus, log,
	)

	// Idempotency store for duplicate-suppression of transfer/adjust requests
	if cfg.Idempotency.Enabled {
		storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
		idempotencyStore, err := storeFactory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() {
			if err := idempotencyStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		stockOperationsService = stockOperationsService.
			WithIdempotencyStore(idempotencyStore, cfg.Idempotency.Retention)
		log.Info("Idempotency store enabled",
			zap.Duration("retention", cfg.Idempotency.Retention),
		)
	}

	alertService := allocationapp.NewStockAlertService(allocationRepo)

	// Archive storage: S3-compatible backend when configured, in-memory
	// stub otherwise
	var archiveStorage allocationapp.ArchiveStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ArchiveStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize archive storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure archive bucket", zap.Error(err))
		}
		archiveStorage = s3Storage
		log.Info("Archive storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		archiveStorage = storage.NewStubArchiveStorage()
		log.Warn("Archive storage not configured, using in-memory stub")
	}
	archiveService := allocationapp.NewLedgerArchiveService(ledgerRepo, archiveStorage, log)

	// JWT validation (tokens are issued by the identity service)
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize stock scan scheduler (if enabled)
	var scanTrigger *scheduler.StockScanTrigger
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.SchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}
		scanExecutor := scheduler.NewStockScanExecutor(allocationRepo, alertNotifier, archiveService, log)
		scanScheduler := scheduler.NewScheduler(schedulerConfig, scanExecutor, log)
		if err := scanScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start scan scheduler", zap.Error(err))
		}
		defer func() {
			if err := scanScheduler.Stop(ctx); err != nil {
				log.Error("Error stopping scan scheduler", zap.Error(err))
			}
		}()

		triggerConfig := scheduler.DefaultStockScanTriggerConfig()
		triggerConfig.ScanInterval = cfg.Scheduler.StockScanInterval
		scanTrigger = scheduler.NewStockScanTrigger(triggerConfig, scanScheduler, allocationRepo, log)
		if err := scanTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start scan trigger", zap.Error(err))
		}
		defer func() {
			if err := scanTrigger.Stop(ctx); err != nil {
				log.Error("Error stopping scan trigger", zap.Error(err))
			}
		}()
		log.Info("Stock scan scheduler started",
			zap.Duration("scan_interval", cfg.Scheduler.StockScanInterval),
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
		)
	}

	// Business metrics with periodic allocation health collection
	if cfg.Telemetry.Enabled {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:              meterProvider.Meter("dealerhub.inventory.business"),
			Logger:             log,
			AllocationProvider: telemetry.NewGormAllocationMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		businessMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), 5*time.Minute)
		defer businessMetrics.Stop()
	}

	// Initialize HTTP handlers
	stockOperationsHandler := handler.NewStockOperationsHandler(stockOperationsService)
	allocationHandler := handler.NewAllocationHandler(stockOperationsService)
	ledgerHandler := handler.NewLedgerHandler(stockOperationsService, archiveService)
	alertHandler := handler.NewAlertHandler(alertService)
	scanHandler := handler.NewScanHandler(scanTrigger)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tracing/Metrics/Profiling - Telemetry (if enabled)
	// 8. RateLimit - Apply rate limiting (if enabled)
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

	// Telemetry middleware
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("dealerhub.inventory.http"), true))
	}
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
			Enabled:   true,
			SkipPaths: []string{"/health", "/metrics"},
		}))
	}

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint. The OpenAPI document is generated by
	// `swag init` at build time; access is gated by SwaggerProtection.
	swaggerProtection := middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}, middleware.JWTAuthMiddleware(jwtService))
	engine.GET("/swagger/*any", swaggerProtection, ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Tenant resolution runs after JWT so the claim wins over the header.
	// Not required here: handlers fall back to the development tenant.
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Required = false
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths, jwtConfig.SkipPaths...)
	tenantConfig.Logger = log
	r.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Inventory domain (stock operations)
	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "inventory service ready"})
	})
	inventoryRoutes.POST("/transfers", stockOperationsHandler.Transfer)
	inventoryRoutes.POST("/adjustments", stockOperationsHandler.Adjust)
	inventoryRoutes.POST("/reservations", stockOperationsHandler.Reserve)
	inventoryRoutes.POST("/reservations/release", stockOperationsHandler.Release)
	inventoryRoutes.POST("/deliveries", stockOperationsHandler.Deliver)
	inventoryRoutes.POST("/receipts", stockOperationsHandler.Receive)

	// Allocation domain (per dealer/product stock records)
	allocationRoutes := router.NewDomainGroup("allocations", "/allocations")
	allocationRoutes.POST("", allocationHandler.Create)
	allocationRoutes.GET("", allocationHandler.List)
	allocationRoutes.GET("/by-key", allocationHandler.GetByKey)
	allocationRoutes.GET("/:id", allocationHandler.Get)
	allocationRoutes.PUT("/:id", allocationHandler.Update)
	allocationRoutes.DELETE("/:id", allocationHandler.Delete)

	// Ledger domain (append-only stock transaction audit)
	ledgerRoutes := router.NewDomainGroup("ledger", "/ledger")
	ledgerRoutes.GET("", ledgerHandler.List)
	ledgerRoutes.GET("/reference/:reference", ledgerHandler.GetByReference)
	ledgerRoutes.GET("/summary/dealers/:id", ledgerHandler.SummarizeByDealer)
	ledgerRoutes.GET("/summary/products/:id", ledgerHandler.SummarizeByProduct)
	ledgerRoutes.POST("/archive", ledgerHandler.Archive)
	ledgerRoutes.GET("/:id", ledgerHandler.Get)

	// Alert domain (stock health reporting)
	alertRoutes := router.NewDomainGroup("alerts", "/alerts")
	alertRoutes.GET("/low-stock", alertHandler.LowStock)
	alertRoutes.GET("/critical-stock", alertHandler.CriticalStock)
	alertRoutes.GET("/out-of-stock", alertHandler.OutOfStock)
	alertRoutes.GET("/summary", alertHandler.Summary)

	// Admin domain (scan scheduler control)
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.GET("/scans", scanHandler.Status)
	adminRoutes.POST("/scans", scanHandler.Trigger)

	// System routes with swagger-documented handlers
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(inventoryRoutes).
		Register(allocationRoutes).
		Register(ledgerRoutes).
		Register(alertRoutes).
		Register(adminRoutes).
		Register(systemRoutes)

	// Setup routes
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
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
