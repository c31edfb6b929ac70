package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	payablesapp "github.com/payables/backend/internal/application/payables"
	"github.com/payables/backend/internal/infrastructure/auth"
	"github.com/payables/backend/internal/infrastructure/cache"
	"github.com/payables/backend/internal/infrastructure/config"
	"github.com/payables/backend/internal/infrastructure/logger"
	"github.com/payables/backend/internal/infrastructure/persistence"
	"github.com/payables/backend/internal/infrastructure/storage"
	"github.com/payables/backend/internal/infrastructure/telemetry"
	"github.com/payables/backend/internal/interfaces/http/handler"
	"github.com/payables/backend/internal/interfaces/http/middleware"
	"github.com/payables/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Payables Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize OpenTelemetry tracer and meter providers
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
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
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
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize database connection
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Object storage for attachments
	objectStorage, err := storage.NewObjectStorage(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	log.Info("Object storage initialized", zap.String("driver", cfg.Storage.Driver))

	// Lock store for serializing release operations. Redis when available,
	// in-memory otherwise.
	lockFactory := cache.NewLockStoreFactory(cfg.Redis, cache.WithLogger(log))
	lockStore, err := lockFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize lock store", zap.Error(err))
	}

	// Initialize repositories
	vendorRepo := persistence.NewGormVendorRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	requisitionRepo := persistence.NewGormCheckRequisitionRepository(db.DB)
	disbursementRepo := persistence.NewGormDisbursementRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)
	remarkRepo := persistence.NewGormRemarkRepository(db.DB)
	activityLogRepo := persistence.NewGormActivityLogRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Business metrics for release activity and pending workload
	payablesMetrics, err := telemetry.NewPayablesMetrics(telemetry.PayablesMetricsConfig{
		Meter:  meterProvider.Meter("payables"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize payables metrics", zap.Error(err))
	}
	defer payablesMetrics.Stop()

	// Initialize application services
	masterdataService := payablesapp.NewMasterdataService(vendorRepo, projectRepo, purchaseOrderRepo)
	purchaseOrderService := payablesapp.NewPurchaseOrderService(purchaseOrderRepo, invoiceRepo, activityLogRepo, txManager)
	invoiceService := payablesapp.NewInvoiceService(invoiceRepo, purchaseOrderRepo, activityLogRepo, txManager)
	requisitionService := payablesapp.NewRequisitionService(requisitionRepo, invoiceRepo, purchaseOrderRepo, activityLogRepo, txManager)
	disbursementService := payablesapp.NewDisbursementService(
		disbursementRepo, requisitionRepo, invoiceRepo, activityLogRepo, txManager, lockStore,
		payablesapp.WithUndoWindow(cfg.Undo.Window),
		payablesapp.WithPayablesMetrics(payablesMetrics),
	)
	boardService := payablesapp.NewBoardService(disbursementRepo, requisitionRepo, vendorRepo, projectRepo)
	attachmentService := payablesapp.NewAttachmentService(attachmentRepo, activityLogRepo, objectStorage)
	auditService := payablesapp.NewAuditService(remarkRepo, activityLogRepo)

	// Pending workload gauges poll the disbursement service
	payablesMetrics.SetPendingProvider(disbursementService)
	payablesMetrics.StartPeriodicCollection(ctx, 5*time.Minute)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		System: handler.NewSystemHandler(map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error { return db.Ping() },
		}),
		Masterdata:    handler.NewMasterdataHandler(masterdataService),
		PurchaseOrder: handler.NewPurchaseOrderHandler(purchaseOrderService),
		Invoice:       handler.NewInvoiceHandler(invoiceService),
		Requisition:   handler.NewRequisitionHandler(requisitionService),
		Disbursement:  handler.NewDisbursementHandler(disbursementService),
		Board:         handler.NewBoardHandler(boardService),
		Attachment:    handler.NewAttachmentHandler(attachmentService),
		Audit:         handler.NewAuditHandler(auditService),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

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
	// 7. Tracing - Produce request spans
	// 8. Metrics - Record HTTP metrics
	// 9. RateLimit - Apply rate limiting (if configured)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.RequestLogger(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health endpoints outside API versioning
	engine.GET("/health", handlers.System.Health)
	engine.GET("/ready", handlers.System.Ready)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths, "/api/v1/system/info")
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	r.Use(middleware.TracingAttributeInjector())

	router.RegisterPayablesRoutes(r, handlers)
	r.Setup()

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
