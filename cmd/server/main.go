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

	vehicleregapp "github.com/roads-authority/backend/internal/application/vehiclereg"
	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"github.com/roads-authority/backend/internal/infrastructure/auth"
	"github.com/roads-authority/backend/internal/infrastructure/config"
	"github.com/roads-authority/backend/internal/infrastructure/logger"
	"github.com/roads-authority/backend/internal/infrastructure/migration"
	"github.com/roads-authority/backend/internal/infrastructure/persistence"
	"github.com/roads-authority/backend/internal/infrastructure/storage"
	"github.com/roads-authority/backend/internal/infrastructure/telemetry"
	"github.com/roads-authority/backend/internal/interfaces/http/handler"
	"github.com/roads-authority/backend/internal/interfaces/http/middleware"
	"github.com/roads-authority/backend/internal/interfaces/http/router"
)

// version is stamped at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logCfg := logger.DefaultConfig()
	if cfg.App.Env == "production" {
		logCfg = logger.ProductionConfig()
	}
	logCfg.Level = cfg.Log.Level
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting vehicle registration backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel,
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
	}

	// Apply pending schema migrations
	migrator, err := migration.New(sqlDB, "migrations", log)
	if err != nil {
		log.Fatal("Failed to initialize migrator", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Telemetry: tracing, metrics and continuous profiling
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
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
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.ProfilingServerAddr,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Link traces to profiles when both sides are running
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Error("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Database observability plugins
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			WithoutVariables: cfg.App.Env == "production",
		}, log)
		if err := db.DB.Use(tracingPlugin); err != nil {
			log.Fatal("Failed to register database tracing plugin", zap.Error(err))
		}
	}
	if meterProvider.IsEnabled() {
		dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("database"), telemetry.DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize database metrics", zap.Error(err))
		}
		if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
			log.Fatal("Failed to register database metrics plugin", zap.Error(err))
		}
		dbMetrics.SetSQLDB(sqlDB)
		dbMetrics.StartPoolStatsCollection(context.Background())
		defer dbMetrics.Stop()
	}

	// Initialize repository
	applicationRepo := persistence.NewGormApplicationRepository(db.DB)

	// Document storage: S3-compatible bucket when credentials are
	// configured, in-memory stub otherwise
	var documentStorage vehicleregapp.DocumentStorage
	if cfg.Storage.AccessKey != "" {
		s3Storage, err := storage.NewS3DocumentStorage(&cfg.Storage, cfg.VehicleReg.DocumentKeyPrefix,
			storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize document storage", zap.Error(err))
		}
		documentStorage = s3Storage
		log.Info("Document storage ready",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("prefix", cfg.VehicleReg.DocumentKeyPrefix))
	} else {
		if cfg.App.Env == "production" {
			log.Fatal("Document storage credentials are required in production")
		}
		documentStorage = storage.NewStubDocumentStorage()
		log.Warn("Document storage not configured, using in-memory stub")
	}

	// Initialize application services
	applicationService := vehicleregapp.NewApplicationService(applicationRepo, documentStorage, log)
	statsService := vehicleregapp.NewStatsService(applicationRepo)

	// Application-level metrics with periodic backlog collection
	if meterProvider.IsEnabled() {
		appMetrics, err := telemetry.NewApplicationMetrics(telemetry.ApplicationMetricsConfig{
			Meter:           meterProvider.Meter("vehiclereg"),
			Logger:          log,
			BacklogProvider: repositoryBacklog{repo: applicationRepo},
		})
		if err != nil {
			log.Fatal("Failed to initialize application metrics", zap.Error(err))
		}
		applicationService.SetMetrics(appMetrics)
		appMetrics.StartPeriodicCollection(context.Background(), cfg.Telemetry.MetricsExportInterval)
		defer appMetrics.Stop()
	}

	// JWT verification for the admin surface, with Redis-backed token
	// revocation when Redis is reachable
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory token blacklist", zap.Error(err))
		redisBlacklist = nil
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
		defer func() {
			if err := redisBlacklist.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	applicationHandler := handler.NewApplicationHandler(applicationService,
		cfg.VehicleReg.MaxDocumentSize, cfg.VehicleReg.RecentLimit)
	dashboardHandler := handler.NewDashboardHandler(statsService)

	readinessChecks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error {
			return sqlDB.PingContext(ctx)
		},
	}
	if redisBlacklist != nil {
		readinessChecks["redis"] = func(ctx context.Context) error {
			return redisBlacklist.GetClient().Ping(ctx).Err()
		}
	}
	systemHandler := handler.NewSystemHandler(version, readinessChecks)

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
	// 4. Tracing - OpenTelemetry spans (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. HTTP metrics / profiling labels (if enabled)
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}
	if profiler.IsEnabled() {
		engine.Use(middleware.Profiling())
	}

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Liveness and readiness endpoints outside API versioning
	systemHandler.RegisterRoutes(&engine.RouterGroup)

	// The public surface carries no authentication; submissions get their
	// own stricter per-IP limiter. The admin surface sits behind JWT.
	submitLimiter := middleware.NewRateLimiter(cfg.HTTP.SubmitRateLimitRequests, cfg.HTTP.SubmitRateLimitWindow)
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		Logger:         log,
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.RegistrarFunc(func(rg *gin.RouterGroup) {
		public := rg.Group("/vehicle-reg")
		applicationHandler.RegisterPublicRoutes(public, middleware.SubmitRateLimit(submitLimiter))

		admin := rg.Group("/vehicle-reg")
		admin.Use(jwtMiddleware)
		applicationHandler.RegisterAdminRoutes(admin)
		dashboardHandler.RegisterRoutes(admin)
	}))
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// repositoryBacklog adapts the application repository to the telemetry
// backlog interface
type repositoryBacklog struct {
	repo vehiclereg.Repository
}

func (b repositoryBacklog) StatusCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := b.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out, nil
}

func (b repositoryBacklog) PaymentOverdueCount(ctx context.Context) (int64, error) {
	return b.repo.CountPaymentOverdue(ctx, time.Now())
}
