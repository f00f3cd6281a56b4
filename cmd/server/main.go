package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appaccess "github.com/gateway/backend/internal/application/access"
	appbilling "github.com/gateway/backend/internal/application/billing"
	appcatalog "github.com/gateway/backend/internal/application/catalog"
	appcloud "github.com/gateway/backend/internal/application/cloud"
	appidentity "github.com/gateway/backend/internal/application/identity"
	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/infrastructure/auth"
	"github.com/gateway/backend/internal/infrastructure/cache"
	"github.com/gateway/backend/internal/infrastructure/config"
	"github.com/gateway/backend/internal/infrastructure/logger"
	"github.com/gateway/backend/internal/infrastructure/migration"
	"github.com/gateway/backend/internal/infrastructure/persistence"
	"github.com/gateway/backend/internal/infrastructure/telemetry"
	"github.com/gateway/backend/internal/interfaces/http/handler"
	"github.com/gateway/backend/internal/interfaces/http/middleware"
	"github.com/gateway/backend/internal/interfaces/http/router"
	"github.com/gateway/backend/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/gateway/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

//	@title			API Gateway
//	@version		1.0
//	@description	Plan-metered API gateway: plans grant endpoints, subscriptions meter calls against the plan's usage limit.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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
		_ = log.Sync()
	}()

	log.Info("Starting API gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		if err := loggerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = loggerProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilingAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowQueryThreshold),
		logger.WithIgnoreRecordNotFoundError(!cfg.Database.LogRecordNotFound),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	dbSystem := "postgresql"
	if db.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if err := migrateSchema(db, cfg.Database.AutoMigrate, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Repositories and infrastructure
	planRepo := persistence.NewGormPlanRepository(db.DB)
	permRepo := persistence.NewGormPermissionRepository(db.DB)
	planPermRepo := persistence.NewGormPlanPermissionRepository(db.DB)
	subRepo := persistence.NewGormSubscriptionRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	entitlementCache := cache.NewEntitlementCache(cfg.Redis, cfg.Gateway.EntitlementCacheTTL, log)
	defer func() {
		if err := entitlementCache.Close(); err != nil {
			log.Error("Error closing entitlement cache", zap.Error(err))
		}
	}()

	gatewayMeter := meterProvider.Meter("gateway")
	gatewayMetrics, err := telemetry.NewGatewayMetrics(gatewayMeter)
	if err != nil {
		log.Fatal("Failed to create gateway metrics", zap.Error(err))
	}
	if stats, ok := entitlementCache.(cache.StatsProvider); ok {
		if _, err := telemetry.RegisterEntitlementCacheMetrics(gatewayMeter, func() telemetry.CacheStats {
			s := stats.Stats()
			return telemetry.CacheStats{Entries: int64(s.Size), Hits: s.Hits, Misses: s.Misses}
		}); err != nil {
			log.Warn("Failed to register entitlement cache metrics", zap.Error(err))
		}
	}

	matcher, err := access.NewEndpointMatcher(access.MatchPolicy(cfg.Gateway.MatchPolicy))
	if err != nil {
		log.Fatal("Invalid endpoint match policy", zap.Error(err))
	}

	retry := appbilling.DefaultRetryConfig()
	retry.MaxAttempts = uint(cfg.Gateway.IncrementRetries)
	retry.InitialBackoff = cfg.Gateway.RetryBackoff

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := appidentity.NewAuthService(userRepo, jwtService, log)
	planService := appcatalog.NewPlanService(planRepo, permRepo, planPermRepo, scope, entitlementCache, log)
	permissionService := appcatalog.NewPermissionService(permRepo, planPermRepo, scope, entitlementCache, log)
	subscriptionService := appbilling.NewSubscriptionService(subRepo, planRepo, userRepo, log)
	meteringService := appbilling.NewMeteringService(subRepo, planRepo, retry, log)
	evaluator := appaccess.NewEvaluator(scope, matcher, appaccess.NewEntitlementResolver(entitlementCache, log))
	gateway := appaccess.NewGateway(scope, evaluator, meteringService, appaccess.GatewayConfig{
		Metrics: gatewayMetrics,
	}, log)
	cloudService := appcloud.NewService(gateway, log)

	log.Info("Gateway configured",
		zap.String("match_policy", string(evaluator.MatchPolicy())),
		zap.Uint("increment_attempts", retry.MaxAttempts),
	)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.ProfilingLabels(profiler.IsEnabled()))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)

	r := router.NewRouter(engine)
	router.RegisterGateway(r, router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Plan:         handler.NewPlanHandler(planService),
		Permission:   handler.NewPermissionHandler(permissionService),
		Subscription: handler.NewSubscriptionHandler(subscriptionService),
		Usage:        handler.NewUsageHandler(meteringService, evaluator),
		Cloud:        handler.NewCloudHandler(cloudService),
		System:       systemHandler,
	}, router.Guards{
		Authenticate:  middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		RequireAdmin:  middleware.RequireAdmin(),
		AuthRateLimit: middleware.RateLimit(authLimiter),
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// migrateSchema brings the schema up to date. SQLite always uses the model
// definitions; PostgreSQL runs the embedded SQL migrations when auto is set
// and otherwise expects cmd/migrate to have been run.
func migrateSchema(db *persistence.Database, auto bool, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		return db.AutoMigrate()
	}
	if !auto {
		log.Info("Skipping migrations; run cmd/migrate to update the schema")
		return nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	migrator, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return migrator.Up()
}
