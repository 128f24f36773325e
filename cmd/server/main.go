package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appprinting "github.com/erp/orderprint/internal/application/printing"
	"github.com/erp/orderprint/internal/domain/order"
	"github.com/erp/orderprint/internal/infrastructure/config"
	"github.com/erp/orderprint/internal/infrastructure/lock"
	"github.com/erp/orderprint/internal/infrastructure/logger"
	infraprinting "github.com/erp/orderprint/internal/infrastructure/printing"
	"github.com/erp/orderprint/internal/infrastructure/storage"
	"github.com/erp/orderprint/internal/infrastructure/telemetry"
	"github.com/erp/orderprint/internal/interfaces/http/handler"
	"github.com/erp/orderprint/internal/interfaces/http/middleware"
	"github.com/erp/orderprint/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Order Print API
//	@version		1.0
//	@description	Renders sales orders to PDF and serves the stored artifacts.

//	@host		localhost:3000
//	@BasePath	/api/v1

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

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
		_ = log.Sync()
	}()

	log.Info("Starting order print service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr()),
		zap.String("mode", cfg.Print.Mode),
		zap.String("engine", cfg.Engine.Kind),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
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

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	exportLevel, err := zapcore.ParseLevel(cfg.Telemetry.LogsLevel)
	if err != nil {
		exportLevel = zapcore.InfoLevel
	}
	// From here on every entry is also exported over OTLP when enabled
	log = loggerProvider.Bridge(log, exportLevel)

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
	if cfg.Telemetry.SpanProfilesEnabled && profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	renderMetrics, err := telemetry.NewRenderMetrics(meterProvider.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create render metrics", zap.Error(err))
	}

	// PDF engine
	renderer, err := newRenderer(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF engine", zap.Error(err))
	}

	// Artifact storage
	fileStorage, err := infraprinting.NewFileSystemStorage(&infraprinting.FileSystemStorageConfig{
		BasePath: cfg.Storage.Root,
		BaseURL:  cfg.Storage.StaticPrefix,
		Logger:   log,
	})
	if err != nil {
		log.Fatal("Failed to initialize artifact storage", zap.Error(err))
	}

	var templateOpts []infraprinting.TemplateEngineOption
	if cfg.Print.TemplatePath != "" {
		templateOpts, err = infraprinting.LoadTemplateOption(cfg.Print.TemplatePath)
		if err != nil {
			log.Fatal("Failed to load order template", zap.String("path", cfg.Print.TemplatePath), zap.Error(err))
		}
		log.Info("Using order template override", zap.String("path", cfg.Print.TemplatePath))
	}
	templates, err := infraprinting.NewTemplateEngine(templateOpts...)
	if err != nil {
		log.Fatal("Failed to parse order template", zap.Error(err))
	}

	mode, err := appprinting.ParseMode(cfg.Print.Mode)
	if err != nil {
		log.Fatal("Invalid print mode", zap.Error(err))
	}

	serviceOpts := []appprinting.ServiceOption{
		appprinting.WithLocker(lock.NewKeyedMutex()),
		appprinting.WithObserver(renderMetrics),
	}
	if cfg.Storage.Mirror.Enabled {
		mirror, err := storage.NewS3Mirror(&cfg.Storage.Mirror, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize artifact mirror", zap.Error(err))
		}
		bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mirror.EnsureBucket(bucketCtx); err != nil {
			log.Warn("Artifact mirror bucket check failed", zap.String("bucket", mirror.Bucket()), zap.Error(err))
		}
		cancel()
		serviceOpts = append(serviceOpts, appprinting.WithMirror(mirror))
		log.Info("Artifact mirror enabled", zap.String("bucket", mirror.Bucket()))
	}

	printService := appprinting.NewPrintService(
		appprinting.ServiceConfig{
			Mode:          mode,
			RenderTimeout: cfg.Print.RenderTimeout,
		},
		order.NewValidator(cfg.Print.MaxKitDepth),
		templates,
		renderer,
		fileStorage,
		log,
		serviceOpts...,
	)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Server span per request
	// 4. HTTPMetrics - Request counters and latency
	// 5. Logger - Log requests
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	})...)
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))
	engine.Use(logger.GinMiddlewareWithConfig(log, logger.GinConfig{SkipPaths: []string{"/health"}}))
	engine.Use(middleware.Secure())

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Static hosting of finished artifacts; temp and probe files stay hidden
	engine.StaticFS(cfg.Storage.StaticPrefix, fileStorage.PublicFS())

	orderHandler := handler.NewOrderPrintHandler(printService, handler.OrderPrintHandlerConfig{
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	}, log)
	healthHandler := handler.NewHealthHandler(printService, version, log)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, group := range orderHandler.OrderRoutes() {
		r.Register(group)
	}
	r.RegisterRoot(healthHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           cfg.App.Addr(),
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("storage_root", cfg.Storage.Root))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	// Refuse new submissions while the listener drains, so late clients get 503
	if err := printService.Shutdown(shutdownCtx); err != nil {
		log.Warn("Renders still running at shutdown", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := renderer.Close(); err != nil {
		log.Warn("Failed to close PDF engine", zap.Error(err))
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}

	// Flush telemetry last so shutdown renders are exported
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := meterProvider.Shutdown(flushCtx); err != nil {
		log.Warn("Failed to shutdown meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(flushCtx); err != nil {
		log.Warn("Failed to shutdown tracer provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := loggerProvider.Shutdown(flushCtx); err != nil {
		log.Warn("Failed to shutdown logger provider", zap.Error(err))
	}
}

// newRenderer builds the configured PDF engine
func newRenderer(cfg *config.Config, log *zap.Logger) (infraprinting.PDFRenderer, error) {
	switch cfg.Engine.Kind {
	case config.EngineWkhtmltopdf:
		return infraprinting.NewWkhtmltopdfRenderer(&infraprinting.WkhtmltopdfConfig{
			BinaryPath:     cfg.Engine.BinaryPath,
			DefaultTimeout: cfg.Print.RenderTimeout,
			Logger:         log,
		})
	default:
		return infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
			DefaultTimeout: cfg.Print.RenderTimeout,
			IdleTimeout:    cfg.Print.IdleTimeout,
			RemoteURL:      cfg.Engine.RemoteURL,
			ExecPath:       cfg.Engine.ExecPath,
			NoSandbox:      cfg.Engine.NoSandbox,
			Logger:         log,
		})
	}
}
