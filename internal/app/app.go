package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/YashwanthKamireddi/project-prerana/internal/cache"
	"github.com/YashwanthKamireddi/project-prerana/internal/config"
	"github.com/YashwanthKamireddi/project-prerana/internal/dataset"
	apierrors "github.com/YashwanthKamireddi/project-prerana/internal/errors"
	"github.com/YashwanthKamireddi/project-prerana/internal/fraud"
	"github.com/YashwanthKamireddi/project-prerana/internal/gap"
	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
	customMiddleware "github.com/YashwanthKamireddi/project-prerana/internal/middleware"
	"github.com/YashwanthKamireddi/project-prerana/internal/migration"
	"github.com/YashwanthKamireddi/project-prerana/internal/scoring"
	handlers "github.com/YashwanthKamireddi/project-prerana/internal/transport/http"
	"github.com/YashwanthKamireddi/project-prerana/internal/validation"
)

const (
	VERSION = "v" + config.AppVersion
	AppName = config.AppName
	RepoURL = "https://github.com/YashwanthKamireddi/project-prerana"
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(VERSION))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Loader        *dataset.Loader
	Results       *cache.Cache
	Scheduler     *cron.Cron
	Logger        *slog.Logger
	Metrics       *infrastructure.BusinessMetrics
	Runtime       *infrastructure.RuntimeMetricsCollector
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
}

// ServiceContainer holds the three analysis engines
type ServiceContainer struct {
	Gaps      *gap.Service
	Fraud     *fraud.Service
	Migration *migration.Service
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("build_id", BuildID))

	// Report output must be writable; the data drops are inputs and are
	// only checked, never created.
	if err := validation.NewDropValidator(logger).ValidateReportsDir(cfg.ReportsPath()); err != nil {
		return nil, err
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the loader, result cache, risk scorer and the
// three analysis engines
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	runtimeCollector, err := infrastructure.NewRuntimeMetricsCollector(a.OTelProviders.Meter, 30*time.Second)
	if err != nil {
		return fmt.Errorf("failed to create runtime metrics collector: %w", err)
	}
	a.Runtime = runtimeCollector

	a.Loader = dataset.NewLoader(a.Config.Data.BaseDir, a.Config.Analysis.Workers, a.Logger, metrics)
	a.Results = cache.New(a.Logger, metrics)

	scorer := a.selectScorer()

	a.Services = &ServiceContainer{
		Gaps:      gap.NewService(a.Loader, a.Results, scorer, a.Config.Analysis.CacheTTL, a.Logger, metrics),
		Fraud:     fraud.NewService(a.Loader, a.Results, scorer, a.Config.Analysis, a.Logger, metrics),
		Migration: migration.NewService(a.Loader, a.Results, a.Config.Analysis, a.Logger, metrics),
	}

	return nil
}

// selectScorer prefers the trained model weights when configured and falls
// back to the deterministic rule scorer
func (a *Application) selectScorer() scoring.RiskScorer {
	path := a.Config.Data.ModelWeightsFile
	if path == "" {
		return scoring.NewRuleScorer()
	}

	scorer, err := scoring.NewModelScorer(path)
	if err != nil {
		a.Logger.Warn("Model weights unavailable, using rule scorer",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return scoring.NewRuleScorer()
	}

	a.Logger.Info("Risk scoring model loaded",
		slog.String("path", path),
		slog.String("model_version", scorer.Version()))
	return scorer
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Unmatched routes and wrong verbs answer with the same problem
	// document shape as handler errors
	r.NotFound(customMiddleware.NotFound)
	r.MethodNotAllowed(customMiddleware.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Config, a.Results, a.Runtime, VERSION, a.Logger)

	// Liveness probe stays outside the middleware group so orchestrators
	// are never rate limited or logged per poll
	r.Get("/healthz", healthHandler.Liveness)

	r.Group(func(r chi.Router) {
		// Middleware ordering: RequestID → RealIP → OTel → Metrics →
		// Logger → Recoverer → SecureHeaders → CORS → RateLimit
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		secureHeaders := customMiddleware.DefaultSecureHeaders()
		secureHeaders.DevMode = a.Config.Logging.Development

		r.Use(customMiddleware.BusinessMetricsMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(secureHeaders.Handler)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, healthHandler)
	})

	// Prometheus metrics endpoint (outside the middleware group for performance)
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, healthHandler *handlers.HealthHandler) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	requestValidation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))
		// Inside the timeout boundary so handler panics in its goroutine
		// render a problem response; also logs failed requests with their
		// sanitized bodies
		r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
		// Caps body size and rejects malformed JSON before any handler
		// decodes it
		r.Use(requestValidation.ValidateRequest)

		r.Get("/health", healthHandler.HealthCheck)

		gapHandler := handlers.NewGapHandler(a.Services.Gaps, a.Logger, errorHandler, requestValidation)
		r.Mount("/gaps", gapHandler.Routes())

		// Freeze actions and report exports carry an audit trail
		audit := customMiddleware.AuditLog(a.Logger)

		fraudHandler := handlers.NewFraudHandler(a.Services.Fraud, a.Logger, errorHandler, requestValidation)
		r.With(audit).Mount("/fraud", fraudHandler.Routes())

		migrationHandler := handlers.NewMigrationHandler(a.Services.Migration, a.Logger, errorHandler)
		r.Mount("/migration", migrationHandler.Routes())

		dashboardHandler := handlers.NewDashboardHandler(
			a.Services.Gaps, a.Services.Fraud, a.Services.Migration, a.Logger, errorHandler)
		r.Mount("/dashboard", dashboardHandler.Routes())

		reportHandler := handlers.NewReportHandler(
			a.Services.Gaps, a.Services.Fraud, a.Services.Migration, a.Logger, errorHandler)
		r.With(audit).Mount("/reports", reportHandler.Routes())
	})
}

// getCORSConfig returns CORS configuration from the security settings
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
		origins = append(origins, a.Config.Security.AllowedOrigins...)
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// startScheduler starts the cache sweeper and the periodic warm runs
func (a *Application) startScheduler(ctx context.Context) error {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info("Scheduler disabled, caches refresh on demand only")
		return nil
	}

	if err := a.Results.StartSweeper(a.Config.Scheduler.SweepSchedule); err != nil {
		return fmt.Errorf("failed to start cache sweeper: %w", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(a.Config.Scheduler.WarmSchedule, func() {
		a.warmCaches(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid warm schedule %q: %w", a.Config.Scheduler.WarmSchedule, err)
	}
	c.Start()
	a.Scheduler = c

	a.Logger.InfoContext(ctx, "Scheduler started",
		slog.String("sweep_schedule", a.Config.Scheduler.SweepSchedule),
		slog.String("warm_schedule", a.Config.Scheduler.WarmSchedule))
	return nil
}

// warmCaches runs the three analysis pipelines so the first dashboard hit
// after a data drop is served from cache
func (a *Application) warmCaches(ctx context.Context) {
	ctx = infrastructure.EnsureTraceID(ctx)
	started := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := a.Services.Gaps.AnalyzeAllDistricts(ctx)
		return err
	})
	g.Go(func() error {
		_, err := a.Services.Fraud.Analyze(ctx)
		return err
	})
	g.Go(func() error {
		_, err := a.Services.Migration.Analyze(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		a.Logger.WarnContext(ctx, "Cache warm run failed", slog.String("error", err.Error()))
		return
	}

	a.Logger.InfoContext(ctx, "Cache warm run complete",
		slog.Duration("elapsed", time.Since(started)))
}

// performStartupHealthCheck verifies the data drops are present. Missing
// directories degrade the affected engines but never block startup.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	checker := validation.NewDropValidator(a.Logger)
	missing, err := checker.ValidateDataLayout(a.Config.Data.BaseDir,
		a.Config.Data.EnrolmentDir,
		a.Config.Data.DemographicDir,
		a.Config.Data.BiometricDir,
	)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing data directories: %s", strings.Join(missing, ", "))
	}

	a.Logger.InfoContext(ctx, "All data directories present")
	return nil
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("data_dir", a.Config.Data.BaseDir))

	if err := a.startScheduler(ctx); err != nil {
		return err
	}

	go a.Runtime.Start(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	// First warm run in the background; requests arriving before it
	// finishes compute their own results through the same cache
	if a.Config.Scheduler.Enabled {
		go a.warmCaches(ctx)
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Scheduler != nil {
		stopCtx := a.Scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-shutdownCtx.Done():
			a.Logger.WarnContext(ctx, "Scheduler jobs still running at shutdown deadline")
		}
	}
	a.Results.StopSweeper()
	if a.Runtime != nil {
		a.Runtime.Stop()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
