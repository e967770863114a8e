package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"surveydash/internal/config"
	apierrors "surveydash/internal/errors"
	"surveydash/internal/infrastructure"
	customMiddleware "surveydash/internal/middleware"
	"surveydash/internal/services"
	"surveydash/internal/sheets"
	handlers "surveydash/internal/transport/http"
)

// BuildTime is set at link time with -ldflags "-X surveydash/internal/app.BuildTime=..."
var BuildTime = "unknown"

// compressedTypes are the response types worth gzipping
var compressedTypes = []string{
	"text/html",
	"text/csv",
	"application/json",
	"image/svg+xml",
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Source        sheets.RowSource
	Dashboard     *services.DashboardService
	Health        *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication wires the dashboard from cfg: logger, paths, telemetry, the
// row source, services, router and server, in that order.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("source_kind", cfg.Source.Kind))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	// Resolve on a copy so the caller's config keeps what the operator wrote.
	resolved := *cfg
	resolved.Source.CredentialsFile = paths.Resolve(cfg.Source.CredentialsFile)
	resolved.Source.FilePath = paths.Resolve(cfg.Source.FilePath)

	source, err := sheets.New(ctx, resolved.Source, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize row source: %w", err)
	}

	return newApplication(&resolved, paths, source, logger)
}

// newApplication builds everything downstream of the row source
func newApplication(cfg *config.Config, paths *config.Paths, source sheets.RowSource, logger *slog.Logger) (*Application, error) {
	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Source:        source,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	a.Dashboard = services.NewDashboardService(
		a.Source,
		a.Config.Dashboard,
		a.OTelProviders.Tracer,
		a.Metrics,
		a.Logger,
	)
	a.Health = services.NewHealthService(config.AppVersion, BuildTime, a.Source, a.Logger)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Prometheus scrapes stay outside the request middleware
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → rate limit → Timeout → gzip
		r.Use(customMiddleware.RequestID)
		r.Use(customMiddleware.RealIP)
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.Compress(5, compressedTypes...))

		pageHandler := handlers.NewPageHandler(
			a.Dashboard,
			a.Config.Dashboard.Title,
			a.Config.Dashboard.Subtitle,
			a.Logger,
			a.ErrorHandler,
		)
		r.Get("/", pageHandler.ServePage)
		r.Get("/charts/{chartFile}", pageHandler.ServeChartImage)

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		handlers.NewDashboardHandler(a.Dashboard, a.Logger, a.ErrorHandler).Register(r)
	})
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
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start serves HTTP on ln until the server is shut down. A clean shutdown
// returns nil.
func (a *Application) Start(ctx context.Context, ln net.Listener) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", ln.Addr().String()),
		slog.String("source", a.Source.Describe()),
		slog.Int("charts", len(a.Config.Dashboard.Charts)))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}

// Serve runs the server on ln until ctx is cancelled or the server fails,
// then shuts everything down.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Start(gctx, ln)
	})

	g.Go(func() error {
		<-gctx.Done()
		// The parent is already cancelled; shutdown gets its own deadline.
		return a.Stop(context.WithoutCancel(gctx))
	})

	return g.Wait()
}

// Run listens on the configured port and serves until SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	return a.Serve(ctx, ln)
}

// performStartupHealthCheck reports problems that will only surface on the
// first page load: missing credentials or input files and an unwritable
// exports directory.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	src := a.Config.Source
	switch src.Kind {
	case config.SourceGoogle:
		if src.CredentialsFile != "" && !config.FileExists(src.CredentialsFile) {
			warnings = append(warnings, "credentials file not found: "+src.CredentialsFile)
		}
	case config.SourceXLSX, config.SourceCSV:
		if !config.FileExists(src.FilePath) {
			warnings = append(warnings, "input file not found: "+src.FilePath)
		}
	}

	if a.Paths != nil {
		testFile := filepath.Join(a.Paths.ExportsDir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, "exports directory not writable: "+a.Paths.ExportsDir)
		} else {
			os.Remove(testFile)
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed",
		slog.Duration("request_timeout", a.Config.Server.RequestTimeout),
		slog.Duration("fetch_timeout", a.Config.Source.Timeout),
		slog.Time("started_at", time.Now()))
	return nil
}
