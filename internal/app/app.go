package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/config"
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/infrastructure"
	customMiddleware "github.com/sxyz5675/Steamlit-Dashboard/internal/middleware"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/services"
	transporthttp "github.com/sxyz5675/Steamlit-Dashboard/internal/transport/http"
)

// Version information
const (
	VERSION  = config.AppVersion
	REPO_URL = "https://github.com/sxyz5675/Steamlit-Dashboard"
	AppName  = config.AppName
)

// Build information, set with -ldflags at release time
var (
	BuildTime = ""
	BuildID   = ""
)

func init() {
	if BuildTime == "" {
		BuildTime = time.Now().UTC().Format(time.RFC3339)
	}
	if BuildID == "" {
		sum := sha256.Sum256([]byte(VERSION + BuildTime))
		BuildID = fmt.Sprintf("%x", sum[:6])
	}
}

// compressLevel is the gzip level used for HTML and JSON responses
const compressLevel = 5

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	ErrorHandler  *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// Options controls how NewApplication finds its configuration and where
// console logs go.
type Options struct {
	// ConfigPath is an explicit YAML file; empty searches the default locations.
	ConfigPath string
	// Console receives console log output. Defaults to os.Stdout.
	Console io.Writer
}

// NewApplication loads configuration and wires the application
func NewApplication(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApplicationWithConfig(cfg, opts.Console)
}

// NewApplicationWithConfig creates a new application instance from an
// already loaded configuration.
func NewApplicationWithConfig(cfg *config.Config, console io.Writer) (*Application, error) {
	if console == nil {
		console = os.Stdout
	}

	datasetPath, err := config.ResolveDatasetPath(cfg.Dataset.Path)
	if err != nil {
		return nil, apierrors.NewConfigError("invalid dataset path", err)
	}
	cfg.Dataset.Path = datasetPath

	logger, err := infrastructure.InitializeLogger(cfg.Logging, console)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("build_id", BuildID),
		slog.String("dataset", cfg.Dataset.Path))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, VERSION, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	a.Services = &ServiceContainer{
		Dashboard: services.NewDashboardService(a.Config.Dataset, a.Metrics, a.Logger),
		Health: services.NewHealthService(services.BuildInfo{
			Version:   VERSION,
			RepoURL:   REPO_URL,
			BuildTime: BuildTime,
			BuildID:   BuildID,
		}, a.Config.Dataset.Path, a.Logger),
	}
	a.Logger.Info("Services initialized")
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → RateLimit → Compress
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.ErrorHandler,
		).Handler)
	}

	r.Use(customMiddleware.Compress(compressLevel))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Handle("/metrics", transporthttp.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	a.setupAPIRoutes(r)
	a.setupPageRoutes(r)

	a.Router = r
}

// setupAPIRoutes configures the operational JSON endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := transporthttp.NewHealthHandler(a.Services.Health, a.Logger)
	r.Mount("/api", healthHandler.Routes())
}

// setupPageRoutes configures the dashboard page. Only this route gets the
// render timeout; health probes must answer even while a render is slow.
func (a *Application) setupPageRoutes(r chi.Router) {
	dashboardHandler := transporthttp.NewDashboardHandler(a.Services.Dashboard, a.Logger, a.ErrorHandler)
	r.With(customMiddleware.Timeout(a.Config.Server.RenderTimeout, a.ErrorHandler)).
		Get("/", dashboardHandler.ServePage)
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Start checks the dataset and serves on ln until ctx is cancelled, then
// shuts down gracefully. A missing or unreadable dataset aborts before the
// first request is accepted.
func (a *Application) Start(ctx context.Context, ln net.Listener) error {
	if err := a.performStartupHealthCheck(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("startup check failed: %w", err)
	}

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
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
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	return a.Start(ctx, ln)
}

// Snapshot runs the pipeline once and writes the page to w
func (a *Application) Snapshot(ctx context.Context, w io.Writer) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	defer func() {
		if a.OTelProviders != nil {
			_ = a.OTelProviders.Shutdown(context.WithoutCancel(ctx))
		}
	}()
	return a.Services.Dashboard.Render(ctx, w, services.SourceSnapshot)
}

// performStartupHealthCheck loads the dataset once so a broken file is
// reported at startup rather than on the first page view.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	if !config.FileExists(a.Config.Dataset.Path) {
		a.Logger.ErrorContext(ctx, "Dataset file not found",
			slog.String("path", a.Config.Dataset.Path))
	}
	return a.Services.Dashboard.CheckDataset(ctx)
}
