package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"avocadoanalytics/internal/config"
	"avocadoanalytics/internal/dataset"
	apierrors "avocadoanalytics/internal/errors"
	"avocadoanalytics/internal/infrastructure"
	customMiddleware "avocadoanalytics/internal/middleware"
	"avocadoanalytics/internal/recorder"
	"avocadoanalytics/internal/scheduler"
	"avocadoanalytics/internal/services"
	handlers "avocadoanalytics/internal/transport/http"
	ws "avocadoanalytics/internal/websocket"
	"avocadoanalytics/pkg/contracts"
)

// AppName is logged at startup and shown by the CLI
const AppName = "Avocado Analytics"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	FrontendFS    fs.FS // embedded frontend, nil serves the API only

	Dataset   *dataset.Dataset
	Recorder  recorder.Recorder
	Hub       *ws.Hub // nil when WebSocket is disabled
	Scheduler *scheduler.Scheduler
	Services  *ServiceContainer

	listener net.Listener
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// NewApplication loads the configuration and logger, then builds the application
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load configuration", err)
	}

	paths := cfg.ResolvedPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	paths.LogPathResolution(logger)

	return New(cfg, frontendFS, logger)
}

// New wires every component from an already loaded configuration
func New(cfg *config.Config, frontendFS fs.FS, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("addr", cfg.Server.Addr()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		FrontendFS:    frontendFS,
		Services:      &ServiceContainer{},
	}

	if err := a.initializeServices(); err != nil {
		a.closeStores(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.setupRouter(); err != nil {
		a.closeStores(context.Background())
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	a.createServer()

	return a, nil
}

// initializeServices loads the dataset and builds the query log, hub, services and scheduler
func (a *Application) initializeServices() error {
	ctx := context.Background()

	ds, err := dataset.Load(ctx, a.Config.Dataset.Path)
	if err != nil {
		a.Logger.Error("Failed to load dataset",
			slog.String("path", a.Config.Dataset.Path),
			slog.String("error", err.Error()))
		return fmt.Errorf("load dataset: %w", err)
	}
	a.Dataset = ds
	a.Logger.Info("Dataset loaded",
		slog.String("source", ds.Source()),
		slog.Int("rows", ds.Len()),
		slog.Int("regions", len(ds.Regions())))

	// a nil interface, not a typed nil, tells the health service the component is disabled
	var queryLog services.Pinger
	if a.Config.QueryLog.Enabled {
		rec, err := recorder.NewSQLiteRecorder(a.Config.QueryLog.Path, a.Logger)
		if err != nil {
			return fmt.Errorf("open query log: %w", err)
		}
		a.Recorder = rec
		queryLog = rec
	} else {
		a.Recorder = recorder.NewNoopRecorder()
		a.Logger.Info("Query log disabled")
	}

	var hubStatus services.HubStatus
	if a.Config.WebSocket.Enabled {
		a.Hub = ws.NewHub(a.Logger, a.Metrics)
		hubStatus = a.Hub
	}

	dashboardService, err := services.NewDashboardService(ds, a.Recorder, a.Metrics,
		a.Config.Dashboard, a.Config.QueryLog.RecentLimit, a.Logger)
	if err != nil {
		return fmt.Errorf("create dashboard service: %w", err)
	}
	a.Services.Dashboard = dashboardService
	a.Services.Health = services.NewHealthService(dashboardService, queryLog, hubStatus, a.Logger)

	a.Scheduler = scheduler.New(scheduler.Config{
		PruneSchedule: a.Config.QueryLog.PruneSchedule,
		Retention:     a.Config.QueryLog.Retention,
		StatsSchedule: a.Config.Telemetry.StatsSchedule,
	}, a.Recorder, statsSource{dashboard: dashboardService, hub: a.Hub}, a.Logger)
	if err := a.Scheduler.Register(); err != nil {
		return fmt.Errorf("register scheduled jobs: %w", err)
	}

	return nil
}

// statsSource feeds the periodic stats job
type statsSource struct {
	dashboard *services.DashboardService
	hub       *ws.Hub
}

func (s statsSource) DatasetRows() int { return s.dashboard.DatasetRows() }

func (s statsSource) ClientCount() int {
	if s.hub == nil {
		return 0
	}
	return s.hub.ClientCount()
}

// setupRouter configures middleware and routes.
// /ws and /metrics sit outside the wrapped group so the upgrade can hijack the connection.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	// Middleware that does not wrap the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	if a.Hub != nil {
		wsHandler := ws.NewHandler(a.Hub, a.Services.Dashboard, a.Config.WebSocket,
			a.Config.Security.AllowedOrigins, a.Logger)
		r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle(config.WebSocketEndpoint, wsHandler)
	}

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("create OpenTelemetry middleware: %w", err)
	}

	var page *handlers.PageHandler
	if a.FrontendFS != nil {
		page, err = handlers.NewPageHandler(a.FrontendFS, a.Services.Dashboard, a.Logger)
		if err != nil {
			return err
		}
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)

		if page != nil {
			r.Get("/", page.Index)
			r.Handle("/static/*", page.Static())
		}
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	dashboardHandler := handlers.NewDashboardHandler(a.Services.Dashboard, a.Config.QueryLog.RecentLimit, a.Logger)
	clientLogHandler := handlers.NewClientLogHandler(a.Logger)

	var hubStats handlers.HubStatsProvider
	if a.Hub != nil {
		hubStats = a.Hub
	}
	statsHandler := handlers.NewStatsHandler(a.Services.Dashboard, hubStats, a.Logger)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)
		r.Get("/stats", statsHandler.GetStats)
		r.Post("/client-log", clientLogHandler.Handle)

		r.Mount("/dashboard", dashboardHandler.Routes())
	})
}

// getCORSConfig builds the CORS policy from the security section
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
		},
		ExposedHeaders: []string{
			customMiddleware.RequestIDHeader,
			"Content-Disposition",
			"X-Export-Rows",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Addr returns the address the server listens on, once started
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Start binds the listener and starts the hub, the scheduler and the server.
// cancel is called if the server stops unexpectedly.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	if a.Hub != nil {
		a.Hub.Start()
	}
	a.Scheduler.Start()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+a.Addr()),
		slog.Int("scheduled_jobs", a.Scheduler.Jobs()),
		slog.Bool("websocket", a.Hub != nil))

	return nil
}

// Stop gracefully stops the application.
// WebSocket clients are told first, then the server and scheduler drain in parallel,
// then the hub, the query log and OpenTelemetry are closed.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.Hub != nil && a.Hub.Running() {
		if err := a.Hub.Broadcast(ws.ShutdownNotice()); err != nil {
			a.Logger.WarnContext(ctx, "Failed to notify WebSocket clients", slog.String("error", err.Error()))
		}
	}

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		if err := a.Server.Shutdown(gctx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.Scheduler.Stop(gctx)
	})
	drainErr := g.Wait()

	if a.Hub != nil {
		a.Hub.Stop()
	}

	err := errors.Join(drainErr, a.closeStores(shutdownCtx))
	if err != nil {
		a.Logger.ErrorContext(ctx, "Application shutdown finished with errors", slog.String("error", err.Error()))
		return err
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// closeStores closes the query log and flushes OpenTelemetry
func (a *Application) closeStores(ctx context.Context) error {
	var g errgroup.Group
	if a.Recorder != nil {
		g.Go(func() error {
			if err := a.Recorder.Close(); err != nil {
				return fmt.Errorf("close query log: %w", err)
			}
			return nil
		})
	}
	if a.OTelProviders != nil {
		g.Go(func() error {
			return a.OTelProviders.Shutdown(ctx)
		})
	}
	return g.Wait()
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck reports components that are not ready yet
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := a.Services.Health.ReadinessCheck(ctx)
	if status.Status == services.StatusReady {
		return nil
	}

	var errs []error
	for name, svc := range status.Services {
		if svc.Status != services.StatusReady {
			errs = append(errs, fmt.Errorf("%s: %s", name, svc.Message))
		}
	}
	return errors.Join(errs...)
}
