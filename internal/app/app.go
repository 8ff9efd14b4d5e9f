package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"cxfeedback/internal/config"
	"cxfeedback/internal/delivery"
	apierrors "cxfeedback/internal/errors"
	"cxfeedback/internal/exporter"
	"cxfeedback/internal/feedback"
	"cxfeedback/internal/infrastructure"
	customMiddleware "cxfeedback/internal/middleware"
	"cxfeedback/internal/notifier"
	"cxfeedback/internal/services"
	"cxfeedback/internal/sheets"
	handlers "cxfeedback/internal/transport/http"
	ws "cxfeedback/internal/websocket"
	"cxfeedback/pkg/contracts"
)

const AppName = "Call Center Feedback Exporter"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	WebSocketHub  *ws.Hub
	ExportService *services.ExportService
	HealthService *services.HealthService
	Metrics       *infrastructure.Metrics
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	errorHandler *apierrors.ErrorHandler
	pages        *handlers.PageHandler
}

// NewApplication loads configuration and the process logger, then builds
// the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds the application from cfg with dependency injection.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("sheets_mode", cfg.Sheets.Mode))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	ctx := context.Background()

	source, err := sheets.NewSource(ctx, a.Config.Sheets, a.Metrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize feedback source: %w", err)
	}

	formats, err := exporter.ParseFormats(a.Config.Export.Formats)
	if err != nil {
		return fmt.Errorf("invalid export formats: %w", err)
	}

	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics).
		WithKeepalive(a.Config.WebSocket.PingPeriod, a.Config.WebSocket.PongWait)
	a.WebSocketHub.Start()

	// Browsers copy to their own clipboard and download the files, so every
	// artifact goes back in the response. A disk copy is kept only when an
	// archive directory is configured.
	var files delivery.FileSink
	if a.Config.Export.ArchiveDir != "" {
		files = delivery.NewDirSink(a.Config.Export.ArchiveDir, a.Logger)
	}

	a.ExportService = services.NewExportService(services.ExportDeps{
		Source:     source,
		ResourceID: a.Config.Sheets.Location(),
		Range:      a.Config.Sheets.Range,
		Filter:     feedback.NewFilter(feedback.DefaultDateParser(), a.Logger),
		Options: exporter.Options{
			SheetName:   a.Config.Export.SheetName,
			ColumnWidth: a.Config.Export.ColumnWidth,
			CSVBOM:      a.Config.Export.CSVBOM,
		},
		Formats:     formats,
		Centers:     a.Config.Export.Centers,
		RecentDays:  a.Config.Export.RecentDays,
		MaxInFlight: a.Config.Export.MaxInFlight,
		Files:       files,
		Notifier:    notifier.Multi{notifier.NewLogNotifier(a.Logger), a.WebSocketHub},
		Metrics:     a.Metrics,
		Logger:      a.Logger,
	})

	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, a.WebSocketHub, a.Logger)
	a.HealthService.Register("source", services.SourceCheck(a.Config.Sheets.Mode, a.Config.Sheets.Location()))
	if a.Config.Export.ArchiveDir != "" {
		a.HealthService.Register("archive_dir", services.OutputDirCheck(a.Config.Export.ArchiveDir))
	}

	a.pages, err = handlers.NewPageHandler(a.Config.Export.Centers, a.Config.Export.RecentDays, contracts.Version, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to parse page templates: %w", err)
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that does not wrap the ResponseWriter, so the
	// websocket upgrade can hijack the connection.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := handlers.NewWebSocketHandler(
		a.WebSocketHub,
		a.Config.Security.AllowedOrigins,
		a.Config.WebSocket.ReadBufferSize,
		a.Config.WebSocket.WriteBufferSize,
		a.Logger,
	)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	// Full middleware for everything else.
	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → Headers → CORS → RateLimit
	r.Group(func(r chi.Router) {
		otelMiddleware := customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger)
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.errorHandler))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				ExposedHeaders: []string{"Content-Disposition", "X-Feedback-Rows", customMiddleware.RequestIDHeader},
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.NotFound(a.errorHandler.NotFound)
		r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Compress(5, "application/json", "text/csv"))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/health/stats", healthHandler.Stats)
			r.Get("/version", healthHandler.Version)

			r.Post("/logs", handlers.NewClientLogHandler(a.Logger).Handle)
		})

		// Exports fetch the sheet, so they get the longer request timeout.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
			r.Use(customMiddleware.AuditLog(a.Logger))

			validation := customMiddleware.NewValidationMiddleware(a.Config.Export.Centers, a.Logger, a.errorHandler)
			exportHandler := handlers.NewExportHandler(a.ExportService, validation, a.Logger, a.errorHandler)
			r.Mount("/exports", exportHandler.Routes())
			r.Get("/feedback/recent", exportHandler.RecentFeedback)
			r.Get("/centers", exportHandler.ListCenters)
		})
	})
}

// setupHTMLRoutes configures the operator pages
func (a *Application) setupHTMLRoutes(r chi.Router) {
	r.Get("/", a.pages.Index)
	r.Get("/recent", a.pages.Recent)
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
	}
}

// Start starts the HTTP server. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	status := a.HealthService.ReadinessCheck(ctx)
	if status.Status != "ready" {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.Any("services", status.Services))
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

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
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
		a.Logger.ErrorContext(context.Background(), "Server stopped unexpectedly")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
