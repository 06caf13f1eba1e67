package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaibs3/uniload/internal/config"
	"github.com/shaibs3/uniload/internal/etl"
	"github.com/shaibs3/uniload/internal/handlers"
	"github.com/shaibs3/uniload/internal/router"
	"github.com/shaibs3/uniload/internal/source"
	"github.com/shaibs3/uniload/internal/storage"
	"github.com/shaibs3/uniload/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App wires storage, the directory client and the pipeline together
type App struct {
	config    *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	store     storage.DbProvider
	pipeline  *etl.Pipeline
	server    *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(logger)
	if err != nil {
		return nil, err
	}

	// Use the factory to create the DB provider
	factory := storage.NewDbProviderFactory(logger, tel)
	store, err := factory.CreateProvider(ctx, cfg.DBConfig)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	client := source.NewClient(source.Options{
		BaseURL:  cfg.SourceURL,
		Timeout:  cfg.HTTPTimeout,
		Attempts: uint(cfg.FetchAttempts),
		Backoff:  cfg.FetchBackoff,
		RPS:      cfg.FetchRPS,
	}, logger)
	pipeline := etl.NewPipeline(client, store, cfg.Countries, logger, tel.Meter)

	return &App{
		config:    cfg,
		logger:    logger,
		telemetry: tel,
		store:     store,
		pipeline:  pipeline,
	}, nil
}

// Load runs the pipeline once; no countries means the configured default list
func (app *App) Load(ctx context.Context, countries []string) (etl.Summary, error) {
	return app.pipeline.Run(ctx, countries)
}

// Reports exposes the read-only queries of the configured store
func (app *App) Reports() storage.Reporter {
	return app.store
}

// Handler builds the HTTP API
func (app *App) Handler() *router.Router {
	limiter := rate.NewLimiter(rate.Limit(app.config.RPSLimit), app.config.RPSBurst)
	handlerList := []router.Handler{
		handlers.NewReportHandler(app.store),
		handlers.NewLoadHandler(app.pipeline),
	}
	return router.NewRouter(limiter, app.telemetry, app.logger, handlerList)
}

// start starts the application server
func (app *App) start() error {
	app.server = app.Handler().CreateServer(":" + app.config.Port)
	app.logger.Info("starting server", zap.String("port", app.config.Port))

	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	return nil
}

// stop gracefully shuts down the server
func (app *App) stop() error {
	app.logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	app.logger.Info("server exited gracefully")
	return nil
}

// Run starts the HTTP API and waits for shutdown signals
func (app *App) Run() error {
	if err := app.start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	return app.stop()
}

// Close releases the store and flushes telemetry
func (app *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(app.store.Close(), app.telemetry.Shutdown(ctx))
}
