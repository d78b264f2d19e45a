// Package serve implements the serve command, the long-running monitoring
// server: database, detection pipeline, notification delivery, and HTTP API.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	api "github.com/homewatch/homewatch-go/internal/api/v1"
	"github.com/homewatch/homewatch-go/internal/conf"
	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/detection"
	"github.com/homewatch/homewatch-go/internal/events"
	"github.com/homewatch/homewatch-go/internal/imagestore"
	"github.com/homewatch/homewatch-go/internal/logging"
	"github.com/homewatch/homewatch-go/internal/notification"
	"github.com/homewatch/homewatch-go/internal/observability"
	"github.com/homewatch/homewatch-go/internal/security"
	"github.com/homewatch/homewatch-go/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the monitoring server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	log := logging.ForService("serve")

	// Event bus and error telemetry come up first so everything after can
	// report through them.
	eventBus, err := events.Initialize(nil)
	if err != nil {
		return fmt.Errorf("initializing event bus: %w", err)
	}
	events.InitializeErrorsIntegration()

	if enabled, err := telemetry.Init(settings); err != nil {
		log.Warn("telemetry disabled", "error", err)
	} else if enabled {
		if err := eventBus.RegisterConsumer(telemetry.NewSentryConsumer()); err != nil {
			log.Warn("failed to register telemetry consumer", "error", err)
		}
		defer telemetry.Flush()
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	images, err := imagestore.New(settings.ImageStore.BasePath)
	if err != nil {
		return fmt.Errorf("initializing image store: %w", err)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	if err := detection.InitializeLogger("logs/detection.log"); err != nil {
		log.Warn("detection file logging unavailable", "error", err)
	}
	detection.SetDebug(settings.Detector.Debug)
	defer func() { _ = detection.CloseLogger() }()

	notifier := notification.NewService(metrics.Notification)
	defer notifier.Close()

	var hub *notification.Hub
	if settings.Realtime.Enabled {
		hub = notification.NewHub(notifier)
		go hub.Run()
		defer hub.Close()
	}

	if settings.Realtime.Push.Enabled {
		provider, err := notification.NewShoutrrrProvider(settings.Realtime.Push.URLs)
		if err != nil {
			log.Warn("push delivery disabled", "error", err)
		} else {
			notifier.AddProvider(provider)
		}
	}

	model := detection.NewHTTPModel(settings.Detector.Endpoint, settings.Detector.InferenceTimeout)
	severity, err := detection.NewSeverityClassifier(settings.Detector.Severity.Source, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("initializing severity classifier: %w", err)
	}
	detector := detection.NewAdapter(model, severity)
	classifier := detection.NewClassifier(settings.Detector.Threshold)

	pipeline := detection.NewPipeline(
		detector,
		classifier,
		store,
		images,
		notifier,
		metrics.Pipeline,
		settings.Detector.InferenceTimeout,
	)

	tokens, err := security.NewTokenManager(
		settings.Security.JWTSecret,
		settings.Security.AccessTokenExpiry,
		settings.Security.RefreshTokenExpiry,
	)
	if err != nil {
		return fmt.Errorf("initializing token manager: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	if settings.WebServer.Debug {
		e.Use(echomiddleware.Logger())
	}

	controller, err := api.New(e, store, settings, pipeline, notifier, hub, images, tokens, metrics)
	if err != nil {
		return fmt.Errorf("initializing API: %w", err)
	}
	defer controller.Shutdown()

	e.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	errChan := make(chan error, 1)
	go func() {
		addr := ":" + settings.WebServer.Port
		log.Info("server listening", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := eventBus.Shutdown(shutdownTimeout); err != nil {
		log.Warn("event bus shutdown incomplete", "error", err)
	}
	return nil
}
