// Package api implements the v1 HTTP API: authentication, monitored object
// management, detection submission, and result retrieval.
package api

import (
	"crypto/rand"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/homewatch/homewatch-go/internal/buildinfo"
	"github.com/homewatch/homewatch-go/internal/conf"
	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/detection"
	"github.com/homewatch/homewatch-go/internal/imagestore"
	"github.com/homewatch/homewatch-go/internal/logging"
	"github.com/homewatch/homewatch-go/internal/notification"
	"github.com/homewatch/homewatch-go/internal/observability"
	"github.com/homewatch/homewatch-go/internal/security"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Pipeline *detection.Pipeline
	Notifier *notification.Service
	Hub      *notification.Hub
	Images   *imagestore.Store
	Tokens   *security.TokenManager

	metrics        *observability.Metrics
	statsCache     *cache.Cache
	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
	startTime      time.Time
}

// New creates the API controller and registers every route on e.
func New(
	e *echo.Echo,
	ds datastore.Interface,
	settings *conf.Settings,
	pipeline *detection.Pipeline,
	notifier *notification.Service,
	hub *notification.Hub,
	images *imagestore.Store,
	tokens *security.TokenManager,
	metrics *observability.Metrics,
) (*Controller, error) {
	c := &Controller{
		Echo:       e,
		DS:         ds,
		Settings:   settings,
		Pipeline:   pipeline,
		Notifier:   notifier,
		Hub:        hub,
		Images:     images,
		Tokens:     tokens,
		metrics:    metrics,
		statsCache: cache.New(5*time.Minute, 10*time.Minute),
		startTime:  time.Now(),
	}

	c.apiLevelVar = new(slog.LevelVar)
	c.apiLevelVar.Set(slog.LevelInfo)
	if settings.WebServer.Debug {
		c.apiLevelVar.Set(slog.LevelDebug)
	}

	apiLogger, closeFunc, err := logging.NewFileLogger("logs/web.log", "api", c.apiLevelVar)
	if err != nil {
		// Fall back to a discard logger that still honors the level var.
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: c.apiLevelVar})
		c.apiLogger = slog.New(fbHandler).With("service", "api")
		c.apiLoggerClose = func() error { return nil }
	} else {
		c.apiLogger = apiLogger
		c.apiLoggerClose = closeFunc
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()

	return c, nil
}

// initRoutes registers all route groups.
func (c *Controller) initRoutes() {
	if c.metrics != nil {
		c.Group.Use(c.MetricsMiddleware())
	}

	c.Group.GET("/health", c.HealthCheck)

	c.initAuthRoutes()
	c.initObjectRoutes()
	c.initDetectionRoutes()
	c.initLogRoutes()
	c.initNotificationRoutes()

	// Stored annotated frames, referenced by detection rows.
	if c.Images != nil {
		c.Echo.Static("/uploads", c.Images.BasePath())
	}
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		_ = c.apiLoggerClose()
	}
}

// ErrorResponse is the uniform JSON error body.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates an API error response with a fresh correlation id.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs an error and writes the uniform JSON error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	c.apiLogger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", errorStr,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, resp)
}

// HealthCheck reports service liveness.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        buildinfo.Version,
		"build_date":     buildinfo.BuildDate,
		"uptime_seconds": int64(time.Since(c.startTime).Seconds()),
	})
}
