package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/homewatch/homewatch-go/internal/datastore"
)

const defaultLogLimit = 100

// initLogRoutes registers monitoring log endpoints.
func (c *Controller) initLogRoutes() {
	objects := c.Group.Group("/objects", c.AuthMiddleware())
	objects.GET("/:id/logs", c.ListLogs)
	objects.POST("/:id/logs", c.CreateLog)
}

// LogResponse is the public view of a monitoring log entry.
type LogResponse struct {
	ID        uint   `json:"id"`
	ObjectID  uint   `json:"object_id"`
	EventType string `json:"event_type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func logResponse(l *datastore.MonitoringLog) LogResponse {
	return LogResponse{
		ID:        l.ID,
		ObjectID:  l.ObjectID,
		EventType: l.EventType,
		Message:   l.Message,
		Timestamp: l.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateLogRequest is the body for manually appending a log entry.
type CreateLogRequest struct {
	EventType string `json:"event_type"`
	Message   string `json:"message"`
}

// CreateLog appends a manual entry to an owned object's audit trail.
func (c *Controller) CreateLog(ctx echo.Context) error {
	objectID, ok := c.ownedObject(ctx)
	if !ok {
		return nil
	}

	var req CreateLogRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.Message == "" {
		return c.HandleError(ctx, nil, "Message is required", http.StatusBadRequest)
	}
	if req.EventType == "" {
		req.EventType = "manual"
	}

	entry := datastore.MonitoringLog{
		ObjectID:  objectID,
		EventType: req.EventType,
		Message:   req.Message,
	}
	if err := c.DS.CreateLog(&entry); err != nil {
		return c.HandleError(ctx, err, "Failed to create log", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, logResponse(&entry))
}

// ListLogs returns the audit trail for an owned object, newest first.
func (c *Controller) ListLogs(ctx echo.Context) error {
	objectID, ok := c.ownedObject(ctx)
	if !ok {
		return nil
	}

	limit := defaultLogLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.HandleError(ctx, err, "Invalid limit", http.StatusBadRequest)
		}
		limit = parsed
	}

	logs, err := c.DS.GetLogs(objectID, limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list logs", http.StatusInternalServerError)
	}

	resp := make([]LogResponse, 0, len(logs))
	for i := range logs {
		resp = append(resp, logResponse(&logs[i]))
	}
	return ctx.JSON(http.StatusOK, resp)
}
