package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/errors"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens via the bearer token, not the origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// initNotificationRoutes registers notification retrieval and the live
// websocket stream.
func (c *Controller) initNotificationRoutes() {
	notifications := c.Group.Group("/notifications", c.AuthMiddleware())
	notifications.GET("", c.ListNotifications)
	notifications.GET("/unread-count", c.UnreadCount)
	notifications.PUT("/:id/read", c.MarkRead)
	notifications.DELETE("/:id", c.DeleteNotification)

	if c.Hub != nil {
		c.Group.GET("/ws/notifications", c.NotificationStream, c.AuthMiddleware())
	}
}

// NotificationResponse is the public view of a stored notification.
type NotificationResponse struct {
	ID          uint   `json:"id"`
	DetectionID *uint  `json:"detection_id,omitempty"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	IsRead      bool   `json:"is_read"`
	CreatedAt   string `json:"created_at"`
}

func notificationResponse(n *datastore.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		DetectionID: n.DetectionID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        n.Type,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ListNotifications returns the caller's notifications, newest first.
func (c *Controller) ListNotifications(ctx echo.Context) error {
	notifications, err := c.DS.GetNotificationsByUser(currentUserID(ctx))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list notifications", http.StatusInternalServerError)
	}

	resp := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		resp = append(resp, notificationResponse(&notifications[i]))
	}
	return ctx.JSON(http.StatusOK, resp)
}

// UnreadCount returns the caller's unread notification count.
func (c *Controller) UnreadCount(ctx echo.Context) error {
	count, err := c.DS.CountUnreadNotifications(currentUserID(ctx))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count notifications", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]int64{"unread": count})
}

// MarkRead sets the read flag on one of the caller's notifications.
func (c *Controller) MarkRead(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid notification id", http.StatusBadRequest)
	}

	n, err := c.DS.MarkNotificationRead(id, currentUserID(ctx))
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Notification not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to update notification", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, notificationResponse(&n))
}

// DeleteNotification removes one of the caller's notifications.
func (c *Controller) DeleteNotification(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid notification id", http.StatusBadRequest)
	}

	if err := c.DS.DeleteNotification(id, currentUserID(ctx)); err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Notification not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to delete notification", http.StatusInternalServerError)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// NotificationStream upgrades the connection and streams the caller's
// alerts until the client disconnects.
func (c *Controller) NotificationStream(ctx echo.Context) error {
	conn, err := wsUpgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to upgrade connection", http.StatusBadRequest)
	}

	// Blocks for the lifetime of the connection.
	c.Hub.Register(conn, currentUserID(ctx))
	return nil
}
