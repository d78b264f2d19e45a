package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/errors"
)

// initObjectRoutes registers monitored object CRUD endpoints. All of them
// require authentication and only touch objects owned by the caller.
func (c *Controller) initObjectRoutes() {
	objects := c.Group.Group("/objects", c.AuthMiddleware())
	objects.GET("", c.ListObjects)
	objects.POST("", c.CreateObject)
	objects.GET("/:id", c.GetObject)
	objects.PUT("/:id", c.UpdateObject)
	objects.DELETE("/:id", c.DeleteObject)
	objects.POST("/:id/monitor", c.ToggleMonitoring)
}

// ObjectRequest is the body for creating or updating a monitored object.
type ObjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ObjectResponse is the public view of a monitored object.
type ObjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func objectResponse(o *datastore.MonitoredObject) ObjectResponse {
	return ObjectResponse{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// pathID parses the :id path parameter.
func pathID(ctx echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.ValidationError("invalid id")
	}
	return uint(id), nil
}

// ListObjects returns every object owned by the caller, newest first.
func (c *Controller) ListObjects(ctx echo.Context) error {
	objects, err := c.DS.GetObjectsByUser(currentUserID(ctx))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list objects", http.StatusInternalServerError)
	}

	resp := make([]ObjectResponse, 0, len(objects))
	for i := range objects {
		resp = append(resp, objectResponse(&objects[i]))
	}
	return ctx.JSON(http.StatusOK, resp)
}

// CreateObject registers a new monitored object for the caller.
func (c *Controller) CreateObject(ctx echo.Context) error {
	var req ObjectRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.HandleError(ctx, nil, "Name is required", http.StatusBadRequest)
	}

	object := datastore.MonitoredObject{
		Name:        req.Name,
		Description: req.Description,
		Status:      datastore.StatusInactive,
		UserID:      currentUserID(ctx),
	}
	if err := c.DS.CreateObject(&object); err != nil {
		return c.HandleError(ctx, err, "Failed to create object", http.StatusInternalServerError)
	}

	c.apiLogger.Info("object created", "object_id", object.ID, "user_id", object.UserID)
	return ctx.JSON(http.StatusCreated, objectResponse(&object))
}

// GetObject returns one owned object.
func (c *Controller) GetObject(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid object id", http.StatusBadRequest)
	}

	object, err := c.DS.GetObject(id, currentUserID(ctx))
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Object not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get object", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, objectResponse(&object))
}

// UpdateObject changes an owned object's name or description.
func (c *Controller) UpdateObject(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid object id", http.StatusBadRequest)
	}

	var req ObjectRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	object, err := c.DS.GetObject(id, currentUserID(ctx))
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Object not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get object", http.StatusInternalServerError)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		object.Name = name
	}
	if req.Description != "" {
		object.Description = req.Description
	}

	if err := c.DS.UpdateObject(&object); err != nil {
		return c.HandleError(ctx, err, "Failed to update object", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, objectResponse(&object))
}

// DeleteObject removes an owned object along with its logs and detections.
func (c *Controller) DeleteObject(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid object id", http.StatusBadRequest)
	}

	if err := c.DS.DeleteObject(id, currentUserID(ctx)); err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Object not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to delete object", http.StatusInternalServerError)
	}

	c.apiLogger.Info("object deleted", "object_id", id, "user_id", currentUserID(ctx))
	return ctx.NoContent(http.StatusNoContent)
}

// ToggleMonitoring flips an object between active monitoring and inactive.
func (c *Controller) ToggleMonitoring(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid object id", http.StatusBadRequest)
	}

	object, err := c.DS.GetObject(id, currentUserID(ctx))
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Object not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get object", http.StatusInternalServerError)
	}

	status := datastore.StatusMonitoring
	if object.Status == datastore.StatusMonitoring {
		status = datastore.StatusActive
	}

	if err := c.DS.UpdateObjectStatus(id, currentUserID(ctx), status); err != nil {
		return c.HandleError(ctx, err, "Failed to update status", http.StatusInternalServerError)
	}

	c.apiLogger.Info("monitoring toggled", "object_id", id, "status", status)
	return ctx.JSON(http.StatusOK, map[string]string{"status": status})
}
