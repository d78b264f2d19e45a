package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homewatch/homewatch-go/internal/detection"
	"github.com/homewatch/homewatch-go/internal/errors"
)

// DetectRequest is the body for POST /objects/:id/detect: one base64 frame
// for server-side inference.
type DetectRequest struct {
	Image string `json:"image"`
}

// Detect runs the full pipeline on a submitted frame. The response is
// always the pipeline outcome: detection failures surface as an
// error-level outcome, not as an HTTP failure.
func (c *Controller) Detect(ctx echo.Context) error {
	objectID, ok := c.ownedObject(ctx)
	if !ok {
		return nil
	}

	var req DetectRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	frame, err := detection.DecodeFrame(req.Image)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid image data", http.StatusBadRequest)
	}

	outcome := c.Pipeline.Run(ctx.Request().Context(), detection.Input{
		ObjectID:      objectID,
		UserID:        currentUserID(ctx),
		Frame:         frame,
		DetectionType: detection.TypeAutomatic,
	})

	return ctx.JSON(http.StatusOK, outcome)
}

// ManualDetect accepts a precomputed detection from an edge device that
// already ran inference, recording it through the same pipeline.
func (c *Controller) ManualDetect(ctx echo.Context) error {
	objectID, ok := c.ownedObject(ctx)
	if !ok {
		return nil
	}

	var payload detection.Payload
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if payload.Image == "" {
		return c.HandleError(ctx, nil, "Image is required", http.StatusBadRequest)
	}

	outcome := c.Pipeline.Run(ctx.Request().Context(), detection.Input{
		ObjectID:      objectID,
		UserID:        currentUserID(ctx),
		Precomputed:   &payload,
		DetectionType: detection.TypeManual,
	})

	return ctx.JSON(http.StatusOK, outcome)
}

// ownedObject resolves the :id parameter to an object owned by the caller.
// On failure the error response has already been written and ok is false.
func (c *Controller) ownedObject(ctx echo.Context) (uint, bool) {
	id, err := pathID(ctx, "id")
	if err != nil {
		_ = c.HandleError(ctx, err, "Invalid object id", http.StatusBadRequest)
		return 0, false
	}

	if _, err := c.DS.GetObject(id, currentUserID(ctx)); err != nil {
		if errors.IsNotFound(err) {
			_ = c.HandleError(ctx, err, "Object not found", http.StatusNotFound)
		} else {
			_ = c.HandleError(ctx, err, "Failed to get object", http.StatusInternalServerError)
		}
		return 0, false
	}
	return id, true
}
