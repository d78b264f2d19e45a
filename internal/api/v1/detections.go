package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/errors"
	"github.com/homewatch/homewatch-go/internal/imagestore"
)

const defaultDetectionLimit = 50

// initDetectionRoutes registers detection submission and retrieval routes.
func (c *Controller) initDetectionRoutes() {
	objects := c.Group.Group("/objects", c.AuthMiddleware())
	objects.POST("/:id/detect", c.Detect)
	objects.POST("/:id/manual-detect", c.ManualDetect)
	objects.GET("/:id/detections", c.ListDetections)
	objects.GET("/:id/detections/:detectionId", c.GetDetection)
	objects.GET("/:id/stats", c.DetectionStats)
}

// DetectionResponse is the public view of a stored detection result.
type DetectionResponse struct {
	ID            uint    `json:"id"`
	ObjectID      uint    `json:"object_id"`
	DetectionType string  `json:"detection_type"`
	ObjectClass   string  `json:"object_class"`
	Confidence    float64 `json:"confidence"`
	BboxX         int     `json:"bbox_x"`
	BboxY         int     `json:"bbox_y"`
	BboxWidth     int     `json:"bbox_width"`
	BboxHeight    int     `json:"bbox_height"`
	DangerLevel   string  `json:"danger_level"`
	ImageURL      string  `json:"image_url"`
	CreatedAt     string  `json:"created_at"`
}

func (c *Controller) detectionResponse(ctx echo.Context, d *datastore.DetectionResult) DetectionResponse {
	baseURL := ctx.Scheme() + "://" + ctx.Request().Host
	return DetectionResponse{
		ID:            d.ID,
		ObjectID:      d.ObjectID,
		DetectionType: d.DetectionType,
		ObjectClass:   d.ObjectClass,
		Confidence:    d.Confidence,
		BboxX:         d.BboxX,
		BboxY:         d.BboxY,
		BboxWidth:     d.BboxWidth,
		BboxHeight:    d.BboxHeight,
		DangerLevel:   d.DangerLevel,
		ImageURL:      imagestore.ResolveURL(d.ImagePath, baseURL),
		CreatedAt:     d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ListDetections returns detections for an owned object, newest first.
func (c *Controller) ListDetections(ctx echo.Context) error {
	objectID, ok := c.ownedObject(ctx)
	if !ok {
		return nil
	}

	limit := defaultDetectionLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.HandleError(ctx, err, "Invalid limit", http.StatusBadRequest)
		}
		limit = parsed
	}

	detections, err := c.DS.GetDetections(objectID, limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list detections", http.StatusInternalServerError)
	}

	resp := make([]DetectionResponse, 0, len(detections))
	for i := range detections {
		resp = append(resp, c.detectionResponse(ctx, &detections[i]))
	}
	return ctx.JSON(http.StatusOK, resp)
}

// GetDetection returns one detection belonging to an owned object.
func (c *Controller) GetDetection(ctx echo.Context) error {
	objectID, ok := c.ownedObject(ctx)
	if !ok {
		return nil
	}

	detectionID, err := pathID(ctx, "detectionId")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid detection id", http.StatusBadRequest)
	}

	d, err := c.DS.GetDetection(objectID, detectionID)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Detection not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get detection", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, c.detectionResponse(ctx, &d))
}

// StatsResponse aggregates an object's detection history.
type StatsResponse struct {
	Total        int64            `json:"total"`
	Last24Hours  int64            `json:"last_24_hours"`
	DangerLevels map[string]int64 `json:"danger_levels"`
	ObjectClass  map[string]int64 `json:"object_classes"`
}

// DetectionStats returns aggregate counts for an owned object. Results are
// cached briefly; the write path does not invalidate them.
func (c *Controller) DetectionStats(ctx echo.Context) error {
	objectID, ok := c.ownedObject(ctx)
	if !ok {
		return nil
	}

	cacheKey := fmt.Sprintf("stats:%d", objectID)
	if cached, found := c.statsCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	total, err := c.DS.CountDetections(objectID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute stats", http.StatusInternalServerError)
	}

	recent, err := c.DS.CountDetectionsSince(objectID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute stats", http.StatusInternalServerError)
	}

	levelStats, err := c.DS.GetDangerLevelStats(objectID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute stats", http.StatusInternalServerError)
	}

	classStats, err := c.DS.GetObjectClassStats(objectID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute stats", http.StatusInternalServerError)
	}

	resp := StatsResponse{
		Total:        total,
		Last24Hours:  recent,
		DangerLevels: make(map[string]int64, len(levelStats)),
		ObjectClass:  make(map[string]int64, len(classStats)),
	}
	for _, s := range levelStats {
		resp.DangerLevels[s.DangerLevel] = s.Count
	}
	for _, s := range classStats {
		resp.ObjectClass[s.ObjectClass] = s.Count
	}

	c.statsCache.Set(cacheKey, resp, 1*time.Minute)
	return ctx.JSON(http.StatusOK, resp)
}
