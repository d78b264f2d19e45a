// Package detection implements the frame analysis pipeline: an adapter over
// an opaque object-detection model, a danger classifier, and the orchestrator
// that records each run transactionally and raises notifications.
package detection

import (
	"fmt"
)

// DangerLevel is the ordered severity tag attached to a detection run and
// any resulting notification.
type DangerLevel string

const (
	LevelSafe     DangerLevel = "safe"
	LevelLow      DangerLevel = "low"
	LevelMedium   DangerLevel = "medium"
	LevelHigh     DangerLevel = "high"
	LevelCritical DangerLevel = "critical"

	// LevelError is returned when detection or classification itself failed.
	// It is never persisted; callers always receive an answer.
	LevelError DangerLevel = "error"
)

// severityRank orders danger levels for comparisons in tests and display.
var severityRank = map[DangerLevel]int{
	LevelSafe:     0,
	LevelLow:      1,
	LevelMedium:   2,
	LevelHigh:     3,
	LevelCritical: 4,
}

// Rank returns the ordinal position of the level, safe lowest.
func (d DangerLevel) Rank() int {
	return severityRank[d]
}

// Valid reports whether the level is part of the persisted vocabulary.
func (d DangerLevel) Valid() bool {
	_, ok := severityRank[d]
	return ok
}

// BoundingBox is an axis-aligned region within a frame. Width and height
// are derived from corner coordinates and are never negative.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BoxFromCorners builds a BoundingBox from (x1,y1)-(x2,y2) corners,
// clamping inverted corners to zero extent.
func BoxFromCorners(x1, y1, x2, y2 int) BoundingBox {
	w := x2 - x1
	if w < 0 {
		w = 0
	}
	h := y2 - y1
	if h < 0 {
		h = 0
	}
	return BoundingBox{X: x1, Y: y1, Width: w, Height: h}
}

// DetectedEntity is one candidate found in a frame. Entities are transient;
// they exist only for the duration of a pipeline run.
type DetectedEntity struct {
	Class      string      `json:"class"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// String renders the entity the way run summaries list them.
func (e DetectedEntity) String() string {
	return fmt.Sprintf("%s(%.2f)", e.Class, e.Confidence)
}

// PipelineOutcome is what every pipeline run returns to its caller,
// regardless of whether durable recording succeeded.
type PipelineOutcome struct {
	DangerLevel      DangerLevel      `json:"danger_level"`
	AlertMessage     string           `json:"alert_message"`
	DetectedEntities []DetectedEntity `json:"detected_objects"`
}
