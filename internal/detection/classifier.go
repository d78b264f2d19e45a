package detection

import (
	"fmt"
)

// DefaultThreshold is the confidence a detection must exceed, strictly,
// before it affects the danger classification.
const DefaultThreshold = 0.6

// defaultSafeMessage is returned when no entity qualifies.
const defaultSafeMessage = "No danger detected."

// classRule maps a detected class to its severity tier and alert text.
type classRule struct {
	level  DangerLevel
	format string // fmt string receiving the confidence
}

// classRules is the fixed class-to-severity table. The severity vocabulary
// rows are what the detector adapter emits today; the concrete object rows
// are kept for callers submitting precomputed detections.
var classRules = map[string]classRule{
	"high_danger":       {LevelHigh, "High danger detected! (confidence: %.2f)"},
	"medium_danger":     {LevelMedium, "Medium danger detected! (confidence: %.2f)"},
	"low_danger":        {LevelLow, "Low danger detected (confidence: %.2f)"},
	"knife":             {LevelHigh, "Knife detected! (confidence: %.2f)"},
	"gun":               {LevelCritical, "Firearm detected! (confidence: %.2f)"},
	"suspicious_person": {LevelMedium, "Suspicious person detected! (confidence: %.2f)"},
}

// Classifier derives a danger level and alert message from detected
// entities. It is a pure function of its inputs.
type Classifier struct {
	threshold float64
}

// NewClassifier returns a classifier using the given confidence threshold.
// Entities at or below the threshold never affect the result.
func NewClassifier(threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{threshold: threshold}
}

// Threshold returns the configured confidence threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify walks the entities in order and returns the resulting danger
// level and alert message. Empty input always yields LevelSafe.
//
// NOTE: when several entities qualify, the last one in iteration order
// determines the result, even if an earlier entity carried a higher tier.
// This overwrite-not-escalate behavior is long-standing and is kept
// until the product owner signs off on escalation semantics.
func (c *Classifier) Classify(entities []DetectedEntity) (DangerLevel, string) {
	dangerLevel := LevelSafe
	alertMessage := defaultSafeMessage

	for _, entity := range entities {
		if entity.Confidence <= c.threshold {
			continue
		}
		rule, known := classRules[entity.Class]
		if !known {
			continue
		}
		dangerLevel = rule.level
		alertMessage = fmt.Sprintf(rule.format, entity.Confidence)
	}

	return dangerLevel, alertMessage
}
