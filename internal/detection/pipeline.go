package detection

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/errors"
	"github.com/homewatch/homewatch-go/internal/notification"
	"github.com/homewatch/homewatch-go/internal/observability/metrics"
)

// Detection type values recorded on each result row.
const (
	TypeAutomatic = "automatic" // frame submitted for server-side inference
	TypeManual    = "manual"    // precomputed detection submitted by an edge device
)

// Run outcome labels for metrics.
const (
	outcomeCommitted         = "committed"
	outcomeDetectionFailed   = "detection_failed"
	outcomePersistenceFailed = "persistence_failed"
)

// ImageSaver persists one annotated frame per detected entity.
type ImageSaver interface {
	Save(img image.Image, objectID uint, index int) (string, error)
}

// Dispatcher broadcasts committed alerts to live subscribers.
type Dispatcher interface {
	Dispatch(event *notification.Event) bool
}

// Input is one unit of work for the pipeline: either a raw frame to run
// inference on, or a precomputed payload from a caller that already did.
type Input struct {
	ObjectID      uint
	UserID        uint
	Frame         image.Image
	Precomputed   *Payload
	DetectionType string
}

// Pipeline orchestrates a detection run end to end: inference,
// classification, transactional recording, and post-commit alert dispatch.
type Pipeline struct {
	detector   *Adapter
	classifier *Classifier
	store      datastore.Interface
	images     ImageSaver
	notifier   Dispatcher
	metrics    *metrics.PipelineMetrics
	timeout    time.Duration
}

// NewPipeline wires the pipeline. notifier and metrics may be nil; the
// pipeline then runs without live dispatch or instrumentation.
func NewPipeline(
	detector *Adapter,
	classifier *Classifier,
	store datastore.Interface,
	images ImageSaver,
	notifier Dispatcher,
	m *metrics.PipelineMetrics,
	inferenceTimeout time.Duration,
) *Pipeline {
	if inferenceTimeout <= 0 {
		inferenceTimeout = 30 * time.Second
	}
	return &Pipeline{
		detector:   detector,
		classifier: classifier,
		store:      store,
		images:     images,
		notifier:   notifier,
		metrics:    m,
		timeout:    inferenceTimeout,
	}
}

// Run executes one detection run and always returns a usable outcome,
// even if the durable recording was rolled back; the rollback is reported
// through logs and metrics instead. A detection or classification failure
// yields a LevelError outcome carrying the cause, never a propagated
// error, and nothing is persisted for it.
func (p *Pipeline) Run(ctx context.Context, input Input) *PipelineOutcome {
	log := getLogger()
	log.Debug("run started", "object_id", input.ObjectID, "user_id", input.UserID)

	entities, annotated, err := p.resolveEntities(ctx, input)
	if err != nil {
		p.countRun(outcomeDetectionFailed)
		log.Error("detection failed", "object_id", input.ObjectID, "error", err)
		return &PipelineOutcome{
			DangerLevel:  LevelError,
			AlertMessage: fmt.Sprintf("Detection failed: %v", err),
		}
	}

	if p.metrics != nil {
		p.metrics.EntitiesDetected.Add(float64(len(entities)))
	}

	dangerLevel, alertMessage := p.classifier.Classify(entities)
	outcome := &PipelineOutcome{
		DangerLevel:      dangerLevel,
		AlertMessage:     alertMessage,
		DetectedEntities: entities,
	}

	run := p.buildRun(input, outcome, annotated)

	if err := p.store.SaveDetectionRun(run); err != nil {
		if p.metrics != nil {
			p.metrics.PersistenceFailures.Inc()
		}
		p.countRun(outcomePersistenceFailed)
		log.Error("recording rolled back, returning in-memory outcome",
			"object_id", input.ObjectID,
			"danger_level", dangerLevel,
			"error", err)
		return outcome
	}

	p.dispatchAlerts(input, run, outcome)
	p.countRun(outcomeCommitted)

	log.Info("run committed",
		"object_id", input.ObjectID,
		"danger_level", dangerLevel,
		"detected", len(entities))

	return outcome
}

// resolveEntities produces the run's entities and annotated frame from
// whichever input form was supplied.
func (p *Pipeline) resolveEntities(ctx context.Context, input Input) ([]DetectedEntity, image.Image, error) {
	if input.Precomputed != nil {
		annotated, err := input.Precomputed.AnnotatedImage()
		if err != nil {
			return nil, nil, err
		}
		return input.Precomputed.Entities(), annotated, nil
	}

	if input.Frame == nil {
		return nil, nil, errors.Newf("no frame or precomputed payload supplied").
			Component("detection").
			Category(errors.CategoryValidation).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	entities, annotated, err := p.detector.Detect(ctx, input.Frame)
	if p.metrics != nil {
		p.metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	}
	return entities, annotated, err
}

// buildRun assembles the transactional write set: one monitoring log, one
// result row per entity, and one notification per result when the run's
// danger level is not safe.
func (p *Pipeline) buildRun(input Input, outcome *PipelineOutcome, annotated image.Image) *datastore.DetectionRun {
	now := time.Now()
	detectionType := input.DetectionType
	if detectionType == "" {
		detectionType = TypeAutomatic
	}

	run := &datastore.DetectionRun{
		Log: datastore.MonitoringLog{
			ObjectID:  input.ObjectID,
			EventType: "detection",
			Message:   runSummary(outcome),
			Timestamp: now,
		},
	}

	for i, entity := range outcome.DetectedEntities {
		imagePath := ""
		if p.images != nil && annotated != nil {
			var err error
			imagePath, err = p.images.Save(annotated, input.ObjectID, i)
			if err != nil {
				// Image storage degrades to an empty reference; the run
				// itself still commits.
				if p.metrics != nil {
					p.metrics.ImageStoreFailures.Inc()
				}
				getLogger().Warn("failed to store annotated frame",
					"object_id", input.ObjectID, "index", i, "error", err)
				imagePath = ""
			}
		}

		entry := datastore.DetectionRunEntry{
			Result: datastore.DetectionResult{
				ObjectID:      input.ObjectID,
				DetectionType: detectionType,
				ObjectClass:   entity.Class,
				Confidence:    entity.Confidence,
				BboxX:         entity.BBox.X,
				BboxY:         entity.BBox.Y,
				BboxWidth:     entity.BBox.Width,
				BboxHeight:    entity.BBox.Height,
				DangerLevel:   string(outcome.DangerLevel),
				ImagePath:     imagePath,
				CreatedAt:     now,
			},
		}

		if outcome.DangerLevel != LevelSafe {
			entry.Notification = &datastore.Notification{
				UserID:    input.UserID,
				Title:     "Security Alert",
				Message:   outcome.AlertMessage,
				Type:      string(outcome.DangerLevel),
				CreatedAt: now,
			}
		}

		run.Entries = append(run.Entries, entry)
	}

	return run
}

// dispatchAlerts pushes live events for every notification row the run
// committed. Delivery is fire and forget.
func (p *Pipeline) dispatchAlerts(input Input, run *datastore.DetectionRun, outcome *PipelineOutcome) {
	if p.notifier == nil {
		return
	}

	for i := range run.Entries {
		stored := run.Entries[i].Notification
		if stored == nil {
			continue
		}

		event := notification.NewEvent(input.UserID, stored.Type, stored.Title, stored.Message)
		event.RecordID = stored.ID
		event.WithMetadata("object_id", fmt.Sprintf("%d", input.ObjectID))
		if path := run.Entries[i].Result.ImagePath; path != "" {
			event.WithMetadata("image_path", path)
		}
		p.notifier.Dispatch(event)
	}
}

func (p *Pipeline) countRun(outcome string) {
	if p.metrics != nil {
		p.metrics.RunsTotal.WithLabelValues(outcome).Inc()
	}
}

// runSummary renders the monitoring log message for a run, e.g.
// "danger level: high, detected objects: 1 - high_danger(0.85)".
func runSummary(outcome *PipelineOutcome) string {
	msg := fmt.Sprintf("danger level: %s, detected objects: %d",
		outcome.DangerLevel, len(outcome.DetectedEntities))
	if len(outcome.DetectedEntities) == 0 {
		return msg
	}

	parts := make([]string, 0, len(outcome.DetectedEntities))
	for _, e := range outcome.DetectedEntities {
		parts = append(parts, e.String())
	}
	return msg + " - " + strings.Join(parts, ", ")
}
