package detection

import (
	"context"
	"image"
	"math/rand"
	"sync"

	"github.com/homewatch/homewatch-go/internal/errors"
)

// personClass is the model output class the adapter acts on. Detection is
// deliberately bounded to the first person per frame so annotation and
// downstream persistence stay one-region-per-run.
const personClass = "person"

// RawDetection is what the underlying model emits: a class label, a
// confidence score, and corner coordinates.
type RawDetection struct {
	Class      string
	Confidence float64
	X1, Y1     int
	X2, Y2     int
}

// Model is the opaque object-detection capability. Implementations wrap a
// real inference runtime; zero detections is a valid result, not an error.
type Model interface {
	Predict(ctx context.Context, img image.Image) ([]RawDetection, error)
}

// SeverityClassifier assigns a severity class label to a confirmed person
// detection. The production implementation is expected to be a trained
// model; RandomSeverity is the stand-in until one is wired up.
type SeverityClassifier interface {
	Severity(det RawDetection) string
}

// SeveritySourceRandom selects the placeholder severity classifier.
const SeveritySourceRandom = "random"

// NewSeverityClassifier returns the classifier for a configured source.
// An empty source falls back to the random placeholder; anything else is
// a configuration error.
func NewSeverityClassifier(source string, seed int64) (SeverityClassifier, error) {
	switch source {
	case "", SeveritySourceRandom:
		return NewRandomSeverity(seed), nil
	default:
		return nil, errors.Newf("unknown severity source: %q", source).
			Component("detection").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// severityClasses is the vocabulary RandomSeverity draws from.
var severityClasses = []string{"high_danger", "medium_danger", "low_danger"}

// RandomSeverity assigns a uniformly random severity class.
// Placeholder policy: swap for a trained classifier via the
// SeverityClassifier interface without touching the pipeline.
type RandomSeverity struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSeverity creates the placeholder classifier with the given seed.
func NewRandomSeverity(seed int64) *RandomSeverity {
	return &RandomSeverity{rng: rand.New(rand.NewSource(seed))}
}

// Severity returns a random class from the severity vocabulary.
func (r *RandomSeverity) Severity(RawDetection) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return severityClasses[r.rng.Intn(len(severityClasses))]
}

// Adapter wraps the opaque model and converts its output into detected
// entities: person detections only, first person per frame, severity class
// assigned by the pluggable classifier, bounding box burned into a copy of
// the frame for storage.
type Adapter struct {
	model    Model
	severity SeverityClassifier
}

// NewAdapter constructs a detector adapter.
func NewAdapter(model Model, severity SeverityClassifier) *Adapter {
	return &Adapter{model: model, severity: severity}
}

// Detect runs inference and returns the retained entities plus the
// annotated copy of the frame. An empty entity slice is a valid terminal
// outcome. The returned image is always non-nil on success so callers can
// store the frame even when nothing was found.
func (a *Adapter) Detect(ctx context.Context, img image.Image) ([]DetectedEntity, image.Image, error) {
	if img == nil {
		return nil, nil, errors.Newf("nil image").
			Component("detection").
			Category(errors.CategoryImageDecode).
			Build()
	}

	raws, err := a.model.Predict(ctx, img)
	if err != nil {
		return nil, nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryDetection).
			Priority(errors.PriorityHigh).
			Build()
	}

	annotated := cloneImage(img)
	var entities []DetectedEntity

	for _, raw := range raws {
		if raw.Class != personClass {
			continue
		}

		drawBox(annotated, raw)

		entities = append(entities, DetectedEntity{
			Class:      a.severity.Severity(raw),
			Confidence: clampConfidence(raw.Confidence),
			BBox:       BoxFromCorners(raw.X1, raw.Y1, raw.X2, raw.Y2),
		})

		// First person only.
		break
	}

	return entities, annotated, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
