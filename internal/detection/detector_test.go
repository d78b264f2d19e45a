package detection

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel returns canned detections.
type stubModel struct {
	raws []RawDetection
	err  error
}

func (m *stubModel) Predict(context.Context, image.Image) ([]RawDetection, error) {
	return m.raws, m.err
}

// fixedSeverity always assigns the same class.
type fixedSeverity struct{ class string }

func (f *fixedSeverity) Severity(RawDetection) string { return f.class }

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 64, 48))
}

func TestDetectFirstPersonOnly(t *testing.T) {
	t.Parallel()

	model := &stubModel{raws: []RawDetection{
		{Class: "person", Confidence: 0.9, X1: 1, Y1: 2, X2: 10, Y2: 20},
		{Class: "person", Confidence: 0.8, X1: 5, Y1: 5, X2: 15, Y2: 25},
	}}
	adapter := NewAdapter(model, &fixedSeverity{class: "high_danger"})

	entities, annotated, err := adapter.Detect(context.Background(), testFrame())
	require.NoError(t, err)
	require.NotNil(t, annotated)
	require.Len(t, entities, 1)

	assert.Equal(t, "high_danger", entities[0].Class)
	assert.InDelta(t, 0.9, entities[0].Confidence, 0.0001)
	assert.Equal(t, BoundingBox{X: 1, Y: 2, Width: 9, Height: 18}, entities[0].BBox)
}

func TestDetectFiltersNonPersonClasses(t *testing.T) {
	t.Parallel()

	model := &stubModel{raws: []RawDetection{
		{Class: "dog", Confidence: 0.95},
		{Class: "car", Confidence: 0.99},
	}}
	adapter := NewAdapter(model, &fixedSeverity{class: "low_danger"})

	entities, annotated, err := adapter.Detect(context.Background(), testFrame())
	require.NoError(t, err)

	assert.Empty(t, entities)
	assert.NotNil(t, annotated, "annotated frame is returned even with no entities")
}

func TestDetectModelError(t *testing.T) {
	t.Parallel()

	model := &stubModel{err: assert.AnError}
	adapter := NewAdapter(model, &fixedSeverity{class: "low_danger"})

	entities, annotated, err := adapter.Detect(context.Background(), testFrame())
	assert.Error(t, err)
	assert.Nil(t, entities)
	assert.Nil(t, annotated)
}

func TestDetectNilImage(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(&stubModel{}, &fixedSeverity{class: "low_danger"})
	_, _, err := adapter.Detect(context.Background(), nil)
	assert.Error(t, err)
}

func TestDetectClampsConfidence(t *testing.T) {
	t.Parallel()

	model := &stubModel{raws: []RawDetection{
		{Class: "person", Confidence: 1.7, X1: 0, Y1: 0, X2: 5, Y2: 5},
	}}
	adapter := NewAdapter(model, &fixedSeverity{class: "medium_danger"})

	entities, _, err := adapter.Detect(context.Background(), testFrame())
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.InDelta(t, 1.0, entities[0].Confidence, 0.0001)
}

func TestNewSeverityClassifierSource(t *testing.T) {
	t.Parallel()

	for _, source := range []string{"", SeveritySourceRandom} {
		classifier, err := NewSeverityClassifier(source, 1)
		require.NoError(t, err, "source %q", source)
		assert.IsType(t, &RandomSeverity{}, classifier)
	}

	_, err := NewSeverityClassifier("oracle", 1)
	assert.Error(t, err)
}

func TestRandomSeverityVocabulary(t *testing.T) {
	t.Parallel()

	r := NewRandomSeverity(42)
	valid := map[string]bool{"high_danger": true, "medium_danger": true, "low_danger": true}
	for i := 0; i < 50; i++ {
		assert.True(t, valid[r.Severity(RawDetection{})])
	}
}
