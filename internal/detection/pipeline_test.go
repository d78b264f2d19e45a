package detection

import (
	"context"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/notification"
)

// stubStore records the run handed to SaveDetectionRun and can be told to
// fail, standing in for a rolled-back transaction.
type stubStore struct {
	datastore.Interface
	mu       sync.Mutex
	savedRun *datastore.DetectionRun
	saveErr  error
}

func (s *stubStore) SaveDetectionRun(run *datastore.DetectionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedRun = run
	// Simulate ids assigned by the database.
	for i := range run.Entries {
		run.Entries[i].Result.ID = uint(i + 1)
		if run.Entries[i].Notification != nil {
			run.Entries[i].Notification.ID = uint(100 + i)
			run.Entries[i].Notification.DetectionID = &run.Entries[i].Result.ID
		}
	}
	return nil
}

// stubImages counts saves and can fail.
type stubImages struct {
	saves   int
	saveErr error
}

func (s *stubImages) Save(image.Image, uint, int) (string, error) {
	s.saves++
	if s.saveErr != nil {
		return "", s.saveErr
	}
	return "detections/frame.jpg", nil
}

// stubDispatcher records dispatched events.
type stubDispatcher struct {
	mu     sync.Mutex
	events []*notification.Event
}

func (s *stubDispatcher) Dispatch(event *notification.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return true
}

func newTestPipeline(store *stubStore, images *stubImages, dispatcher *stubDispatcher, raws []RawDetection) *Pipeline {
	model := &stubModel{raws: raws}
	adapter := NewAdapter(model, &fixedSeverity{class: "high_danger"})
	return NewPipeline(adapter, NewClassifier(DefaultThreshold), store, images, dispatcher, nil, 0)
}

func TestPipelineDangerousRunCommitsEverything(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	images := &stubImages{}
	dispatcher := &stubDispatcher{}
	p := newTestPipeline(store, images, dispatcher, []RawDetection{
		{Class: "person", Confidence: 0.9, X1: 10, Y1: 10, X2: 50, Y2: 90},
	})

	outcome := p.Run(context.Background(), Input{ObjectID: 7, UserID: 3, Frame: testFrame()})
	require.NotNil(t, outcome)

	assert.Equal(t, LevelHigh, outcome.DangerLevel)
	assert.Len(t, outcome.DetectedEntities, 1)

	require.NotNil(t, store.savedRun)
	assert.Equal(t, uint(7), store.savedRun.Log.ObjectID)
	assert.Contains(t, store.savedRun.Log.Message, "danger level: high")
	assert.Contains(t, store.savedRun.Log.Message, "detected objects: 1")
	assert.Contains(t, store.savedRun.Log.Message, "high_danger(0.90)")

	require.Len(t, store.savedRun.Entries, 1)
	entry := store.savedRun.Entries[0]
	assert.Equal(t, "high", entry.Result.DangerLevel)
	assert.Equal(t, "detections/frame.jpg", entry.Result.ImagePath)
	require.NotNil(t, entry.Notification)
	assert.Equal(t, uint(3), entry.Notification.UserID)
	assert.Equal(t, "high", entry.Notification.Type)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, uint(3), dispatcher.events[0].UserID)
	assert.Equal(t, "high", dispatcher.events[0].Type)
}

func TestPipelineEmptyRunWritesOnlyLog(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	dispatcher := &stubDispatcher{}
	p := newTestPipeline(store, &stubImages{}, dispatcher, nil)

	outcome := p.Run(context.Background(), Input{ObjectID: 7, UserID: 3, Frame: testFrame()})

	assert.Equal(t, LevelSafe, outcome.DangerLevel)
	assert.Equal(t, "No danger detected.", outcome.AlertMessage)
	assert.Empty(t, outcome.DetectedEntities)

	require.NotNil(t, store.savedRun)
	assert.Contains(t, store.savedRun.Log.Message, "detected objects: 0")
	assert.Empty(t, store.savedRun.Entries)
	assert.Empty(t, dispatcher.events, "safe runs raise no alerts")
}

func TestPipelinePersistenceFailureStillReturnsOutcome(t *testing.T) {
	t.Parallel()

	store := &stubStore{saveErr: assert.AnError}
	dispatcher := &stubDispatcher{}
	p := newTestPipeline(store, &stubImages{}, dispatcher, []RawDetection{
		{Class: "person", Confidence: 0.85, X1: 0, Y1: 0, X2: 20, Y2: 40},
	})

	outcome := p.Run(context.Background(), Input{ObjectID: 7, UserID: 3, Frame: testFrame()})
	require.NotNil(t, outcome, "caller still gets the in-memory outcome")

	assert.Equal(t, LevelHigh, outcome.DangerLevel)
	assert.Nil(t, store.savedRun)
	assert.Empty(t, dispatcher.events, "nothing is dispatched for a rolled-back run")
}

func TestPipelineImageStoreFailureDegradesToEmptyPath(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	images := &stubImages{saveErr: assert.AnError}
	p := newTestPipeline(store, images, &stubDispatcher{}, []RawDetection{
		{Class: "person", Confidence: 0.9, X1: 0, Y1: 0, X2: 10, Y2: 10},
	})

	outcome := p.Run(context.Background(), Input{ObjectID: 1, UserID: 1, Frame: testFrame()})
	assert.Equal(t, LevelHigh, outcome.DangerLevel)

	require.NotNil(t, store.savedRun, "the run still commits")
	require.Len(t, store.savedRun.Entries, 1)
	assert.Empty(t, store.savedRun.Entries[0].Result.ImagePath)
}

func TestPipelineDetectionFailureReturnsErrorLevel(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	model := &stubModel{err: assert.AnError}
	adapter := NewAdapter(model, &fixedSeverity{class: "high_danger"})
	p := NewPipeline(adapter, NewClassifier(DefaultThreshold), store, &stubImages{}, nil, nil, 0)

	outcome := p.Run(context.Background(), Input{ObjectID: 1, UserID: 1, Frame: testFrame()})
	require.NotNil(t, outcome, "a failed detection still answers")
	assert.Equal(t, LevelError, outcome.DangerLevel)
	assert.Contains(t, outcome.AlertMessage, "Detection failed")
	assert.Contains(t, outcome.AlertMessage, assert.AnError.Error(),
		"the cause is embedded in the alert message")
	assert.Nil(t, store.savedRun, "failed detections are never persisted")
}

func TestPipelinePrecomputedPayload(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	dispatcher := &stubDispatcher{}
	p := newTestPipeline(store, &stubImages{}, dispatcher, nil)

	payload := &Payload{
		Image:         encodeTestFrame(t),
		Confidence:    0.8,
		Class:         "low_danger",
		DetectedCount: 1,
		BBox:          []int{10, 20, 30, 60},
	}

	outcome := p.Run(context.Background(), Input{
		ObjectID:      2,
		UserID:        5,
		Precomputed:   payload,
		DetectionType: TypeManual,
	})

	assert.Equal(t, LevelLow, outcome.DangerLevel)
	require.NotNil(t, store.savedRun)
	require.Len(t, store.savedRun.Entries, 1)
	assert.Equal(t, TypeManual, store.savedRun.Entries[0].Result.DetectionType)
	assert.Equal(t, 10, store.savedRun.Entries[0].Result.BboxX)
	assert.Equal(t, 40, store.savedRun.Entries[0].Result.BboxHeight)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "low", dispatcher.events[0].Type)
}

func TestPipelineNoInputReturnsErrorLevel(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(&stubStore{}, &stubImages{}, &stubDispatcher{}, nil)
	outcome := p.Run(context.Background(), Input{ObjectID: 1, UserID: 1})
	require.NotNil(t, outcome)
	assert.Equal(t, LevelError, outcome.DangerLevel)
	assert.Contains(t, outcome.AlertMessage, "Detection failed")
}
