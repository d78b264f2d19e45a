package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEvent is a minimal ErrorEvent implementation for bus tests.
type testEvent struct {
	mu        sync.Mutex
	component string
	category  string
	message   string
	reported  bool
}

func (e *testEvent) GetComponent() string       { return e.component }
func (e *testEvent) GetCategory() string        { return e.category }
func (e *testEvent) GetContext() map[string]any { return nil }
func (e *testEvent) GetTimestamp() time.Time    { return time.Now() }
func (e *testEvent) GetError() error            { return nil }
func (e *testEvent) GetMessage() string         { return e.message }

func (e *testEvent) IsReported() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reported
}

func (e *testEvent) MarkReported() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reported = true
}

// collectingConsumer records every event it processes.
type collectingConsumer struct {
	name   string
	events chan ErrorEvent
	fail   error
}

func (c *collectingConsumer) Name() string { return c.name }
func (c *collectingConsumer) ProcessEvent(event ErrorEvent) error {
	if c.fail != nil {
		return c.fail
	}
	c.events <- event
	return nil
}

func setupBus(t *testing.T) *EventBus {
	t.Helper()
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	eb, err := Initialize(&Config{BufferSize: 16, Workers: 2, Enabled: true})
	require.NoError(t, err)
	require.NotNil(t, eb)
	return eb
}

func TestPublishReachesConsumer(t *testing.T) {
	eb := setupBus(t)

	consumer := &collectingConsumer{name: "collector", events: make(chan ErrorEvent, 16)}
	require.NoError(t, eb.RegisterConsumer(consumer))

	event := &testEvent{component: "detection", category: "database", message: "boom"}
	assert.True(t, eb.TryPublish(event))

	select {
	case got := <-consumer.events:
		assert.Equal(t, "detection", got.GetComponent())
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the consumer")
	}
}

func TestPublishWithoutConsumersIsDropped(t *testing.T) {
	eb := setupBus(t)
	assert.False(t, eb.TryPublish(&testEvent{component: "x"}))
}

func TestDuplicateConsumerRejected(t *testing.T) {
	eb := setupBus(t)

	c1 := &collectingConsumer{name: "dup", events: make(chan ErrorEvent, 1)}
	c2 := &collectingConsumer{name: "dup", events: make(chan ErrorEvent, 1)}
	require.NoError(t, eb.RegisterConsumer(c1))
	assert.Error(t, eb.RegisterConsumer(c2))
}

func TestDisabledBusReturnsNil(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	eb, err := Initialize(&Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, eb)

	// Publishing through a nil bus must be safe.
	assert.False(t, eb.TryPublish(&testEvent{}))
}

func TestShutdownDrainsAndStops(t *testing.T) {
	eb := setupBus(t)

	consumer := &collectingConsumer{name: "collector", events: make(chan ErrorEvent, 16)}
	require.NoError(t, eb.RegisterConsumer(consumer))

	for i := 0; i < 5; i++ {
		eb.TryPublish(&testEvent{component: "detection", message: "n"})
	}

	require.NoError(t, eb.Shutdown(2*time.Second))
	assert.False(t, eb.TryPublish(&testEvent{}), "publishing after shutdown is refused")
}

func TestStatsCountReceived(t *testing.T) {
	eb := setupBus(t)

	consumer := &collectingConsumer{name: "collector", events: make(chan ErrorEvent, 16)}
	require.NoError(t, eb.RegisterConsumer(consumer))

	eb.TryPublish(&testEvent{})
	eb.TryPublish(&testEvent{})

	stats := eb.GetStats()
	assert.Equal(t, uint64(2), stats.EventsReceived)
}
