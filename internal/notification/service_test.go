package notification

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch-go/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Init()
	os.Exit(m.Run())
}

func receiveEvent(t *testing.T, ch chan *Event) *Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestDispatchRoutesByUser(t *testing.T) {
	t.Parallel()

	s := NewService(nil)
	defer s.Close()

	alice := s.Subscribe(1)
	bob := s.Subscribe(2)
	all := s.Subscribe(0)

	delivered := s.Dispatch(NewEvent(1, "high", "Security Alert", "High danger detected!"))
	assert.True(t, delivered)

	got := receiveEvent(t, alice)
	assert.Equal(t, uint(1), got.UserID)
	assert.Equal(t, "high", got.Type)

	got = receiveEvent(t, all)
	assert.Equal(t, uint(1), got.UserID)

	select {
	case e := <-bob:
		t.Fatalf("bob received another user's event: %+v", e)
	default:
	}
}

func TestDispatchNilEvent(t *testing.T) {
	t.Parallel()

	s := NewService(nil)
	defer s.Close()
	assert.False(t, s.Dispatch(nil))
}

func TestDispatchWithNoSubscribers(t *testing.T) {
	t.Parallel()

	s := NewService(nil)
	defer s.Close()
	assert.False(t, s.Dispatch(NewEvent(1, "low", "t", "m")))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	s := NewService(nil)
	defer s.Close()

	ch := s.Subscribe(1)
	s.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe must not panic.
	s.Unsubscribe(ch)
}

func TestDispatchDropsWhenSubscriberFull(t *testing.T) {
	t.Parallel()

	s := NewService(nil)
	defer s.Close()

	ch := s.Subscribe(1)
	for i := 0; i < subscriberBuffer+10; i++ {
		s.Dispatch(NewEvent(1, "low", "t", "m"))
	}

	// The buffer holds exactly subscriberBuffer events; the rest were
	// dropped without blocking.
	assert.Len(t, ch, subscriberBuffer)
}

func TestCloseTerminatesSubscribers(t *testing.T) {
	t.Parallel()

	s := NewService(nil)
	ch := s.Subscribe(1)
	s.Close()

	_, open := <-ch
	assert.False(t, open)

	assert.False(t, s.Dispatch(NewEvent(1, "low", "t", "m")))

	closedCh := s.Subscribe(2)
	_, open = <-closedCh
	assert.False(t, open, "subscribing after close yields a closed channel")
}

type recordingProvider struct {
	events chan *Event
}

func (p *recordingProvider) Name() string { return "recording" }
func (p *recordingProvider) Push(e *Event) error {
	p.events <- e
	return nil
}

func TestDispatchPushesToProviders(t *testing.T) {
	t.Parallel()

	s := NewService(nil)
	defer s.Close()

	provider := &recordingProvider{events: make(chan *Event, 1)}
	s.AddProvider(provider)

	s.Dispatch(NewEvent(4, "medium", "Security Alert", "Medium danger detected!"))

	got := receiveEvent(t, provider.events)
	require.NotNil(t, got)
	assert.Equal(t, "medium", got.Type)
}

func TestEventMetadata(t *testing.T) {
	t.Parallel()

	e := NewEvent(1, "high", "t", "m").WithMetadata("object_id", "7")
	assert.Equal(t, "7", e.Metadata["object_id"])
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
}
