package notification

import (
	"log/slog"
	"sync"

	"github.com/homewatch/homewatch-go/internal/logging"
	"github.com/homewatch/homewatch-go/internal/observability/metrics"
)

const subscriberBuffer = 64

// Service fans committed alerts out to in-process subscribers and push
// providers. Delivery is best effort: a slow subscriber loses events
// rather than blocking the pipeline.
type Service struct {
	mu          sync.RWMutex
	subscribers map[chan *Event]uint
	providers   []Provider
	metrics     *metrics.NotificationMetrics
	logger      *slog.Logger
	closed      bool
}

// NewService creates the notification service. metrics may be nil in tests.
func NewService(m *metrics.NotificationMetrics) *Service {
	return &Service{
		subscribers: make(map[chan *Event]uint),
		metrics:     m,
		logger:      logging.ForService("notification"),
	}
}

// AddProvider registers an external push provider.
func (s *Service) AddProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, p)
}

// Subscribe registers a channel receiving events addressed to userID.
// Pass userID 0 to receive every event.
func (s *Service) Subscribe(userID uint) chan *Event {
	ch := make(chan *Event, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers[ch] = userID
	if s.metrics != nil {
		s.metrics.SubscriberGauge.Set(float64(len(s.subscribers)))
	}
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Service) Unsubscribe(ch chan *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
	if s.metrics != nil {
		s.metrics.SubscriberGauge.Set(float64(len(s.subscribers)))
	}
}

// Dispatch broadcasts an event to matching subscribers and all providers.
// It reports whether at least one subscriber received it; provider pushes
// run in the background and never affect the result.
func (s *Service) Dispatch(event *Event) bool {
	if event == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	delivered := false
	for ch, userID := range s.subscribers {
		if userID != 0 && userID != event.UserID {
			continue
		}
		select {
		case ch <- event:
			delivered = true
		default:
			if s.metrics != nil {
				s.metrics.DroppedTotal.Inc()
			}
			s.logger.Warn("subscriber channel full, dropping event",
				"event_id", event.ID, "user_id", event.UserID)
		}
	}

	if s.metrics != nil {
		s.metrics.DispatchedTotal.WithLabelValues(event.Type).Inc()
	}

	for _, p := range s.providers {
		go s.push(p, event)
	}

	return delivered
}

func (s *Service) push(p Provider, event *Event) {
	if err := p.Push(event); err != nil {
		if s.metrics != nil {
			s.metrics.PushErrorsTotal.Inc()
		}
		s.logger.Error("push provider delivery failed",
			"provider", p.Name(), "event_id", event.ID, "error", err)
	}
}

// Close shuts the service down, closing every subscriber channel.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	if s.metrics != nil {
		s.metrics.SubscriberGauge.Set(0)
	}
}
