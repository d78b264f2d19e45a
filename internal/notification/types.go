// Package notification delivers detection alerts to connected clients and
// external push providers, backed by the notifications table.
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Event is the in-flight form of an alert, broadcast to subscribers and
// push providers after the backing row has been committed.
type Event struct {
	ID        string            `json:"id"`
	UserID    uint              `json:"user_id"`
	RecordID  uint              `json:"record_id,omitempty"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates an alert event with a fresh ID and timestamp.
func NewEvent(userID uint, eventType, title, message string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      eventType,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithMetadata attaches a metadata entry, allocating the map lazily.
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// Provider pushes an event to an external delivery channel.
type Provider interface {
	Name() string
	Push(event *Event) error
}
