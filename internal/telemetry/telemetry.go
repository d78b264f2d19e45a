// Package telemetry forwards error events to Sentry. Reporting is opt-in
// and runs off the hot path through the event bus.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/homewatch/homewatch-go/internal/conf"
	"github.com/homewatch/homewatch-go/internal/events"
	"github.com/homewatch/homewatch-go/internal/logging"
)

const flushTimeout = 2 * time.Second

// Init configures the Sentry client. When telemetry is disabled or no DSN
// is configured it is a no-op and returns false.
func Init(settings *conf.Settings) (bool, error) {
	if !settings.Sentry.Enabled || settings.Sentry.DSN == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		AttachStacktrace: true,
		Environment:      "production",
	})
	if err != nil {
		return false, fmt.Errorf("initializing sentry: %w", err)
	}
	return true, nil
}

// Flush drains pending Sentry events, typically during shutdown.
func Flush() {
	sentry.Flush(flushTimeout)
}

// SentryConsumer ships error events from the event bus to Sentry.
type SentryConsumer struct{}

// NewSentryConsumer creates the consumer.
func NewSentryConsumer() *SentryConsumer {
	return &SentryConsumer{}
}

// Name implements events.EventConsumer.
func (c *SentryConsumer) Name() string {
	return "sentry"
}

// ProcessEvent implements events.EventConsumer. Already-reported events are
// skipped so retries on the bus never duplicate Sentry issues.
func (c *SentryConsumer) ProcessEvent(event events.ErrorEvent) error {
	if event.IsReported() {
		return nil
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", event.GetComponent())
		scope.SetTag("category", event.GetCategory())
		for key, value := range event.GetContext() {
			scope.SetExtra(key, value)
		}

		if err := event.GetError(); err != nil {
			sentry.CaptureException(err)
		} else {
			sentry.CaptureMessage(event.GetMessage())
		}
	})

	event.MarkReported()
	logging.ForService("telemetry").Debug("error event reported",
		"component", event.GetComponent(), "category", event.GetCategory())
	return nil
}
