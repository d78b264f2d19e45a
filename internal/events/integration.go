package events

import (
	"github.com/homewatch/homewatch-go/internal/errors"
)

// InitializeErrorsIntegration hooks the errors package into the event bus.
// Every enhanced error built after this call is forwarded asynchronously to
// registered consumers. Should be called once after Initialize.
func InitializeErrorsIntegration() {
	eb := GetEventBus()
	if eb == nil {
		return
	}

	errors.AddErrorHook(func(ee *errors.EnhancedError) {
		// TryPublish never blocks; dropped events only lose telemetry,
		// never application behavior.
		eb.TryPublish(ee)
	})
}
