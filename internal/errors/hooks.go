package errors

import "sync"

// ErrorHook is invoked for every enhanced error built. Hooks must not block;
// slow consumers should hand the error off to their own queue.
type ErrorHook func(ee *EnhancedError)

var (
	hooksMu sync.RWMutex
	hooks   []ErrorHook
)

// AddErrorHook registers a hook invoked on every Build call. Used by the
// events package to forward errors to telemetry and notification consumers
// without creating an import cycle.
func AddErrorHook(hook ErrorHook) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = append(hooks, hook)
}

// ClearErrorHooks removes all registered hooks. Intended for tests.
func ClearErrorHooks() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = nil
}

func publish(ee *EnhancedError) {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	for _, hook := range hooks {
		hook(ee)
	}
}
